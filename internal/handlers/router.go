package handlers

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"webhub-checker/internal/middleware"
)

// NewRouter wires the routes. limiter guards the endpoint that calls out
// to the hub. Forwarded client addresses are honored only when trustProxy
// is set.
func NewRouter(h *Handlers, limiter *middleware.RateLimiterMiddleware, trustProxy bool, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()

	r.Handle("/subscribe", limiter.Middleware(http.HandlerFunc(h.PostSubscription))).Methods(http.MethodPost)
	r.HandleFunc("/webhook", h.PostWebhook).Methods(http.MethodPost)
	r.HandleFunc("/webhook", h.VerifyWebhook).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications", h.GetNotifications).Methods(http.MethodGet)
	r.HandleFunc("/api/subscriptions", h.GetSubscriptions).Methods(http.MethodGet)
	r.HandleFunc("/rss", h.GetRSSFeed).Methods(http.MethodGet)
	r.HandleFunc("/", h.ServeWebApp).Methods(http.MethodGet)

	// mux only runs its own middleware on matched routes, so wrap the router.
	var handler http.Handler = r
	handler = chimw.Heartbeat("/ping")(handler)
	handler = chimw.Recoverer(handler)
	handler = middleware.RequestLogger(logger)(handler)
	if trustProxy {
		handler = chimw.RealIP(handler)
	}
	handler = chimw.RequestID(handler)
	return handler
}
