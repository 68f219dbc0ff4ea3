package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"
	"webhub-checker/internal/models"
)

// Service is the state the handlers read and mutate. *webhub.Service
// implements it.
type Service interface {
	CreateSubscription(ctx context.Context, channelID, channelTitle, callbackURL string) (models.Subscription, error)
	Ingest(ctx context.Context, payload string) (bool, error)
	Subscriptions() []models.Subscription
	Notifications() []models.Notification
}

type Handlers struct {
	service   Service
	templates *template.Template
	baseURL   string
	log       zerolog.Logger
}

// New builds the handlers. baseURL may be empty, in which case public URLs
// are derived from each request.
func New(service Service, templates *template.Template, baseURL string, logger zerolog.Logger) *Handlers {
	return &Handlers{
		service:   service,
		templates: templates,
		baseURL:   baseURL,
		log:       logger,
	}
}

func (h *Handlers) ServeWebApp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := h.templates.ExecuteTemplate(w, "index.html", nil)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to render index")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
