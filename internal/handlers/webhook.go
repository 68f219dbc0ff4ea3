package handlers

import (
	"io"
	"net/http"
	"time"

	"webhub-checker/internal/feed"
	"webhub-checker/internal/webhub"
)

// maxPushBytes bounds how much of a push body is read.
const maxPushBytes = 1 << 20

// PostWebhook receives hub pushes. Unparseable pushes are still
// acknowledged so the hub does not retry them.
func (h *Handlers) PostWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPushBytes+1))
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read push body")
		respondText(w, http.StatusOK, "OK")
		return
	}
	if len(body) > maxPushBytes {
		h.log.Warn().Int("limit_bytes", maxPushBytes).Msg("push body truncated")
		body = body[:maxPushBytes]
	}

	if _, err := h.service.Ingest(r.Context(), string(body)); err != nil {
		h.log.Error().Err(err).Msg("failed to ingest push")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondText(w, http.StatusOK, "OK")
}

// VerifyWebhook answers the hub's verification handshake.
func (h *Handlers) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if mode := q.Get("hub.mode"); mode != "" {
		h.log.Info().
			Str("mode", mode).
			Str("topic", q.Get("hub.topic")).
			Str("lease_seconds", q.Get("hub.lease_seconds")).
			Msg("hub verification")
	}
	respondText(w, http.StatusOK, webhub.VerifyChallenge(q.Get("hub.challenge")))
}

func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Notifications())
}

func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	rss, err := feed.GenerateRSS(h.service.Notifications(), feed.BaseURL(h.baseURL, r), time.Now())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate RSS")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}
