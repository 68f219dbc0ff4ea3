package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"webhub-checker/internal/feed"
	"webhub-checker/internal/hub"
	"webhub-checker/internal/models"
	"webhub-checker/internal/webhub"
)

type subscribeRequest struct {
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
}

type subscribeResponse struct {
	Success      bool                `json:"success"`
	Subscription models.Subscription `json:"subscription"`
}

func (h *Handlers) PostSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	callbackURL := feed.BaseURL(h.baseURL, r) + "/webhook"
	sub, err := h.service.CreateSubscription(r.Context(), req.ChannelID, req.ChannelTitle, callbackURL)
	if errors.Is(err, webhub.ErrInvalidChannel) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		event := h.log.Error().Err(err).Str("channel_id", req.ChannelID)
		var rejected *hub.RejectedError
		if errors.As(err, &rejected) {
			event = event.Int("hub_status", rejected.StatusCode)
		}
		event.Msg("subscription failed")
		respondError(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}

	respondJSON(w, http.StatusOK, subscribeResponse{Success: true, Subscription: sub})
}

func (h *Handlers) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Subscriptions())
}
