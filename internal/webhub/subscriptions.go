package webhub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"webhub-checker/internal/hub"
	"webhub-checker/internal/models"
	"webhub-checker/internal/store"
)

const noChallenge = "No challenge"

// CreateSubscription asks the hub to push updates for channelID to
// callbackURL. Only an acknowledged subscription is recorded; a rejected or
// failed hub call leaves no state behind and is not retried.
func (s *Service) CreateSubscription(ctx context.Context, channelID, channelTitle, callbackURL string) (models.Subscription, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return models.Subscription{}, ErrInvalidChannel
	}

	topic := hub.TopicURL(channelID)
	err := s.hub.Subscribe(ctx, hub.SubscribeRequest{
		Callback:     callbackURL,
		Topic:        topic,
		LeaseSeconds: LeaseSeconds,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Msg("hub subscribe failed")
		return models.Subscription{}, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	now := s.now().UTC()
	sub := models.Subscription{
		ID:           s.newID(),
		ChannelID:    channelID,
		ChannelTitle: channelTitle,
		HubTopic:     topic,
		LeaseSeconds: LeaseSeconds,
		ExpiresAt:    now.Add(LeaseSeconds * time.Second),
		CreatedAt:    now,
	}
	value, err := json.Marshal(sub)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("failed to encode subscription: %w", err)
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	if err := s.store.Put(ctx, store.NamespaceSubscriptions, sub.ID, value); err != nil {
		return models.Subscription{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.subscriptions = append(s.subscriptions, sub)

	s.log.Info().
		Str("subscription_id", sub.ID).
		Str("channel_id", sub.ChannelID).
		Time("expires_at", sub.ExpiresAt).
		Msg("subscription created")
	return sub, nil
}

// VerifyChallenge answers the hub's verification request by echoing its
// challenge token.
func VerifyChallenge(challenge string) string {
	if challenge == "" {
		return noChallenge
	}
	return challenge
}
