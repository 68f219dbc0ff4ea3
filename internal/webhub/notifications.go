package webhub

import (
	"context"
	"encoding/json"
	"fmt"

	"webhub-checker/internal/feed"
	"webhub-checker/internal/models"
	"webhub-checker/internal/store"
	"webhub-checker/pkg/tasks"
)

// Ingest records a pushed feed update. Payloads without a video id, title
// and channel id are dropped and reported as not ingested, without error.
// The log never holds more than MaxNotifications entries once Ingest returns.
func (s *Service) Ingest(ctx context.Context, payload string) (bool, error) {
	entry, ok := feed.ParseEntry(payload)
	if !ok {
		s.log.Debug().Int("bytes", len(payload)).Msg("ignoring push without a video entry")
		return false, nil
	}

	n, err := s.record(ctx, entry)
	if err != nil {
		return false, err
	}

	s.log.Info().
		Str("notification_id", n.ID).
		Str("channel_id", n.ChannelID).
		Str("video_id", n.VideoID).
		Msg("notification received")

	s.publish(ctx, n)
	return true, nil
}

// record stamps the entry and writes it through to the store and the head
// of the log. The receipt time is taken under the lock so the log stays
// ordered by ReceivedAt.
func (s *Service) record(ctx context.Context, entry feed.Entry) (models.Notification, error) {
	s.notifMu.Lock()
	defer s.notifMu.Unlock()

	now := s.now().UTC()
	entry = entry.WithDefaults(now)
	n := models.Notification{
		ID:           s.newID(),
		ChannelID:    entry.ChannelID,
		VideoID:      entry.VideoID,
		Title:        entry.Title,
		PublishedAt:  entry.PublishedAt,
		ChannelTitle: entry.ChannelTitle,
		ReceivedAt:   now,
	}
	value, err := json.Marshal(n)
	if err != nil {
		return n, fmt.Errorf("failed to encode notification: %w", err)
	}

	if err := s.store.Put(ctx, store.NamespaceNotifications, n.ID, value); err != nil {
		return n, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.notifications = append([]models.Notification{n}, s.notifications...)
	if len(s.notifications) <= MaxNotifications {
		return n, nil
	}

	for _, old := range s.notifications[MaxNotifications:] {
		// Leftovers are purged by the next Reconcile.
		if err := s.store.Delete(ctx, store.NamespaceNotifications, old.ID); err != nil {
			s.log.Warn().Err(err).Str("notification_id", old.ID).Msg("failed to evict notification")
		}
	}
	s.notifications = s.notifications[:MaxNotifications]
	return n, nil
}

func (s *Service) publish(ctx context.Context, n models.Notification) {
	if s.enqueuer == nil {
		return
	}
	task, err := tasks.NewNotificationReceivedTask(tasks.NotificationReceivedPayload{
		NotificationID: n.ID,
		ChannelID:      n.ChannelID,
		ChannelTitle:   n.ChannelTitle,
		VideoID:        n.VideoID,
		Title:          n.Title,
		PublishedAt:    n.PublishedAt,
		ReceivedAt:     n.ReceivedAt,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create notification task")
		return
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
		s.log.Error().Err(err).Str("notification_id", n.ID).Msg("failed to enqueue notification task")
	}
}
