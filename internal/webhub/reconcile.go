package webhub

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"webhub-checker/internal/models"
	"webhub-checker/internal/store"
)

// ReconcileResult summarizes a startup reconciliation.
type ReconcileResult struct {
	Subscriptions int // restored
	Expired       int // expired subscriptions deleted
	Notifications int // restored
	Purged        int // notifications past the cap deleted
	Skipped       int // stored records that could not be decoded or deleted
}

// Reconcile loads durable state into memory. Expired subscriptions and
// notifications beyond MaxNotifications are deleted from the store instead.
// It must run before the service handles any request.
func (s *Service) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	subs, err := s.restoreSubscriptions(ctx, &res)
	if err != nil {
		return res, err
	}
	notifs, err := s.restoreNotifications(ctx, &res)
	if err != nil {
		return res, err
	}

	s.subMu.Lock()
	s.subscriptions = subs
	s.subMu.Unlock()

	s.notifMu.Lock()
	s.notifications = notifs
	s.notifMu.Unlock()

	s.log.Info().
		Int("subscriptions", res.Subscriptions).
		Int("expired", res.Expired).
		Int("notifications", res.Notifications).
		Int("purged", res.Purged).
		Int("skipped", res.Skipped).
		Msg("restored state from store")
	return res, nil
}

func (s *Service) restoreSubscriptions(ctx context.Context, res *ReconcileResult) ([]models.Subscription, error) {
	entries, err := s.store.List(ctx, store.NamespaceSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	now := s.now()
	subs := make([]models.Subscription, 0, len(entries))
	for _, e := range entries {
		var sub models.Subscription
		if err := json.Unmarshal(e.Value, &sub); err != nil {
			s.log.Warn().Err(err).Str("id", e.ID).Msg("skipping unreadable subscription")
			res.Skipped++
			continue
		}
		if !sub.Expired(now) {
			subs = append(subs, sub)
			continue
		}
		if err := s.store.Delete(ctx, store.NamespaceSubscriptions, e.ID); err != nil {
			s.log.Warn().Err(err).Str("id", e.ID).Msg("failed to delete expired subscription")
			res.Skipped++
			continue
		}
		s.log.Info().Str("id", e.ID).Str("channel_id", sub.ChannelID).Msg("expired subscription removed")
		res.Expired++
	}

	sort.SliceStable(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	res.Subscriptions = len(subs)
	return subs, nil
}

func (s *Service) restoreNotifications(ctx context.Context, res *ReconcileResult) ([]models.Notification, error) {
	entries, err := s.store.List(ctx, store.NamespaceNotifications)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	notifs := make([]models.Notification, 0, len(entries))
	for _, e := range entries {
		var n models.Notification
		if err := json.Unmarshal(e.Value, &n); err != nil {
			s.log.Warn().Err(err).Str("id", e.ID).Msg("skipping unreadable notification")
			res.Skipped++
			continue
		}
		// Keyed by the entry so a purge hits the stored record.
		n.ID = e.ID
		notifs = append(notifs, n)
	}

	// Store order says nothing about recency.
	sort.SliceStable(notifs, func(i, j int) bool { return notifs[i].ReceivedAt.After(notifs[j].ReceivedAt) })

	if len(notifs) > MaxNotifications {
		for _, old := range notifs[MaxNotifications:] {
			if err := s.store.Delete(ctx, store.NamespaceNotifications, old.ID); err != nil {
				s.log.Warn().Err(err).Str("id", old.ID).Msg("failed to purge notification")
				res.Skipped++
				continue
			}
			res.Purged++
		}
		notifs = notifs[:MaxNotifications]
	}
	res.Notifications = len(notifs)
	return notifs, nil
}
