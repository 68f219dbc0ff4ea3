// Package webhub owns the subscriber's working state: the active hub
// subscriptions and the bounded log of received notifications. Every
// mutation is written through to the durable store before it becomes
// visible in memory.
package webhub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"webhub-checker/internal/hub"
	"webhub-checker/internal/models"
	"webhub-checker/internal/store"
	"webhub-checker/pkg/tasks"
)

const (
	// LeaseSeconds is the lease requested from the hub (5 days).
	LeaseSeconds = 432000

	// MaxNotifications caps the retained notification log.
	MaxNotifications = 100
)

var (
	// ErrStorage marks failures of the durable store.
	ErrStorage = errors.New("storage failure")

	ErrInvalidChannel = errors.New("channelId is required")
)

// HubSubscriber sends subscribe requests to the hub. *hub.Client implements it.
type HubSubscriber interface {
	Subscribe(ctx context.Context, req hub.SubscribeRequest) error
}

type Option func(*Service)

// WithEnqueuer publishes a task for every ingested notification.
func WithEnqueuer(e tasks.TaskEnqueuer) Option {
	return func(s *Service) { s.enqueuer = e }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	store    store.Store
	hub      HubSubscriber
	enqueuer tasks.TaskEnqueuer
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string

	subMu         sync.RWMutex
	subscriptions []models.Subscription

	notifMu       sync.RWMutex
	notifications []models.Notification // newest first
}

func New(st store.Store, h HubSubscriber, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store: st,
		hub:   h,
		log:   logger,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscriptions returns the active subscriptions in creation order.
func (s *Service) Subscriptions() []models.Subscription {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	out := make([]models.Subscription, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out
}

// Notifications returns the retained notifications, newest first.
func (s *Service) Notifications() []models.Notification {
	s.notifMu.RLock()
	defer s.notifMu.RUnlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}
