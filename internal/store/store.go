// Package store provides the durable key-value persistence used for
// subscriptions and notifications.
package store

import (
	"context"
	"errors"
)

const (
	NamespaceSubscriptions = "subscriptions"
	NamespaceNotifications = "notifications"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("store: key not found")

// Entry is one stored record.
type Entry struct {
	Namespace string
	ID        string
	Value     []byte
}

// Store is an ordered key-value store keyed by (namespace, id).
// Delete of a missing key is not an error. List returns every entry of a
// namespace ordered by id.
type Store interface {
	// Get completes the key-value contract. The service itself only needs
	// Put, Delete and List.
	Get(ctx context.Context, namespace, id string) ([]byte, error)
	Put(ctx context.Context, namespace, id string, value []byte) error
	Delete(ctx context.Context, namespace, id string) error
	List(ctx context.Context, namespace string) ([]Entry, error)
	Close() error
}
