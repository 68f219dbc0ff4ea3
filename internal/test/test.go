package test

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"webhub-checker/internal/store"
)

// MockTaskEnqueuer is a mock implementation of tasks.TaskEnqueuer for testing.
type MockTaskEnqueuer struct {
	mu            sync.Mutex
	EnqueuedTasks []*asynq.Task
	Err           error
}

func (m *MockTaskEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.EnqueuedTasks = append(m.EnqueuedTasks, task)
	return &asynq.TaskInfo{ID: "test-task-id", Queue: "default"}, nil
}

func (m *MockTaskEnqueuer) Tasks() []*asynq.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*asynq.Task(nil), m.EnqueuedTasks...)
}

// MemoryStore is an in-memory store.Store. Setting PutErr, DeleteErr or
// ListErr makes the matching operation fail.
type MemoryStore struct {
	mu        sync.Mutex
	data      map[string]map[string][]byte
	PutErr    error
	DeleteErr error
	ListErr   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, namespace, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[namespace][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Put(ctx context.Context, namespace, id string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	if m.data[namespace] == nil {
		m.data[namespace] = make(map[string][]byte)
	}
	m.data[namespace][id] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, namespace, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.data[namespace], id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, namespace string) ([]store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	entries := make([]store.Entry, 0, len(m.data[namespace]))
	for id, v := range m.data[namespace] {
		entries = append(entries, store.Entry{Namespace: namespace, ID: id, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (m *MemoryStore) Len(namespace string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data[namespace])
}

func (m *MemoryStore) Has(namespace, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[namespace][id]
	return ok
}

func (m *MemoryStore) Close() error { return nil }

// NewSQLiteStore opens a throwaway sqlite store under t.TempDir().
func NewSQLiteStore(t *testing.T) *store.SQLStore {
	s, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "webhub.db"))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a sqlite store", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
