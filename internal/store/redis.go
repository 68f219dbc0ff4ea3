package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "webhub:"

// RedisStore keeps each namespace in one hash, keyed by id.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return NewRedisStore(client), nil
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func hashKey(namespace string) string {
	return redisKeyPrefix + namespace
}

func (s *RedisStore) Get(ctx context.Context, namespace, id string) ([]byte, error) {
	value, err := s.client.HGet(ctx, hashKey(namespace), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", namespace, id, err)
	}
	return value, nil
}

func (s *RedisStore) Put(ctx context.Context, namespace, id string, value []byte) error {
	if err := s.client.HSet(ctx, hashKey(namespace), id, value).Err(); err != nil {
		return fmt.Errorf("putting %s/%s: %w", namespace, id, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, namespace, id string) error {
	if err := s.client.HDel(ctx, hashKey(namespace), id).Err(); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", namespace, id, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, namespace string) ([]Entry, error) {
	all, err := s.client.HGetAll(ctx, hashKey(namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", namespace, err)
	}
	entries := make([]Entry, 0, len(all))
	for id, value := range all {
		entries = append(entries, Entry{Namespace: namespace, ID: id, Value: []byte(value)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
