package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	HashStore
	KVStore
	ListStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based counters and fields.
type HashStore interface {
	HIncrBy(ctx context.Context, key, field string, val int64) (int64, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// ListStore provides capped list operations, newest element first.
type ListStore interface {
	PushCapped(ctx context.Context, key string, value []byte, maxLen int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}
