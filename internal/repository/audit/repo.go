package audit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/piiredact/internal/db"
	domaudit "github.com/kailas-cloud/piiredact/internal/domain/audit"
)

// DefaultRecentLimit is the number of recent records kept when none is configured.
const DefaultRecentLimit = 5

// store is the consumer interface for the audit log (ISP).
type store interface {
	HIncrBy(ctx context.Context, key, field string, val int64) (int64, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	PushCapped(ctx context.Context, key string, value []byte, maxLen int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo persists audit records as per-kind counters plus a capped list of recent records.
type Repo struct {
	store       store
	countsKey   string
	recentKey   string
	recentLimit int64
	retention   time.Duration
}

// Option configures the audit repository.
type Option func(*Repo)

// WithRecentLimit sets how many recent records are kept. Non-positive values are ignored.
func WithRecentLimit(n int) Option {
	return func(r *Repo) {
		if n > 0 {
			r.recentLimit = int64(n)
		}
	}
}

// WithRetention expires the recent list after ttl of inactivity. Zero keeps it forever.
func WithRetention(ttl time.Duration) Option {
	return func(r *Repo) { r.retention = ttl }
}

// New creates an audit repository. keyPrefix namespaces both keys.
func New(s store, keyPrefix string, opts ...Option) *Repo {
	r := &Repo{
		store:       s,
		countsKey:   keyPrefix + "audit:counts",
		recentKey:   keyPrefix + "audit:recent",
		recentLimit: DefaultRecentLimit,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Save increments the counter for the record kind and pushes the record onto the recent list.
func (r *Repo) Save(ctx context.Context, rec domaudit.Record) error {
	if _, err := r.store.HIncrBy(ctx, r.countsKey, string(rec.Kind), 1); err != nil {
		return fmt.Errorf("audit HINCRBY %s: %w", r.countsKey, err)
	}

	data, err := marshalRecord(rec)
	if err != nil {
		return err
	}
	if err := r.store.PushCapped(ctx, r.recentKey, data, r.recentLimit); err != nil {
		return fmt.Errorf("audit LPUSH %s: %w", r.recentKey, err)
	}

	if r.retention > 0 {
		if err := r.store.Expire(ctx, r.recentKey, r.retention, false); err != nil {
			return fmt.Errorf("audit EXPIRE %s: %w", r.recentKey, err)
		}
	}
	return nil
}

// Stats returns counters by kind and the most recent records, newest first.
func (r *Repo) Stats(ctx context.Context) (domaudit.Stats, error) {
	counts, err := r.store.HGetAll(ctx, r.countsKey)
	if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return domaudit.Stats{}, fmt.Errorf("audit HGETALL %s: %w", r.countsKey, err)
	}

	var st domaudit.Stats
	st.Text = parseCount(counts[string(domaudit.Text)])
	st.Documents = parseCount(counts[string(domaudit.Document)])
	st.Total = st.Text + st.Documents

	raw, err := r.store.LRange(ctx, r.recentKey, 0, r.recentLimit-1)
	if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return domaudit.Stats{}, fmt.Errorf("audit LRANGE %s: %w", r.recentKey, err)
	}

	st.Recent = make([]domaudit.Record, 0, len(raw))
	for _, item := range raw {
		rec, err := unmarshalRecord([]byte(item))
		if err != nil {
			// Skip entries written by an incompatible version.
			continue
		}
		st.Recent = append(st.Recent, rec)
	}
	return st, nil
}

func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
