package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/piiredact/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Connection defaults.
const (
	DefaultClientName   = "piiredact"
	DefaultDialTimeout  = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second

	readyBackoffMin = 100 * time.Millisecond
	readyBackoffMax = 2 * time.Second
)

// Config holds connection parameters for a Redis or Valkey server.
// Addrs may carry a redis:// scheme.
type Config struct {
	Addrs        []string
	Username     string
	Password     string
	DB           int
	ClientName   string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Store implements db.Store via rueidis. Valkey speaks the same protocol.
type Store struct {
	client rueidis.Client
}

// NewStore creates a store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	opt, err := clientOption(cfg)
	if err != nil {
		return nil, err
	}

	client, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

func clientOption(cfg Config) (rueidis.ClientOption, error) {
	addrs := make([]string, 0, len(cfg.Addrs))
	for _, a := range cfg.Addrs {
		a = strings.TrimPrefix(strings.TrimSpace(a), "redis://")
		if a != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return rueidis.ClientOption{}, errors.New("addrs is required")
	}

	if cfg.ClientName == "" {
		cfg.ClientName = DefaultClientName
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	return rueidis.ClientOption{
		InitAddress:      addrs,
		Username:         cfg.Username,
		Password:         cfg.Password,
		SelectDB:         cfg.DB,
		ClientName:       cfg.ClientName,
		Dialer:           net.Dialer{Timeout: cfg.DialTimeout},
		ConnWriteTimeout: cfg.WriteTimeout,
		// Audit counters and cached entities are read with plain GET/HGETALL;
		// server-assisted client caching is not used.
		DisableCache: true,
	}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings until the store responds or timeout expires, backing off
// between attempts. The timeout error carries the last ping failure.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wait := readyBackoffMin
	for {
		lastErr := s.Ping(ctx)
		if lastErr == nil {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("timeout waiting for database: %w", errors.Join(ctx.Err(), lastErr))
		case <-timer.C:
		}
		wait = min(wait*2, readyBackoffMax)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
