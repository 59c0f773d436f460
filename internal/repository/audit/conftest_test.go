package audit

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// memStore is an in-memory implementation of the consumer interface.
type memStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	lists   map[string][]string
	expires map[string]time.Duration

	hincrErr error
	pushErr  error
	rangeErr error
}

func newMemStore() *memStore {
	return &memStore{
		hashes:  map[string]map[string]string{},
		lists:   map[string][]string{},
		expires: map[string]time.Duration{},
	}
}

func (m *memStore) HIncrBy(_ context.Context, key, field string, val int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hincrErr != nil {
		return 0, m.hincrErr
	}
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	cur, _ := strconv.ParseInt(h[field], 10, 64)
	cur += val
	h[field] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) PushCapped(_ context.Context, key string, value []byte, maxLen int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushErr != nil {
		return m.pushErr
	}
	l := append([]string{string(value)}, m.lists[key]...)
	if int64(len(l)) > maxLen {
		l = l[:maxLen]
	}
	m.lists[key] = l
	return nil
}

func (m *memStore) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rangeErr != nil {
		return nil, m.rangeErr
	}
	l := m.lists[key]
	if start >= int64(len(l)) {
		return []string{}, nil
	}
	if stop >= int64(len(l)) {
		stop = int64(len(l)) - 1
	}
	return append([]string(nil), l[start:stop+1]...), nil
}

func (m *memStore) Expire(_ context.Context, key string, ttl time.Duration, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[key] = ttl
	return nil
}

