package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/piiredact/internal/db"
)

// PushCapped prepends value to a list and trims it to maxLen elements,
// in a single DoMulti round-trip.
func (s *Store) PushCapped(ctx context.Context, key string, value []byte, maxLen int64) error {
	if maxLen <= 0 {
		return fmt.Errorf("maxLen must be positive, got %d", maxLen)
	}
	cmds := []rueidis.Completed{
		s.b().Lpush().Key(key).Element(rueidis.BinaryString(value)).Build(),
		s.b().Ltrim().Key(key).Start(0).Stop(maxLen - 1).Build(),
	}
	ops := []string{db.OpLPush, db.OpLTrim}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: ops[i], Err: err}
		}
	}
	return nil
}

// LRange returns list elements between start and stop, inclusive.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	cmd := s.b().Lrange().Key(key).Start(start).Stop(stop).Build()
	items, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	return items, nil
}
