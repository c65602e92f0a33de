package redis

import (
	"context"

	"github.com/fredesa/knowledge-registry/internal/db"
)

// LPush prepends values to the list at key.
func (s *Store) LPush(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	elems := make([]string, len(values))
	for i, v := range values {
		elems[i] = string(v)
	}
	return s.exec(ctx, db.OpLPush, s.b().Lpush().Key(key).Element(elems...).Build())
}

// LTrim keeps only the elements between start and stop (inclusive).
func (s *Store) LTrim(ctx context.Context, key string, start, stop int64) error {
	return s.exec(ctx, db.OpLTrim, s.b().Ltrim().Key(key).Start(start).Stop(stop).Build())
}

// LRange returns the elements between start and stop (inclusive).
// A missing key yields an empty slice.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	cmd := s.b().Lrange().Key(key).Start(start).Stop(stop).Build()
	items, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = []byte(it)
	}
	return out, nil
}

// LRem removes occurrences of value from the list at key. count 0 removes all.
func (s *Store) LRem(ctx context.Context, key string, count int64, value []byte) (int64, error) {
	cmd := s.b().Lrem().Key(key).Count(count).Element(string(value)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpLRem, Err: err}
	}
	return n, nil
}
