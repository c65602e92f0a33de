// Package gaps persists knowledge gaps in Redis: a per-topic counter plus a capped event log.
package gaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fredesa/knowledge-registry/internal/db"
	"github.com/fredesa/knowledge-registry/internal/domain/gap"
)

const (
	countPrefix = "kregistry:gaps:count:"
	eventsKey   = "kregistry:gaps:recent"
)

// Defaults for retention and log length.
const (
	DefaultRetention = 30 * 24 * time.Hour
	DefaultMaxEvents = 1000
)

// store is the consumer interface for gap operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	LPush(ctx context.Context, key string, values ...[]byte) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	LRem(ctx context.Context, key string, count int64, value []byte) (int64, error)
	Del(ctx context.Context, keys ...string) (int64, error)
}

// Store implements GapRecorder and the gap listing store.
type Store struct {
	store     store
	retention time.Duration
	maxEvents int
}

// New creates a gap store. Non-positive values select the defaults.
func New(s store, retention time.Duration, maxEvents int) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Store{store: s, retention: retention, maxEvents: maxEvents}
}

type event struct {
	Query       string    `json:"query"`
	Keywords    []string  `json:"keywords"`
	ResultCount int       `json:"result_count"`
	DetectedAt  time.Time `json:"detected_at"`
}

// Record counts the gap topic and appends the event to the capped log.
func (s *Store) Record(ctx context.Context, g gap.Gap) error {
	if key := g.Key(); key != "" {
		ck := countPrefix + key
		if err := s.store.IncrBy(ctx, ck, 1); err != nil {
			return fmt.Errorf("gap INCRBY %s: %w", ck, err)
		}
		// TTL only on first sighting, so the window is not reset on repeats.
		if err := s.store.Expire(ctx, ck, s.retention, true); err != nil {
			return fmt.Errorf("gap EXPIRE %s: %w", ck, err)
		}
	}

	data, err := json.Marshal(event(g))
	if err != nil {
		return fmt.Errorf("marshal gap: %w", err)
	}
	if err := s.store.LPush(ctx, eventsKey, data); err != nil {
		return fmt.Errorf("gap LPUSH: %w", err)
	}
	if err := s.store.LTrim(ctx, eventsKey, 0, int64(s.maxEvents-1)); err != nil {
		return fmt.Errorf("gap LTRIM: %w", err)
	}
	return nil
}

// Recent returns up to limit gaps, newest first. Undecodable entries are skipped.
func (s *Store) Recent(ctx context.Context, limit int) ([]gap.Gap, error) {
	if limit <= 0 {
		return []gap.Gap{}, nil
	}
	items, err := s.store.LRange(ctx, eventsKey, 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("gap LRANGE: %w", err)
	}
	out := make([]gap.Gap, 0, len(items))
	for _, it := range items {
		var e event
		if err := json.Unmarshal(it, &e); err != nil {
			continue
		}
		out = append(out, gap.Gap(e))
	}
	return out, nil
}

// Occurrences returns how often the topic key was recorded within retention.
func (s *Store) Occurrences(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, nil
	}
	data, err := s.store.Get(ctx, countPrefix+key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("gap GET %s: %w", key, err)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("gap GET %s parse: %w", key, err)
	}
	return n, nil
}

// Resolve drops the topic counter and every logged event for key.
// It reports how many events were removed and whether the counter existed.
func (s *Store) Resolve(ctx context.Context, key string) (removed int, counted bool, err error) {
	if key == "" {
		return 0, false, nil
	}
	items, err := s.store.LRange(ctx, eventsKey, 0, -1)
	if err != nil {
		return 0, false, fmt.Errorf("gap LRANGE: %w", err)
	}
	seen := make(map[string]bool)
	for _, it := range items {
		var e event
		if json.Unmarshal(it, &e) != nil || gap.Gap(e).Key() != key || seen[string(it)] {
			continue
		}
		seen[string(it)] = true
		n, err := s.store.LRem(ctx, eventsKey, 0, it)
		if err != nil {
			return removed, false, fmt.Errorf("gap LREM: %w", err)
		}
		removed += int(n)
	}

	n, err := s.store.Del(ctx, countPrefix+key)
	if err != nil {
		return removed, false, fmt.Errorf("gap DEL %s: %w", key, err)
	}
	return removed, n > 0, nil
}
