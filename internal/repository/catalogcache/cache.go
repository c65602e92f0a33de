// Package catalogcache caches candidate sets in a key-value store.
package catalogcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/db"
	"github.com/fredesa/knowledge-registry/internal/domain/search/filter"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
)

const (
	keyPrefix = "kregistry:candidates:"
	// generationKey holds a counter that ingestion bumps; it is part of every entry key.
	generationKey = keyPrefix + "generation"
)

// catalog is the decorated collaborator.
type catalog interface {
	FetchCandidates(ctx context.Context, p filter.Predicate) ([]source.Source, error)
}

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
}

// Catalog serves candidate sets from cache, falling through to inner on miss.
type Catalog struct {
	inner      catalog
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), may be nil.
func New(inner catalog, s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Catalog {
	return &Catalog{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// FetchCandidates returns cached candidates or queries the inner catalog.
func (c *Catalog) FetchCandidates(ctx context.Context, p filter.Predicate) ([]source.Source, error) {
	gen, ok := c.generation(ctx)
	if !ok {
		c.incCache("miss")
		return c.inner.FetchCandidates(ctx, p)
	}
	key := cacheKey(gen, p)

	if cached, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return cached, nil
	}
	c.incCache("miss")

	sources, err := c.inner.FetchCandidates(ctx, p)
	if err != nil {
		return nil, err
	}
	c.putToCache(ctx, key, sources)
	return sources, nil
}

func (c *Catalog) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// Invalidate retires every cached candidate set by bumping the generation.
// Entries of older generations are never read again and expire by TTL.
func (c *Catalog) Invalidate(ctx context.Context) error {
	if err := c.store.IncrBy(ctx, generationKey, 1); err != nil {
		return fmt.Errorf("bump candidate cache generation: %w", err)
	}
	return nil
}

// generation reads the current generation. It reports false when the store
// cannot be read, and the cache is then bypassed for the call.
func (c *Catalog) generation(ctx context.Context) (int64, bool) {
	data, err := c.store.Get(ctx, generationKey)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return 0, true
	case err != nil:
		c.logger.Warn("Failed to read candidate cache generation", zap.Error(err))
		return 0, false
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		c.logger.Warn("Invalid candidate cache generation", zap.ByteString("value", data))
		return 0, false
	}
	return gen, true
}

func cacheKey(gen int64, p filter.Predicate) string {
	h := sha256.Sum256([]byte(p.Key()))
	return keyPrefix + strconv.FormatInt(gen, 10) + ":" + hex.EncodeToString(h[:])
}

func (c *Catalog) getFromCache(ctx context.Context, key string) ([]source.Source, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached candidates", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	sources, err := decode(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached candidates", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return sources, true
}

func (c *Catalog) putToCache(ctx context.Context, key string, sources []source.Source) {
	data, err := encode(sources)
	if err != nil {
		c.logger.Warn("Failed to encode candidates", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache candidates", zap.String("key", key), zap.Error(err))
	}
}

type entry struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	URL             string    `json:"url,omitempty"`
	CategoryName    string    `json:"category_name"`
	CategoryDisplay string    `json:"category_display,omitempty"`
	Dimension       string    `json:"dimension"`
	Authority       int       `json:"authority"`
	Quality         float64   `json:"quality"`
	WordCount       int       `json:"word_count,omitempty"`
	SourceType      string    `json:"source_type,omitempty"`
	Difficulty      string    `json:"difficulty,omitempty"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func encode(sources []source.Source) ([]byte, error) {
	entries := make([]entry, len(sources))
	for i := range sources {
		a := sources[i].Attrs()
		entries[i] = entry{
			ID: a.ID, Name: a.Name, Description: a.Description, URL: a.URL,
			CategoryName: a.CategoryName, CategoryDisplay: a.CategoryDisplay,
			Dimension: string(a.Dimension), Authority: a.Authority, Quality: a.Quality,
			WordCount: a.WordCount, SourceType: a.SourceType, Difficulty: a.Difficulty,
			Active: a.Active, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
		}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]source.Source, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	out := make([]source.Source, len(entries))
	for i, e := range entries {
		out[i] = source.Reconstruct(source.Attrs{
			ID: e.ID, Name: e.Name, Description: e.Description, URL: e.URL,
			CategoryName: e.CategoryName, CategoryDisplay: e.CategoryDisplay,
			Dimension: dimension.Dimension(e.Dimension), Authority: e.Authority, Quality: e.Quality,
			WordCount: e.WordCount, SourceType: e.SourceType, Difficulty: e.Difficulty,
			Active: e.Active, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
		})
	}
	return out, nil
}
