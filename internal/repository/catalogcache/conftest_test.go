package catalogcache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/db"
	"github.com/fredesa/knowledge-registry/internal/domain/search/filter"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/source/dimension"
)

type mockCatalog struct {
	sources []source.Source
	err     error
	calls   int
}

func (m *mockCatalog) FetchCandidates(_ context.Context, _ filter.Predicate) ([]source.Source, error) {
	m.calls++
	return m.sources, m.err
}

// mockKVStore implements the consumer interface for tests.
// The generation counter is kept apart from getFn so entry lookups stay simple.
type mockKVStore struct {
	getFn  func(ctx context.Context, key string) ([]byte, error)
	setFn  func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	gen    []byte
	genErr error
	incrBy error
}

func (m *mockKVStore) IncrBy(_ context.Context, key string, val int64) error {
	if m.incrBy != nil {
		return m.incrBy
	}
	if key != generationKey {
		return nil
	}
	n, _ := strconv.ParseInt(string(m.gen), 10, 64)
	m.gen = []byte(strconv.FormatInt(n+val, 10))
	return nil
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == generationKey {
		if m.genErr != nil {
			return nil, m.genErr
		}
		if m.gen == nil {
			return nil, db.ErrKeyNotFound
		}
		return m.gen, nil
	}
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func testSource(t *testing.T) source.Source {
	t.Helper()
	s, err := source.New(source.Attrs{
		ID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", Name: "FAR Part 15",
		CategoryName: "Federal_Contracting", CategoryDisplay: "Federal Contracting",
		Dimension: dimension.Practice, Authority: 90, Quality: 87.5, Active: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newTestCatalog(t *testing.T, inner *mockCatalog) (*Catalog, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, time.Minute, nil, zap.NewNop()), ms
}
