package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/db/postgres"
	dbRedis "github.com/fredesa/knowledge-registry/internal/db/redis"
	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
	"github.com/fredesa/knowledge-registry/internal/metrics"
	catalogrepo "github.com/fredesa/knowledge-registry/internal/repository/catalog"
	"github.com/fredesa/knowledge-registry/internal/repository/catalog/memory"
	"github.com/fredesa/knowledge-registry/internal/repository/catalogcache"
	"github.com/fredesa/knowledge-registry/internal/repository/catalogfile"
	cataloguc "github.com/fredesa/knowledge-registry/internal/usecase/catalog"
	healthuc "github.com/fredesa/knowledge-registry/internal/usecase/health"
	ingestuc "github.com/fredesa/knowledge-registry/internal/usecase/ingest"
	searchuc "github.com/fredesa/knowledge-registry/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCacheTTL         = 5 * time.Minute
)

type searchUseCase interface {
	Query(ctx context.Context, in request.Input) (result.Result, error)
}

type catalogUseCase interface {
	Source(ctx context.Context, id string) (source.Source, error)
	Categories(ctx context.Context) ([]category.Category, error)
	Stats(ctx context.Context) (stats.Catalog, error)
}

// Client is the registry SDK entry point. It is safe for concurrent use.
type Client struct {
	searchSvc  searchUseCase
	catalogSvc catalogUseCase
	healthSvc  healthUseCase
	backend    Backend
	closers    []func()
	obs        *observer
}

// New creates a Client. Exactly one of WithPostgres or WithCatalogFile is required.
// ctx bounds the initial connection and catalog load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout, cacheTTL: defaultCacheTTL}
	for _, o := range opts {
		o.apply(cfg)
	}

	switch {
	case cfg.dsn == "" && cfg.catalogFile == "":
		return nil, errors.New("registry: catalog source required (use WithPostgres or WithCatalogFile)")
	case cfg.dsn != "" && cfg.catalogFile != "":
		return nil, errors.New("registry: WithPostgres and WithCatalogFile are mutually exclusive")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	if cfg.catalogFile != "" {
		return newFileClient(ctx, cfg, obs)
	}
	return newPostgresClient(ctx, cfg, obs)
}

func searchConfig(cfg *clientConfig) searchuc.Config {
	sc := searchuc.DefaultConfig()
	if cfg.strict != nil {
		sc.Policy.StrictFilters = *cfg.strict
	}
	sc.MinCoverage = 0
	return sc
}

func newFileClient(ctx context.Context, cfg *clientConfig, obs *observer) (*Client, error) {
	doc, err := catalogfile.Load(cfg.catalogFile)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	store := memory.New()
	if _, err := ingestuc.New(store, ingestuc.Config{}, zap.NewNop()).Run(ctx, doc); err != nil {
		return nil, fmt.Errorf("registry: load catalog: %w", err)
	}
	return &Client{
		searchSvc:  searchuc.New(store, store, nil, searchConfig(cfg), zap.NewNop()),
		catalogSvc: cataloguc.New(store),
		healthSvc:  healthuc.New(nopPinger{}, nil),
		backend:    BackendCatalogFile,
		obs:        obs,
	}, nil
}

func newPostgresClient(ctx context.Context, cfg *clientConfig, obs *observer) (*Client, error) {
	pg, err := postgres.New(ctx, postgres.Config{}, postgres.WithDSN(cfg.dsn))
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if err := pg.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("registry: database not ready: %w", err)
	}

	c := &Client{backend: BackendPostgres, obs: obs}
	c.closers = append(c.closers, func() { _ = pg.Close() })

	repo := catalogrepo.New(pg)
	var (
		candidates  searchuc.Catalog = repo
		cachePinger healthuc.CachePinger
	)
	if cfg.redisAddr != "" {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.redisAddr},
			Password: cfg.redisPassword,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("registry: create redis store: %w", err)
		}
		c.closers = append(c.closers, store.Close)
		if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			c.Close()
			return nil, fmt.Errorf("registry: redis not ready: %w", err)
		}
		candidates = catalogcache.New(repo, store, cfg.cacheTTL, metrics.CatalogCacheTotal, zap.NewNop())
		cachePinger = store
	}

	c.searchSvc = searchuc.New(candidates, repo, nil, searchConfig(cfg), zap.NewNop())
	c.catalogSvc = cataloguc.New(repo)
	c.healthSvc = healthuc.New(pg, cachePinger)
	return c, nil
}

// Close releases all resources. Closers run in reverse order.
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Query runs a knowledge query. Zero results is not an error.
func (c *Client) Query(ctx context.Context, q Query) (_ Result, err error) {
	start := time.Now()
	var count int
	defer func() { c.obs.observe("query", start, err, "results", count) }()

	res, err := c.searchSvc.Query(ctx, q.toInput())
	if err != nil {
		return Result{}, fmt.Errorf("query: %w", err)
	}
	count = res.Count()
	return fromResult(&res), nil
}

// Source returns a source by id, including inactive sources.
func (c *Client) Source(ctx context.Context, id string) (_ Source, err error) {
	start := time.Now()
	defer func() { c.obs.observe("source.get", start, err) }()

	src, err := c.catalogSvc.Source(ctx, id)
	if err != nil {
		return Source{}, fmt.Errorf("get source: %w", err)
	}
	return fromSource(&src), nil
}

// Categories lists categories holding active sources.
func (c *Client) Categories(ctx context.Context) (_ []Category, err error) {
	start := time.Now()
	defer func() { c.obs.observe("categories.list", start, err) }()

	cats, err := c.catalogSvc.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, len(cats))
	for i := range cats {
		out[i] = fromCategory(&cats[i])
	}
	return out, nil
}

// Stats aggregates the active catalog.
func (c *Client) Stats(ctx context.Context) (_ Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	st, err := c.catalogSvc.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return fromStats(st), nil
}

// nopPinger reports an in-memory catalog as always reachable.
type nopPinger struct{}

func (nopPinger) Ping(context.Context) error { return nil }
