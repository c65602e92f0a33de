package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/config"
	"github.com/fredesa/knowledge-registry/internal/db/postgres"
	dbRedis "github.com/fredesa/knowledge-registry/internal/db/redis"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/metrics"
	catalogrepo "github.com/fredesa/knowledge-registry/internal/repository/catalog"
	"github.com/fredesa/knowledge-registry/internal/repository/catalogcache"
	gapsrepo "github.com/fredesa/knowledge-registry/internal/repository/gaps"
	cataloguc "github.com/fredesa/knowledge-registry/internal/usecase/catalog"
	gapuc "github.com/fredesa/knowledge-registry/internal/usecase/gap"
	healthuc "github.com/fredesa/knowledge-registry/internal/usecase/health"
	ingestuc "github.com/fredesa/knowledge-registry/internal/usecase/ingest"
	searchuc "github.com/fredesa/knowledge-registry/internal/usecase/search"
)

// app is the composition root shared by serve, mcp, query and ingest.
type app struct {
	db      *postgres.Client
	cache   *dbRedis.Store
	repo    *catalogrepo.Repo
	search  *searchuc.Service
	catalog *cataloguc.Service
	gaps    *gapuc.Service
	health  *healthuc.Service
	ingest  *ingestuc.Service
	logger  *zap.Logger
}

func searchConfig(cfg *config.Config) searchuc.Config {
	sc := searchuc.Config{
		Policy: request.Policy{
			DefaultMinAuthority: cfg.Search.DefaultMinAuthority,
			DefaultLimit:        cfg.Search.DefaultLimit,
			MaxLimit:            cfg.Search.MaxLimit,
			StrictFilters:       cfg.Search.Strict(),
		},
	}
	if cfg.Gaps.Enabled {
		sc.MinCoverage = cfg.Gaps.MinCoverage
	}
	return sc
}

func postgresConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
	}
}

// buildApp connects to Postgres (and Redis when enabled) and wires every service.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterSearchMetrics()

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	pg, err := postgres.New(ctx, postgresConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect catalog database: %w", err)
	}
	if err := pg.WaitForReady(ctx, readiness); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("catalog database not ready: %w", err)
	}
	logger.Info("Connected to catalog database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
	)

	a := &app{db: pg, repo: catalogrepo.New(pg), logger: logger}

	var (
		candidates  searchuc.Catalog = a.repo
		gapRecorder searchuc.GapRecorder
		cachePinger healthuc.CachePinger
		cached      *catalogcache.Catalog
	)

	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create cache client: %w", err)
		}
		a.cache = store
		if err := store.WaitForReady(ctx, readiness); err != nil {
			a.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))

		cached = catalogcache.New(a.repo, store, cfg.CacheTTL(), metrics.CatalogCacheTotal, logger)
		candidates = cached
		cachePinger = store

		if cfg.Gaps.Enabled {
			gs := gapsrepo.New(store, cfg.GapRetention(), cfg.Gaps.MaxEvents)
			gapRecorder = gs
			a.gaps = gapuc.New(gs, a.repo, cfg.Gaps.MinCoverage)
		}
	}

	a.search = searchuc.New(candidates, a.repo, gapRecorder, searchConfig(cfg), logger)
	a.catalog = cataloguc.New(a.repo)
	a.health = healthuc.New(pg, cachePinger)
	a.ingest = ingestuc.New(a.repo, ingestuc.Config{
		BatchSize: cfg.Ingest.BatchSize,
		PoolSize:  cfg.Ingest.PoolSize,
	}, logger)
	if cached != nil {
		a.ingest.WithCacheInvalidator(cached)
	}
	return a, nil
}

// Close releases the database and cache connections.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Close catalog database", zap.Error(err))
		}
	}
}
