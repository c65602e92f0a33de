package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	rawingest "github.com/fredesa/knowledge-registry/internal/domain/ingest"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/metrics"
)

// Ingestion defaults.
const (
	DefaultBatchSize = 50
	DefaultPoolSize  = 4
)

// Config sizes ingestion batches and the writer pool.
type Config struct {
	BatchSize int
	PoolSize  int
}

// Report summarizes an ingestion run.
type Report struct {
	Total      int
	Written    int
	Failed     int
	Categories int
	Rejected   []Rejection
}

// Service normalizes catalog documents and writes them in concurrent batches.
type Service struct {
	writer Writer
	cache  CacheInvalidator
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates an ingestion service.
func New(writer Writer, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{writer: writer, cfg: cfg, logger: logger, now: time.Now}
}

// WithCacheInvalidator sets the cache retired after each successful run.
func (s *Service) WithCacheInvalidator(c CacheInvalidator) *Service {
	s.cache = c
	return s
}

// Run normalizes doc, upserts categories, then sources batch by batch, and
// finally refreshes category counts. Batch failures are joined into the
// returned error; the report is always filled in.
func (s *Service) Run(ctx context.Context, doc rawingest.Document) (Report, error) {
	cat := Normalize(doc, s.now())
	rep := Report{Total: len(doc.Sources), Rejected: cat.Rejected, Categories: len(cat.Categories)}

	for _, r := range cat.Rejected {
		s.logger.Warn("Source rejected", zap.String("record", r.RecordID), zap.String("reason", r.Reason))
	}
	metrics.IngestSourcesTotal.WithLabelValues("rejected").Add(float64(len(cat.Rejected)))

	if err := s.writer.UpsertCategories(ctx, cat.Categories); err != nil {
		return rep, fmt.Errorf("upsert categories: %w", err)
	}

	written, err := s.writeBatches(ctx, cat.Sources)
	rep.Written = written
	rep.Failed = len(cat.Sources) - written
	metrics.IngestSourcesTotal.WithLabelValues("ok").Add(float64(written))
	metrics.IngestSourcesTotal.WithLabelValues("failed").Add(float64(rep.Failed))
	if err != nil {
		return rep, err
	}

	if err := s.writer.RefreshCategoryCounts(ctx); err != nil {
		return rep, fmt.Errorf("refresh category counts: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("Failed to invalidate candidate cache", zap.Error(err))
		}
	}

	s.logger.Info("Ingestion completed",
		zap.Int("total", rep.Total),
		zap.Int("written", rep.Written),
		zap.Int("rejected", len(rep.Rejected)),
		zap.Int("categories", rep.Categories),
	)
	return rep, nil
}

func (s *Service) writeBatches(ctx context.Context, sources []source.Source) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(s.cfg.PoolSize)
	if err != nil {
		return 0, fmt.Errorf("create writer pool: %w", err)
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		written int
		errs    []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for start := 0; start < len(sources); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(sources))
		batch := sources[start:end]
		offset := start

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := s.writer.UpsertSources(ctx, batch); err != nil {
				s.logger.Error("Batch upsert failed",
					zap.Int("offset", offset),
					zap.Int("size", len(batch)),
					zap.Error(err),
				)
				fail(fmt.Errorf("batch at %d: %w", offset, err))
				return
			}
			mu.Lock()
			written += len(batch)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit batch at %d: %w", offset, submitErr))
		}
	}
	wg.Wait()

	return written, errors.Join(errs...)
}
