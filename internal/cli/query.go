package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/config"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/search/summary"
	"github.com/fredesa/knowledge-registry/internal/repository/catalog/memory"
	"github.com/fredesa/knowledge-registry/internal/repository/catalogfile"
	"github.com/fredesa/knowledge-registry/internal/transport/dto"
	ingestuc "github.com/fredesa/knowledge-registry/internal/usecase/ingest"
	searchuc "github.com/fredesa/knowledge-registry/internal/usecase/search"
)

type queryFlags struct {
	dimension    string
	category     string
	minAuthority int
	limit        int
	catalogFile  string
	lenient      bool
	asJSON       bool
	asPrompt     bool
}

var qf queryFlags

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query the knowledge registry",
	Long: `Runs a free-text query and prints the ranked sources with a summary.

Sources come from the configured catalog database, or from a catalog YAML
file loaded into memory with --catalog.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringVarP(&qf.dimension, "dimension", "d", "", "theory, practice, history, current or future")
	f.StringVar(&qf.category, "category", "", "category key or display name")
	f.IntVarP(&qf.minAuthority, "min-authority", "a", 0, "minimum authority score 0-100 (0 = default 50)")
	f.IntVarP(&qf.limit, "limit", "n", 0, "maximum results 1-15 (0 = default 10)")
	f.StringVar(&qf.catalogFile, "catalog", "", "catalog YAML file to query instead of the database")
	f.BoolVar(&qf.lenient, "lenient", false, "drop unknown filters instead of failing (with --catalog)")
	f.BoolVar(&qf.asJSON, "json", false, "output the result as JSON")
	f.BoolVar(&qf.asPrompt, "prompt", false, "output sources formatted for an LLM prompt")
	queryCmd.MarkFlagsMutuallyExclusive("json", "prompt")
	rootCmd.AddCommand(queryCmd)
}

type searcher interface {
	Query(ctx context.Context, in request.Input) (result.Result, error)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, cleanup, err := openSearcher(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.Query(ctx, request.Input{
		Text:         args[0],
		Dimension:    qf.dimension,
		Category:     qf.category,
		MinAuthority: qf.minAuthority,
		Limit:        qf.limit,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case qf.asJSON:
		return writeQueryJSON(out, &res)
	case qf.asPrompt:
		_, err := fmt.Fprintln(out, summary.AgentContext(res.Sources()))
		return err
	default:
		return writeQueryText(out, &res)
	}
}

// openSearcher returns a search service over --catalog or the configured database.
func openSearcher(ctx context.Context) (searcher, func(), error) {
	if qf.catalogFile != "" {
		logger, err := newLogger(config.GetEnv(), "warn")
		if err != nil {
			return nil, nil, err
		}
		svc, err := memorySearcher(ctx, qf.catalogFile, !qf.lenient, logger)
		if err != nil {
			return nil, nil, err
		}
		return svc, func() { _ = logger.Sync() }, nil
	}

	cfg, env, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	a, err := buildApp(ctx, &cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a.search, func() {
		a.Close()
		_ = logger.Sync()
	}, nil
}

// memorySearcher ingests a catalog file into an in-memory store and searches it.
func memorySearcher(ctx context.Context, path string, strict bool, logger *zap.Logger) (*searchuc.Service, error) {
	doc, err := catalogfile.Load(path)
	if err != nil {
		return nil, err
	}
	store := memory.New()
	if _, err := ingestuc.New(store, ingestuc.Config{}, logger).Run(ctx, doc); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	cfg := searchuc.DefaultConfig()
	cfg.Policy.StrictFilters = strict
	cfg.MinCoverage = 0
	return searchuc.New(store, store, nil, cfg, logger), nil
}

func writeQueryJSON(w io.Writer, res *result.Result) error {
	data, err := json.MarshalIndent(dto.FromResult(res), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeQueryText(w io.Writer, res *result.Result) error {
	var b strings.Builder
	b.WriteString(res.Summary())
	b.WriteString("\n")
	if ignored := res.Info().IgnoredFilters; len(ignored) > 0 {
		fmt.Fprintf(&b, "Ignored filters: %s\n", strings.Join(ignored, ", "))
	}
	srcs := res.Sources()
	for i := range srcs {
		s := &srcs[i]
		fmt.Fprintf(&b, "\n[%d] %s (authority %d, quality %.0f)\n", i+1, s.Name(), s.Authority(), s.Quality())
		fmt.Fprintf(&b, "    %s | %s\n", s.CategoryLabel(), s.Dimension())
		if s.URL() != "" {
			fmt.Fprintf(&b, "    %s\n", s.URL())
		}
		if d := summary.Truncate(s.Description(), 160); d != "" {
			fmt.Fprintf(&b, "    %s\n", d)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
