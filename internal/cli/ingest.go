package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/repository/catalogfile"
	ingestuc "github.com/fredesa/knowledge-registry/internal/usecase/ingest"
)

var (
	ingestInitSchema bool
	ingestDryRun     bool

	// timeNow stamps dry-run normalization.
	timeNow = time.Now
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <catalog.yaml>",
	Short: "Load a catalog file into the database",
	Long: `Normalizes a catalog YAML file (authority tiers, dimensions, stable ids)
and upserts its categories and sources into the catalog database.
Re-running with the same file is idempotent.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestInitSchema, "init-schema", false, "create tables and indexes before loading")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "normalize and report without writing")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	doc, err := catalogfile.Load(args[0])
	if err != nil {
		return err
	}

	if ingestDryRun {
		cat := ingestuc.Normalize(doc, timeNow())
		return writeIngestReport(cmd.OutOrStdout(), ingestuc.Report{
			Total:      len(doc.Sources),
			Categories: len(cat.Categories),
			Rejected:   cat.Rejected,
		}, len(cat.Sources))
	}

	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	a, err := buildApp(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if ingestInitSchema {
		if err := a.db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
		logger.Info("Schema ensured")
	}

	rep, err := a.ingest.Run(ctx, doc)
	if werr := writeIngestReport(cmd.OutOrStdout(), rep, rep.Written); werr != nil {
		logger.Warn("Write report", zap.Error(werr))
	}
	if err != nil {
		return fmt.Errorf("ingest %s: %w", args[0], err)
	}
	return nil
}

func writeIngestReport(w io.Writer, rep ingestuc.Report, accepted int) error {
	if _, err := fmt.Fprintf(w, "records: %d  accepted: %d  written: %d  failed: %d  rejected: %d  categories: %d\n",
		rep.Total, accepted, rep.Written, rep.Failed, len(rep.Rejected), rep.Categories); err != nil {
		return err
	}
	for _, r := range rep.Rejected {
		if _, err := fmt.Fprintf(w, "  rejected %s: %s\n", r.RecordID, r.Reason); err != nil {
			return err
		}
	}
	return nil
}
