package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/config"
	chiTransport "github.com/fredesa/knowledge-registry/internal/transport/chi"
	mcpTransport "github.com/fredesa/knowledge-registry/internal/transport/mcp"
	"github.com/fredesa/knowledge-registry/internal/version"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API: tool endpoints under /tools, the REST API under
/api/v1, /stats, /health and /metrics. When mcp.enabled is set the MCP
streamable HTTP endpoint is mounted at mcp.path.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (overrides http.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.HTTP.Port = servePort
	}

	logger, err := newLogger(env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting registry API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("gaps", cfg.Gaps.Enabled),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	handler, err := newHTTPHandler(a, &cfg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// newHTTPHandler builds the chi router with optional rate limiting and MCP mount.
func newHTTPHandler(a *app, cfg *config.Config) (http.Handler, error) {
	var gaps chiTransport.GapManager
	if a.gaps != nil {
		gaps = a.gaps
	}
	server := chiTransport.NewServer(a.search, a.catalog, gaps, a.health, a.logger)

	opts := chiTransport.RouterOptions{APIKeys: cfg.Auth.APIKeys}
	if cfg.RateLimit.Enabled {
		opts.Limiter = chiTransport.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	if cfg.MCP.Enabled {
		mcpSrv, err := newMCPServer(a)
		if err != nil {
			return nil, err
		}
		opts.MCP = mcpSrv.Handler()
		opts.MCPPath = cfg.MCP.Path
	}
	return chiTransport.NewRouter(server, opts, a.logger), nil
}

func newMCPServer(a *app) (*mcpTransport.Server, error) {
	ports := &mcpTransport.Ports{Search: a.search, Catalog: a.catalog}
	if a.gaps != nil {
		ports.Gaps = a.gaps
	}
	srv, err := mcpTransport.NewServer(ports, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create mcp server: %w", err)
	}
	return srv, nil
}
