// Package cli implements the kregistry command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/config"
	logpkg "github.com/fredesa/knowledge-registry/internal/logger"
	"github.com/fredesa/knowledge-registry/internal/version"
)

var (
	configPath string
	envFiles   []string
)

var rootCmd = &cobra.Command{
	Use:   version.Name,
	Short: "Federal proposal knowledge registry",
	Long: `kregistry answers free-text questions about federal proposal work with a
ranked list of authoritative sources drawn from a curated catalog.

Configuration is read from config/<ENV>.yaml (ENV defaults to "local") or
from the file given with --config. Variables in .env are loaded first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return config.LoadDotEnv(envFiles...)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (default config/<ENV>.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads --config when set, otherwise the file for ENV.
func loadConfig() (config.Config, string, error) {
	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, env, fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}

func newLogger(env, level string) (*zap.Logger, error) {
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}
