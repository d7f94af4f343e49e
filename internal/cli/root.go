package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/engine/cache"
	"github.com/rshade/sagequery/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the sagequery CLI.
// It loads configuration, wires up logging, and registers the subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "sagequery",
		Short:         "Query SaGe SPARQL servers and page through the results",
		Long:          "sagequery runs SPARQL queries against SaGe servers and shows the results one page at a time.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cacheTTL, _ := cmd.Flags().GetInt("cache-ttl")
			if cacheTTL < 0 {
				return fmt.Errorf("cache-ttl must be >= 0, got %d", cacheTTL)
			}

			if err := loadConfig(cmd); err != nil {
				return err
			}

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if logResult != nil {
				return logResult.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().
		Int("cache-ttl", 0, "cache TTL in seconds (0 = use config default, overrides config file and env var)")
	cmd.PersistentFlags().String("config", "", "configuration file (default ~/.sagequery/config.yaml)")
	cmd.PersistentFlags().String("project-dir", "", "project directory holding a .sagequery overlay")

	cmd.AddCommand(
		NewQueryCmd(), NewUICmd(), newServersCmd(), newHistoryCmd(),
		newCacheCmd(), newConfigCmd(), NewServeCmd(), NewVersionCmd(),
	)
	return cmd
}

const rootCmdExample = `  # Run a query and print the first page as a table
  sagequery query --page 1 -q 'SELECT * WHERE { ?s ?p ?o } LIMIT 100'

  # Run a query stored in a file against a named server and export CSV
  sagequery query --server nantes --file query.rq --output csv --out-file results.csv

  # Open the interactive pager
  sagequery ui

  # List the graphs hosted by every configured server
  sagequery servers graphs

  # Serve the JSON API
  sagequery serve --addr 127.0.0.1:8080

  # Initialize configuration
  sagequery config init`

// loadConfig resolves the effective configuration for this invocation and
// installs it as the global config. Precedence, lowest first: defaults, global
// file (or --config), project overlay, .env and environment, flags.
func loadConfig(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		cmd.PrintErrf("Warning: could not load .env: %v\n", err)
	}

	var cfg *config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		flagDir, _ := cmd.Flags().GetString("project-dir")
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		projectDir := config.ResolveProjectDir(cmd.Context(), flagDir, wd)
		cfg = config.NewWithProjectDir(cmd.Context(), projectDir)
	}

	if ttl, _ := cmd.Flags().GetInt("cache-ttl"); ttl > 0 {
		if _, err := cache.NewTTLConfig(ttl); err != nil {
			return fmt.Errorf("--cache-ttl: %w", err)
		}
		cfg.Cache.TTLSeconds = ttl
	}

	config.SetGlobalConfig(cfg)
	return nil
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd(), NewConfigShowCmd())
	return cmd
}

// newServersCmd creates the servers command group.
func newServersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "servers", Short: "Inspect configured SaGe servers"}
	cmd.AddCommand(NewServersListCmd(), NewServersGraphsCmd())
	return cmd
}

// newHistoryCmd creates the history command group.
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "history", Short: "Browse previously executed queries"}
	cmd.AddCommand(NewHistoryListCmd(), NewHistoryShowCmd(), NewHistoryClearCmd())
	return cmd
}

// newCacheCmd creates the cache command group.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Manage the result cache"}
	cmd.AddCommand(NewCacheStatsCmd(), NewCacheClearCmd(), NewCachePruneCmd())
	return cmd
}
