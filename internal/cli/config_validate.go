package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/sagequery/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration (global file, project overlay and
environment overrides) for semantic correctness.

This includes:
- config_version compatibility
- Server names are present and unique, URLs are absolute http(s) URLs
- default_server names a configured server
- Page size, cache TTL and other numeric ranges
- Output format and logging settings`,
		Example: `  # Validate current configuration
  sagequery config validate

  # Validate and show detailed information
  sagequery config validate --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	if err := cfg.Validate(); err != nil {
		cmd.PrintErrln("Configuration errors:")
		for _, e := range unwrapJoined(err) {
			cmd.PrintErrf("  - %s\n", e.Error())
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("✅ Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}
	return nil
}

// unwrapJoined splits an errors.Join result into its parts.
func unwrapJoined(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	if path := cfg.Path(); path != "" {
		cmd.Printf("  Config file: %s\n", path)
	}
	cmd.Printf("  Default server: %s\n", cfg.DefaultServer)
	cmd.Printf("  Servers: %d\n", len(cfg.Servers))
	for _, s := range cfg.Servers {
		cmd.Printf("    - %s (%s)\n", s.Name, s.URL)
	}
	cmd.Printf("  Page size: %d\n", cfg.Pager.PageSize)
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Cache: %t (ttl %ds)\n", cfg.Cache.Enabled, cfg.Cache.TTLSeconds)
	cmd.Printf("  History: %t (max %d entries)\n", cfg.History.Enabled, cfg.History.MaxEntries)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		cmd.Printf("  Log file: %s\n", cfg.Logging.File)
	}
}
