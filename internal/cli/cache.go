package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/engine/cache"
)

// openCacheForMaintenance opens the cache directory even when caching is
// disabled in the configuration.
func openCacheForMaintenance() (*cache.FileStore, error) {
	cfg := config.GetGlobalConfig()
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.NewFileStore(dir, true, cfg.Cache.TTLSeconds, cfg.Cache.MaxSizeMB)
}

// NewCacheStatsCmd creates the cache stats command.
func NewCacheStatsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache location, size and entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCacheForMaintenance()
			if err != nil {
				return err
			}
			st, err := store.Stats()
			if err != nil {
				return err
			}
			if output == "json" {
				return writeJSONTo(cmd.OutOrStdout(), st)
			}

			enabled := "enabled"
			if !config.GetGlobalConfig().Cache.Enabled {
				enabled = "disabled"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Directory: %s (%s)\n", st.Directory, enabled)
			fmt.Fprintf(out, "Entries:   %s (%s expired)\n", printer.Sprintf("%d", st.Entries), printer.Sprintf("%d", st.Expired))
			fmt.Fprintf(out, "Size:      %s\n", formatBytes(st.SizeBytes))
			fmt.Fprintf(out, "TTL:       %s\n", cache.FormatDuration(st.TTL))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	return cmd
}

// NewCacheClearCmd creates the cache clear command.
func NewCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCacheForMaintenance()
			if err != nil {
				return err
			}
			removed, err := store.Clear()
			if err != nil {
				return err
			}
			cmd.Printf("Removed %s\n", printer.Sprintf("%d cache entries", removed))
			return nil
		},
	}
}

// NewCachePruneCmd creates the cache prune command.
func NewCachePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired entries and enforce the size budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCacheForMaintenance()
			if err != nil {
				return err
			}
			removed, err := store.Prune()
			if err != nil {
				return err
			}
			cmd.Printf("Removed %s\n", printer.Sprintf("%d cache entries", removed))
			return nil
		},
	}
}
