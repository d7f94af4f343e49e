package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/history"
)

const (
	defaultHistoryListLimit = 20
	historyQueryPreview     = 60
)

// NewHistoryListCmd creates the history list command.
func NewHistoryListCmd() *cobra.Command {
	var (
		limit  int
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent queries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory(config.GetGlobalConfig())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if output == "json" {
				if entries == nil {
					entries = []history.Entry{}
				}
				return writeJSONTo(cmd.OutOrStdout(), entries)
			}
			return renderHistory(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryListLimit, "number of entries to show (0 = all)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	return cmd
}

func renderHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No queries recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, tableColumnPadding, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tSERVER\tROWS\tDURATION\tQUERY")
	for _, e := range entries {
		rows := printer.Sprintf("%d", e.Rows)
		switch {
		case e.Failed():
			rows = "error"
		case e.Cached:
			rows += " (cached)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.CreatedAt.Local().Format(time.DateTime),
			e.Server,
			rows,
			e.Duration.Round(time.Millisecond),
			queryPreview(e.Query),
		)
	}
	return tw.Flush()
}

// queryPreview collapses whitespace and shortens q to one table cell.
func queryPreview(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	r := []rune(q)
	if len(r) <= historyQueryPreview {
		return q
	}
	return string(r[:historyQueryPreview-1]) + "…"
}

// NewHistoryShowCmd creates the history show command.
func NewHistoryShowCmd() *cobra.Command {
	var queryOnly bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded query",
		Example: `  # Show an entry as YAML
  sagequery history show 01J9Z3K4V8W2Q6M0N5T7R1Y3X4

  # Re-run a recorded query
  sagequery history show 01J9Z3K4V8W2Q6M0N5T7R1Y3X4 --query-only | sagequery query --file -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(config.GetGlobalConfig())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if queryOnly {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(entry.Query, "\n"))
				return err
			}
			data, err := yaml.Marshal(entry)
			if err != nil {
				return fmt.Errorf("encoding entry: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&queryOnly, "query-only", false, "print only the query text")
	return cmd
}

// NewHistoryClearCmd creates the history clear command.
func NewHistoryClearCmd() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete recorded queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory(config.GetGlobalConfig())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var removed int64
			if keep > 0 {
				removed, err = store.Prune(cmd.Context(), keep)
			} else {
				removed, err = store.Clear(cmd.Context())
			}
			if err != nil {
				return err
			}
			cmd.Printf("Removed %s\n", printer.Sprintf("%d entries", removed))
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "keep the newest N entries")
	return cmd
}
