package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/logging"
	"github.com/rshade/sagequery/internal/sage"
)

// maxConcurrentDiscovery bounds parallel VoID requests.
const maxConcurrentDiscovery = 4

// ErrAllServersFailed is returned when graph discovery failed on every server.
var ErrAllServersFailed = errors.New("graph discovery failed on every server")

// NewServersListCmd creates the servers list command.
func NewServersListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if output == "json" {
				return writeJSONTo(cmd.OutOrStdout(), cfg.Servers)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tableColumnPadding, ' ', 0)
			fmt.Fprintln(tw, "\tNAME\tURL\tDEFAULT GRAPH")
			for _, s := range cfg.Servers {
				marker := ""
				if s.Name == cfg.DefaultServer {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, s.Name, s.URL, s.DefaultGraph)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	return cmd
}

// ServerGraphs is the discovery outcome for one server.
type ServerGraphs struct {
	Server string       `json:"server"`
	URL    string       `json:"url"`
	Graphs []sage.Graph `json:"graphs"`
	Error  string       `json:"error,omitempty"`
}

// GraphLister lists graphs at a server URL.
type GraphLister func(ctx context.Context, serverURL string) ([]sage.Graph, error)

// NewServersGraphsCmd creates the servers graphs command.
func NewServersGraphsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "graphs [server...]",
		Short: "List the graphs hosted by servers",
		Long: `Fetches the VoID description of each server and lists the datasets it declares.
With no arguments every configured server is queried, concurrently.`,
		Example: `  # Graphs of every configured server
  sagequery servers graphs

  # Graphs of one server, as JSON
  sagequery servers graphs nantes --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetGlobalConfig()
			targets, err := discoveryTargets(cfg, args)
			if err != nil {
				return err
			}
			client := sage.New("", sage.WithTimeout(cfg.Query.Timeout))
			results, err := DiscoverGraphs(cmd.Context(), targets, client.ListGraphsAt)
			if err != nil {
				return err
			}

			if output == "json" {
				if err = writeJSONTo(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else if err = renderGraphs(cmd.OutOrStdout(), results); err != nil {
				return err
			}

			for _, r := range results {
				if r.Error == "" {
					return nil
				}
			}
			return ErrAllServersFailed
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	return cmd
}

func discoveryTargets(cfg *config.Config, names []string) ([]config.ServerConfig, error) {
	if len(names) == 0 {
		if len(cfg.Servers) == 0 {
			return nil, config.ErrNoServers
		}
		return cfg.Servers, nil
	}
	out := make([]config.ServerConfig, 0, len(names))
	for _, name := range names {
		s, err := cfg.Server(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DiscoverGraphs lists the graphs of every server concurrently. A failing server
// is reported in its result; only context cancellation aborts the whole run.
func DiscoverGraphs(ctx context.Context, servers []config.ServerConfig, list GraphLister) ([]ServerGraphs, error) {
	log := logging.FromContext(ctx)
	results := make([]ServerGraphs, len(servers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDiscovery)
	for i, s := range servers {
		g.Go(func() error {
			results[i] = ServerGraphs{Server: s.Name, URL: s.URL, Graphs: []sage.Graph{}}
			graphs, err := list(gctx, s.URL)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn().Ctx(ctx).Str("server", s.Name).Err(err).Msg("graph discovery failed")
				results[i].Error = err.Error()
				return nil
			}
			results[i].Graphs = graphs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("discovering graphs: %w", err)
	}
	return results, nil
}

func renderGraphs(w io.Writer, results []ServerGraphs) error {
	tw := tabwriter.NewWriter(w, 0, 0, tableColumnPadding, ' ', 0)
	fmt.Fprintln(tw, "SERVER\tGRAPH\tTITLE\tTRIPLES")
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\terror: %s\t\t\n", r.Server, r.Error)
			continue
		}
		if len(r.Graphs) == 0 {
			fmt.Fprintf(tw, "%s\t(none)\t\t\n", r.Server)
		}
		for _, g := range r.Graphs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Server, g.URI, g.Title, printer.Sprintf("%d", g.Triples))
		}
	}
	return tw.Flush()
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
