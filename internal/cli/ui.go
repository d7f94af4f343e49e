package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/engine"
	"github.com/rshade/sagequery/internal/tui"
)

const uiCommandName = "ui"

// NewUICmd creates the ui command, which starts the interactive pager.
func NewUICmd() *cobra.Command {
	var (
		server  string
		query   string
		file    string
		limit   int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   uiCommandName,
		Short: "Open the interactive query editor and result pager",
		Long: `Opens a full-screen interface with a server picker, a query editor and a
paged results table.

Press ctrl+r or f5 to run the query, ] and [ to change page, enter to inspect
a cell and ? for every key binding. Logs are written to the log file.`,
		Example: `  # Start with the built-in sample query
  sagequery ui

  # Start on another server with a query loaded from a file
  sagequery ui --server local --file people.rq`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.GetGlobalConfig()

			text := ""
			if query != "" || file != "" {
				var err error
				if text, err = readQuery(cmd.InOrStdin(), query, file, nil); err != nil {
					return err
				}
			}

			selected, err := cfg.Server(server)
			if err != nil {
				return err
			}
			rt, err := newRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			session, err := engine.NewSession(rt.engine, cfg.Pager.PageSize)
			if err != nil {
				return err
			}

			servers := uiServers(cfg, selected)
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Query.Limit
			}

			m := tui.NewAppModel(ctx, session, rt.execute, rt.client.ListGraphsAt, tui.Options{
				Servers:       servers,
				DefaultServer: selected.Name,
				Query:         text,
				Limit:         limit,
				NoCache:       noCache,
			})
			return tui.Run(ctx, m)
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "", "server to select initially (name or URL)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "initial query text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "load the initial query from a file")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop fetching after this many rows (0 = all)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")

	return cmd
}

// uiServers lists the configured servers, plus selected when it is an ad-hoc URL.
func uiServers(cfg *config.Config, selected config.ServerConfig) []tui.Server {
	out := make([]tui.Server, 0, len(cfg.Servers)+1)
	found := false
	for _, s := range cfg.Servers {
		out = append(out, tui.Server{Name: s.Name, URL: s.URL, DefaultGraph: s.DefaultGraph})
		found = found || s.Name == selected.Name
	}
	if !found {
		out = append(out, tui.Server{Name: selected.Name, URL: selected.URL, DefaultGraph: selected.DefaultGraph})
	}
	return out
}
