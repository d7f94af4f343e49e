package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/engine"
	"github.com/rshade/sagequery/internal/server"
)

const defaultServeAddr = "127.0.0.1:8080"

// NewServeCmd creates the serve command, which exposes one result session over
// a JSON API.
func NewServeCmd() *cobra.Command {
	var (
		addr     string
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query and paging JSON API",
		Long: `Starts an HTTP server holding one result session.

  GET  /healthz                    liveness
  GET  /api/servers                configured servers
  GET  /api/servers/{name}/graphs  graphs from the server's VoID description
  POST /api/query                  run a query; replies with page 1
  GET  /api/page[?page=n]          current page, or jump to page n
  POST /api/page/{next,prev,first,last}
  GET  /api/results?format=csv     every row in an export format`,
		Example: `  sagequery serve --addr 127.0.0.1:8080
  curl -s -XPOST localhost:8080/api/query -d '{"query":"SELECT * WHERE { ?s ?p ?o } LIMIT 120"}'
  curl -s -XPOST localhost:8080/api/page/next`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.GetGlobalConfig()
			if !cmd.Flags().Changed("page-size") {
				pageSize = cfg.Pager.PageSize
			}

			rt, err := newRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			session, err := engine.NewSession(rt.engine, pageSize)
			if err != nil {
				return err
			}

			targets := make([]server.Target, 0, len(cfg.Servers))
			for _, s := range cfg.Servers {
				targets = append(targets, server.Target{Name: s.Name, URL: s.URL, DefaultGraph: s.DefaultGraph})
			}

			srv := server.New(session, targets, cfg.DefaultServer).WithGraphLister(rt.client.ListGraphsAt)
			cmd.PrintErrf("Serving on http://%s\n", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "rows per page (default from config)")
	return cmd
}
