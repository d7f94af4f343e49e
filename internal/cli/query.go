package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/sagequery/internal/cli/pagination"
	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/engine"
	"github.com/rshade/sagequery/internal/export"
	"github.com/rshade/sagequery/internal/logging"
	"github.com/rshade/sagequery/internal/sage"
)

// Query input errors.
var (
	ErrNoQuery        = errors.New("no query given: use --query, --file or an argument")
	ErrMultipleQuery  = errors.New("give the query only once: --query, --file or an argument")
	ErrBinaryNeedFile = errors.New("binary output needs --out-file")
)

// exitCodeEmpty is returned by --fail-on-empty when a query has no results.
const exitCodeEmpty = 2

// queryFlags holds the flags of the query command.
type queryFlags struct {
	server      string
	graph       string
	query       string
	file        string
	sort        string
	output      string
	outFile     string
	maxRows     int
	noCache     bool
	failOnEmpty bool
	paging      *pagination.PaginationParams
}

// NewQueryCmd creates the query command, which runs one query and prints a
// page or slice of its results.
func NewQueryCmd() *cobra.Command {
	flags := queryFlags{paging: pagination.NewPaginationParams()}

	cmd := &cobra.Command{
		Use:   "query [SPARQL]",
		Short: "Run a SPARQL query and print its results",
		Long: `Runs a SPARQL query against a SaGe server, following the server's next links
until every result is fetched, then prints the rows.

With --page, one page of --page-size rows is printed together with a
"Page x/y" footer; a page past the end shows the last page. With --offset and
--limit an arbitrary slice is printed. With neither, every row is printed.`,
		Example: `  # Print page 2 of the results, 20 rows per page
  sagequery query --page 2 --page-size 20 -q 'SELECT ?s WHERE { ?s ?p ?o }'

  # Read the query from a file, sort by ?name and write JSON
  sagequery query --file people.rq --sort name:desc --output json

  # Read the query from stdin and export every row to a spreadsheet
  cat query.rq | sagequery query --file - --output xlsx --out-file results.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, &flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.server, "server", "s", "", "server name from the config, or a server URL")
	f.StringVarP(&flags.graph, "graph", "g", "", "default graph IRI (defaults to the server's default graph)")
	f.StringVarP(&flags.query, "query", "q", "", "SPARQL query text")
	f.StringVarP(&flags.file, "file", "f", "", "read the query from a file ('-' for stdin)")
	f.IntVar(&flags.paging.Page, "page", 0, "print only this page (1-based)")
	f.IntVar(&flags.paging.PageSize, "page-size", pagination.DefaultPageSize, "rows per page")
	f.IntVar(&flags.paging.Limit, "limit", 0, "print at most this many rows (offset mode)")
	f.IntVar(&flags.paging.Offset, "offset", 0, "skip this many rows (offset mode)")
	f.StringVar(&flags.sort, "sort", "", "sort rows by a variable: 'var' or 'var:asc|desc'")
	f.StringVarP(&flags.output, "output", "o", "", "output format: "+formatList())
	f.StringVar(&flags.outFile, "out-file", "", "write output to this file instead of stdout")
	f.IntVar(&flags.maxRows, "max-rows", -1, "stop fetching after this many rows (0 = all, default from config)")
	f.BoolVar(&flags.noCache, "no-cache", false, "bypass the result cache")
	f.BoolVar(&flags.failOnEmpty, "fail-on-empty", false, "exit with code 2 when the query returns no rows")

	return cmd
}

func formatList() string {
	names := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func runQuery(cmd *cobra.Command, args []string, flags *queryFlags) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	cfg := config.GetGlobalConfig()

	if !cmd.Flags().Changed("page-size") {
		flags.paging.PageSize = cfg.Pager.PageSize
	}
	if err := flags.paging.Validate(); err != nil {
		return err
	}
	sortField, sortOrder, err := pagination.ParseSort(flags.sort)
	if err != nil {
		return err
	}
	flags.paging.SortField, flags.paging.SortOrder = sortField, sortOrder

	format, err := resolveFormat(flags.output, cfg)
	if err != nil {
		return err
	}
	if format.Binary() && flags.outFile == "" {
		return fmt.Errorf("%w: %s", ErrBinaryNeedFile, format)
	}

	text, err := readQuery(cmd.InOrStdin(), flags.query, flags.file, args)
	if err != nil {
		return err
	}
	server, err := cfg.Server(flags.server)
	if err != nil {
		return err
	}
	req := sage.Request{
		Query:        text,
		Server:       server.URL,
		DefaultGraph: firstNonEmpty(flags.graph, server.DefaultGraph),
		Limit:        cfg.Query.Limit,
	}
	if flags.maxRows >= 0 {
		req.Limit = flags.maxRows
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	res, err := rt.execute(ctx, req, engine.Options{NoCache: flags.noCache})
	if err != nil {
		return err
	}

	rows := res.ResultSet.Rows
	if sortField != "" {
		sorter := pagination.NewBindingSorter(res.ResultSet.Columns())
		if err = sorter.Validate(sortField); err != nil {
			return err
		}
		rows = sorter.Sort(rows, sortField, sortOrder)
	}

	selected, meta, err := pagination.Select(*flags.paging, rows)
	if err != nil {
		return err
	}
	doc := export.NewDocument(res.ResultSet, selected, &meta)

	log.Debug().Ctx(ctx).
		Int("rows", len(rows)).
		Int("printed", len(selected)).
		Bool("cached", res.Cached).
		Str("format", string(format)).
		Msg("rendering results")

	if err = writeOutput(cmd, format, flags.outFile, doc); err != nil {
		return err
	}

	if flags.failOnEmpty && len(rows) == 0 {
		return &ExitError{Code: exitCodeEmpty, Reason: "query returned no results"}
	}
	return nil
}

// resolveFormat picks the --output value, falling back to the configured default.
func resolveFormat(flag string, cfg *config.Config) (export.Format, error) {
	if flag == "" {
		flag = cfg.Output.DefaultFormat
	}
	return export.ParseFormat(flag)
}

// readQuery returns the query from exactly one of --query, --file or an argument.
func readQuery(stdin io.Reader, query, file string, args []string) (string, error) {
	sources := 0
	for _, set := range []bool{query != "", file != "", len(args) > 0} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return "", ErrNoQuery
	case sources > 1:
		return "", ErrMultipleQuery
	}

	text := query
	switch {
	case len(args) > 0:
		text = args[0]
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading query from stdin: %w", err)
		}
		text = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading query file: %w", err)
		}
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", sage.ErrEmptyQuery
	}
	return text, nil
}

// writeOutput renders doc to --out-file or the command's stdout.
func writeOutput(cmd *cobra.Command, format export.Format, outFile string, doc export.Document) error {
	if outFile == "" {
		return export.Render(cmd.OutOrStdout(), format, doc)
	}
	if format == export.FormatXLSX {
		if err := export.WriteXLSX(outFile, doc); err != nil {
			return err
		}
	} else {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		if err = export.Render(f, format, doc); err != nil {
			_ = f.Close()
			return err
		}
		if err = f.Close(); err != nil {
			return fmt.Errorf("closing output file: %w", err)
		}
	}
	cmd.PrintErrf("Wrote %s to %s\n", resultCount(len(doc.Rows)), outFile)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
