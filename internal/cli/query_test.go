package cli_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rshade/sagequery/internal/cli"
	"github.com/rshade/sagequery/internal/cli/pagination"
	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/export"
	"github.com/rshade/sagequery/internal/history"
	"github.com/rshade/sagequery/internal/sage"
	"github.com/rshade/sagequery/internal/tui"
)

func TestQuery_PageTable(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 5, 2)
	withServers(t, home, testServer(srv))

	res := run(t, nil, "query", "--page", "2", "--page-size", "2", "-q", testQuery)
	require.NoError(t, res.err, res.stderr)

	assert.Equal(t, "?n\n--\n2\n3\n\nPage 2/3, (5 results)\n", res.stdout)
	assert.Equal(t, int32(3), srv.calls.Load(), "every SaGe page is fetched")
}

func TestQuery_PagePastEndShowsLastPage(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 5, 5)
	withServers(t, home, testServer(srv))

	res := run(t, nil, "query", "--page", "9", "--page-size", "2", "-q", testQuery)
	require.NoError(t, res.err)
	assert.Equal(t, "?n\n--\n4\n\nPage 3/3, (5 results)\n", res.stdout)
}

func TestQuery_SortAndCSV(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 12, 5)
	withServers(t, home, testServer(srv))

	res := run(t, nil, "query", "--sort", "?n:desc", "--limit", "3", "-o", "csv", testQuery)
	require.NoError(t, res.err)
	assert.Equal(t, "n\n11\n10\n9\n", res.stdout, "numeric literals sort by value")
}

func TestQuery_JSONCarriesPagination(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 7, 7)
	withServers(t, home, testServer(srv))

	res := run(t, nil, "query", "--page", "1", "--page-size", "5", "--output", "json", "-q", testQuery)
	require.NoError(t, res.err)

	var doc export.JSONDocument
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &doc))
	assert.Equal(t, []string{"n"}, doc.Head.Vars)
	assert.Len(t, doc.Results.Bindings, 5)
	require.NotNil(t, doc.Pagination)
	assert.Equal(t, pagination.PaginationMeta{
		CurrentPage: 1, PageSize: 5, TotalPages: 2, TotalItems: 7, HasNext: true,
	}, *doc.Pagination)
}

func TestQuery_ConfiguredPageSize(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 30, 30)
	cfg := config.Default()
	cfg.Servers = []config.ServerConfig{testServer(srv)}
	cfg.DefaultServer = "test"
	cfg.Pager.PageSize = 25
	require.NoError(t, cfg.Save(filepath.Join(home, "config.yaml")))

	res := run(t, nil, "query", "--page", "2", "-q", testQuery)
	require.NoError(t, res.err)
	assert.True(t, strings.HasSuffix(res.stdout, "Page 2/2, (30 results)\n"), res.stdout)
}

func TestQuery_FromFileAndStdin(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 1, 1)
	withServers(t, home, testServer(srv))

	path := filepath.Join(t.TempDir(), "q.rq")
	require.NoError(t, os.WriteFile(path, []byte(testQuery), 0o600))

	res := run(t, nil, "query", "--file", path, "-o", "csv")
	require.NoError(t, res.err)
	assert.Equal(t, "n\n0\n", res.stdout)

	res = run(t, strings.NewReader(testQuery), "query", "--file", "-", "-o", "tsv", "--no-cache")
	require.NoError(t, res.err)
	assert.Equal(t, "?n\n\"0\"^^<http://www.w3.org/2001/XMLSchema#integer>\n", res.stdout)
}

func TestQuery_UsesCache(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 4, 2)
	withServers(t, home, testServer(srv))

	require.NoError(t, run(t, nil, "query", "-o", "csv", "-q", testQuery).err)
	require.Equal(t, int32(2), srv.calls.Load())

	res := run(t, nil, "query", "-o", "csv", "-q", testQuery)
	require.NoError(t, res.err)
	assert.Equal(t, "n\n0\n1\n2\n3\n", res.stdout)
	assert.Equal(t, int32(2), srv.calls.Load(), "second run is served from cache")

	require.NoError(t, run(t, nil, "query", "--no-cache", "-o", "csv", "-q", testQuery).err)
	assert.Equal(t, int32(4), srv.calls.Load())
}

func TestQuery_RecordsHistory(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 3, 3)
	withServers(t, home, testServer(srv))

	require.NoError(t, run(t, nil, "query", "-o", "csv", "-q", testQuery).err)

	res := run(t, nil, "history", "list", "-o", "json")
	require.NoError(t, res.err)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Rows)
	assert.Equal(t, srv.URL, entries[0].Server)
	assert.Equal(t, srv.URL+"/sparql/g", entries[0].Graph)

	res = run(t, nil, "history", "show", entries[0].ID, "--query-only")
	require.NoError(t, res.err)
	assert.Equal(t, testQuery+"\n", res.stdout)

	res = run(t, nil, "history", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, entries[0].ID)
	assert.Contains(t, res.stdout, "SELECT ?n WHERE")

	res = run(t, nil, "history", "clear")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Removed 1 entries")

	res = run(t, nil, "history", "show", entries[0].ID)
	require.ErrorIs(t, res.err, history.ErrNotFound)
}

func TestQuery_MaxRows(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 100, 10)
	withServers(t, home, testServer(srv))

	res := run(t, nil, "query", "--max-rows", "15", "-o", "csv", "-q", testQuery)
	require.NoError(t, res.err)
	assert.Equal(t, 16, strings.Count(res.stdout, "\n"), "header plus 15 rows")
	assert.Equal(t, int32(2), srv.calls.Load())
}

func TestQuery_XLSXOutFile(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 3, 3)
	withServers(t, home, testServer(srv))

	path := filepath.Join(t.TempDir(), "out.xlsx")
	res := run(t, nil, "query", "-o", "xlsx", "--out-file", path, "-q", testQuery)
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Wrote 3 results to "+path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"n"}, {"0"}, {"1"}, {"2"}}, rows)
}

func TestQuery_FailOnEmpty(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 0, 10)
	withServers(t, home, testServer(srv))

	res := run(t, nil, "query", "--fail-on-empty", "-q", testQuery)
	require.Error(t, res.err)
	assert.Equal(t, 2, cli.ExitCode(res.err))
	assert.Equal(t, "?n\n--\n\nNo results\n", res.stdout)

	res = run(t, nil, "query", "-q", testQuery)
	require.NoError(t, res.err)
}

func TestQuery_Errors(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 3, 3)
	withServers(t, home, testServer(srv))

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no query", []string{"query"}, cli.ErrNoQuery},
		{"two sources", []string{"query", "-q", testQuery, testQuery}, cli.ErrMultipleQuery},
		{"blank query", []string{"query", "-q", "   "}, sage.ErrEmptyQuery},
		{"xlsx to stdout", []string{"query", "-o", "xlsx", "-q", testQuery}, cli.ErrBinaryNeedFile},
		{"unknown format", []string{"query", "-o", "pdf", "-q", testQuery}, export.ErrUnknownFormat},
		{"mixed paging", []string{"query", "--page", "1", "--offset", "2", "-q", testQuery}, pagination.ErrMixedPaginationModes},
		{"page size zero", []string{"query", "--page-size", "0", "-q", testQuery}, pagination.ErrInvalidPageSize},
		{"bad sort order", []string{"query", "--sort", "n:up", "-q", testQuery}, pagination.ErrInvalidSortOrder},
		{"unknown sort var", []string{"query", "--sort", "name", "-q", testQuery}, pagination.ErrInvalidSortField},
		{"unknown server", []string{"query", "--server", "mars", "-q", testQuery}, config.ErrUnknownServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, nil, tt.args...)
			require.Error(t, res.err)
			assert.ErrorIs(t, res.err, tt.want)
			assert.Equal(t, 1, cli.ExitCode(res.err))
		})
	}
}

func TestQuery_ServerFailure(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 1, 1)
	withServers(t, home, config.ServerConfig{Name: "broken", URL: srv.URL + "/missing", DefaultGraph: srv.URL + "/sparql/g"})

	res := run(t, nil, "query", "-q", testQuery)
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, sage.ErrServerStatus)
}

func TestUI_RequiresTerminal(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 1, 1)
	withServers(t, home, testServer(srv))

	res := run(t, nil, "ui")
	require.Error(t, res.err)
	assert.True(t, errors.Is(res.err, tui.ErrNotInteractive), res.err)
}

func TestQuery_ServerWithoutGraph(t *testing.T) {
	home := isolate(t)
	srv := newFakeSage(t, 1, 1)
	withServers(t, home, config.ServerConfig{Name: "bare", URL: srv.URL})

	res := run(t, nil, "query", "-q", testQuery)
	require.ErrorIs(t, res.err, sage.ErrNoGraph)
	assert.Zero(t, srv.calls.Load())

	res = run(t, nil, "query", "--graph", srv.URL+"/sparql/g", "-o", "csv", "-q", testQuery)
	require.NoError(t, res.err)
	assert.Equal(t, "n\n0\n", res.stdout)
}
