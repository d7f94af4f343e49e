package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rshade/sagequery/internal/cli"
	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/engine/cache"
)

const testQuery = "SELECT ?n WHERE { ?s <http://example.org/n> ?n }"

// fakeSage serves total integer rows bound to ?n, perPage per round trip, and a
// VoID description with one dataset.
type fakeSage struct {
	*httptest.Server
	calls atomic.Int32
}

func newFakeSage(t *testing.T, total, perPage int) *fakeSage {
	t.Helper()
	f := &fakeSage{}
	mux := http.NewServeMux()
	mux.HandleFunc("/sparql", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		var body struct {
			Query string `json:"query"`
			Next  string `json:"next"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		start := 0
		if body.Next != "" {
			_, _ = fmt.Sscanf(body.Next, "offset-%d", &start)
		}
		end := min(start+perPage, total)

		bindings := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			bindings = append(bindings, fmt.Sprintf(
				`{"n":{"type":"literal","value":"%d","datatype":"http://www.w3.org/2001/XMLSchema#integer"}}`, i))
		}
		next := "null"
		if end < total {
			next = fmt.Sprintf(`"offset-%d"`, end)
		}
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = fmt.Fprintf(w, `{"head":{"vars":["n"],"pageSize":%d,"hasNext":%t,"next":%s},"results":{"bindings":[%s]}}`,
			end-start, end < total, next, strings.Join(bindings, ","))
	})
	mux.HandleFunc("/void/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/n-triples")
		_, _ = fmt.Fprintf(w, "<%[1]s/sparql/g> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://rdfs.org/ns/void#Dataset> .\n"+
			"<%[1]s/sparql/g> <http://purl.org/dc/terms/title> \"Test graph\" .\n"+
			"<%[1]s/sparql/g> <http://rdfs.org/ns/void#triples> \"12345\"^^<http://www.w3.org/2001/XMLSchema#integer> .\n",
			f.URL)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// isolate points every sagequery path at temp directories, clears overrides and
// runs the test from an empty working directory. It returns the config home.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvHome, home)
	for _, k := range []string{
		config.EnvProjectDir, config.EnvServer, config.EnvGraph, config.EnvPageSize,
		config.EnvLogFormat, config.EnvOutputFormat,
		cache.EnvTTLSeconds, cache.EnvCacheEnabled, cache.EnvCacheDir, cache.EnvCacheMaxSize,
	} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvLogLevel, "error")
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

// withServers writes a global config whose default server is srv.
func withServers(t *testing.T, home string, servers ...config.ServerConfig) {
	t.Helper()
	cfg := config.Default()
	cfg.Servers = servers
	cfg.DefaultServer = servers[0].Name
	require.NoError(t, cfg.Save(filepath.Join(home, "config.yaml")))
}

func testServer(f *fakeSage) config.ServerConfig {
	return config.ServerConfig{Name: "test", URL: f.URL, DefaultGraph: f.URL + "/sparql/g"}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the root command with args and stdin.
func run(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	root := cli.NewRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}
