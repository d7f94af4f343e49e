package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/logging"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	for _, k := range []string{
		config.EnvServer, config.EnvGraph, config.EnvPageSize, config.EnvLogLevel,
		config.EnvLogFormat, config.EnvOutputFormat, config.EnvProjectDir,
		"SAGEQUERY_CACHE_TTL_SECONDS", "SAGEQUERY_CACHE_ENABLED",
		"SAGEQUERY_CACHE_DIR", "SAGEQUERY_CACHE_MAX_SIZE_MB",
	} {
		t.Setenv(k, "")
	}
	config.ResetGlobalConfigForTest()
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50, cfg.Pager.PageSize)
	assert.Equal(t, "table", cfg.Output.DefaultFormat)
	assert.Equal(t, config.DefaultServerName, cfg.DefaultServer)
}

func TestNew_NoFileUsesDefaults(t *testing.T) {
	home := isolate(t)

	cfg := config.New()
	assert.Equal(t, config.Default().Servers, cfg.Servers)
	assert.Equal(t, filepath.Join(home, "config.yaml"), cfg.Path())
}

func TestNew_ReadsConfigFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, "config.yaml"), `
config_version: 1.2.0
default_server: local
servers:
  - name: local
    url: http://localhost:8000
pager:
  page_size: 20
query:
  timeout: 5s
  max_pages: 10
`)

	cfg := config.New()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "local", cfg.DefaultServer)
	assert.Equal(t, 20, cfg.Pager.PageSize)
	assert.Equal(t, 5*time.Second, cfg.Query.Timeout)
	assert.Equal(t, 10, cfg.Query.MaxPages)
	// untouched sections keep defaults
	assert.Equal(t, "table", cfg.Output.DefaultFormat)
}

func TestNew_BadFileFallsBackToDefaults(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, "config.yaml"), "config_version: 3.0.0\n")

	cfg := config.New()
	assert.Equal(t, config.CurrentConfigVersion, cfg.ConfigVersion)
}

func TestLoadFile_Errors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	_, err := config.LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := writeFile(t, filepath.Join(dir, "bad.yaml"), "pager: [")
	_, err = config.LoadFile(bad)
	require.Error(t, err)

	future := writeFile(t, filepath.Join(dir, "future.yaml"), "config_version: 2.0.0\n")
	_, err = config.LoadFile(future)
	require.ErrorIs(t, err, config.ErrUnsupportedConfigVersion)
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := config.Default()
	cfg.Pager.PageSize = 25
	cfg.Query.Timeout = 90 * time.Second
	require.NoError(t, cfg.Save(path))
	assert.Equal(t, path, cfg.Path())

	loaded, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 25, loaded.Pager.PageSize)
	assert.Equal(t, 90*time.Second, loaded.Query.Timeout)
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"", false},
		{"1.0.0", false},
		{"1.9.3", false},
		{"0.9.0", true},
		{"2.0.0", true},
		{"banana", true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := config.CheckVersion(tt.version)
			if tt.wantErr {
				require.ErrorIs(t, err, config.ErrUnsupportedConfigVersion)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"page size zero", func(c *config.Config) { c.Pager.PageSize = 0 }},
		{"page size too large", func(c *config.Config) { c.Pager.PageSize = 5000 }},
		{"relative url", func(c *config.Config) { c.Servers[0].URL = "/sparql" }},
		{"bad graph", func(c *config.Config) { c.Servers[0].DefaultGraph = "graph" }},
		{"missing name", func(c *config.Config) { c.Servers[0].Name = "" }},
		{"duplicate name", func(c *config.Config) { c.Servers = append(c.Servers, c.Servers[0]) }},
		{"unknown default", func(c *config.Config) { c.DefaultServer = "elsewhere" }},
		{"unknown format", func(c *config.Config) { c.Output.DefaultFormat = "pdf" }},
		{"ttl too short", func(c *config.Config) { c.Cache.TTLSeconds = 1 }},
		{"negative timeout", func(c *config.Config) { c.Query.Timeout = -time.Second }},
		{"negative limit", func(c *config.Config) { c.Query.Limit = -1 }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := config.Default()
	cfg.Pager.PageSize = 0
	cfg.Output.DefaultFormat = "pdf"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pager.page_size")
	assert.Contains(t, err.Error(), "output.default_format")
}

func TestServer(t *testing.T) {
	cfg := config.Default()
	cfg.Servers = append(cfg.Servers, config.ServerConfig{Name: "local", URL: "http://localhost:8000"})

	s, err := cfg.Server("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultServerURL, s.URL)

	s, err = cfg.Server("local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", s.URL)

	s, err = cfg.Server("https://example.org")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", s.URL)

	_, err = cfg.Server("nowhere")
	require.ErrorIs(t, err, config.ErrUnknownServer)

	empty := &config.Config{}
	_, err = empty.Server("")
	require.ErrorIs(t, err, config.ErrNoServers)
}

func TestApplyEnv(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvServer, "http://localhost:9000")
	t.Setenv(config.EnvGraph, "http://localhost:9000/sparql/dbpedia")
	t.Setenv(config.EnvPageSize, "10")
	t.Setenv(config.EnvLogLevel, "debug")
	t.Setenv(config.EnvOutputFormat, "csv")
	t.Setenv("SAGEQUERY_CACHE_TTL_SECONDS", "60")

	cfg := config.Default()
	cfg.ApplyEnv()

	s, err := cfg.Server("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", s.URL)
	assert.Equal(t, "http://localhost:9000/sparql/dbpedia", s.DefaultGraph)
	assert.Equal(t, 10, cfg.Pager.PageSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "csv", cfg.Output.DefaultFormat)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)
	require.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	env := writeFile(t, filepath.Join(dir, ".env"), "SAGEQUERY_PAGE_SIZE=7\n")
	t.Setenv(config.EnvPageSize, "")
	require.NoError(t, os.Unsetenv(config.EnvPageSize))

	require.NoError(t, config.LoadDotEnv(env, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "7", os.Getenv(config.EnvPageSize))

	require.NoError(t, config.LoadDotEnv(filepath.Join(dir, "none.env")))
}

func TestShallowMergeYAML(t *testing.T) {
	target := config.Default()
	target.Servers = append(target.Servers, config.ServerConfig{Name: "extra", URL: "http://extra"})
	overlay := writeFile(t, filepath.Join(t.TempDir(), "overlay.yaml"), `
servers:
  - name: project
    url: http://project.example
default_server: project
pager:
  page_size: 5
unknown_section:
  foo: bar
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	require.Len(t, target.Servers, 1)
	assert.Equal(t, "project", target.Servers[0].Name)
	assert.Equal(t, "project", target.DefaultServer)
	assert.Equal(t, 5, target.Pager.PageSize)
	assert.Equal(t, "table", target.Output.DefaultFormat)
}

func TestShallowMergeYAML_SectionReplacedNotMerged(t *testing.T) {
	target := config.Default()
	target.Query.MaxPages = 3
	overlay := writeFile(t, filepath.Join(t.TempDir(), "overlay.yaml"), "query:\n  limit: 100\n")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, 100, target.Query.Limit)
	assert.Zero(t, target.Query.MaxPages)
}

func TestShallowMergeYAML_Errors(t *testing.T) {
	require.Error(t, config.ShallowMergeYAML(nil, "x"))
	require.Error(t, config.ShallowMergeYAML(config.Default(), filepath.Join(t.TempDir(), "missing.yaml")))

	bad := writeFile(t, filepath.Join(t.TempDir(), "bad.yaml"), "pager: {page_size: [}")
	require.Error(t, config.ShallowMergeYAML(config.Default(), bad))

	empty := writeFile(t, filepath.Join(t.TempDir(), "empty.yaml"), "# nothing\n")
	require.NoError(t, config.ShallowMergeYAML(config.Default(), empty))
}

func TestResolveProjectDir(t *testing.T) {
	isolate(t)
	ctx := context.Background()
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o700))

	assert.Empty(t, config.ResolveProjectDir(ctx, "", nested))

	require.NoError(t, os.MkdirAll(filepath.Join(root, config.ProjectDirName), 0o700))
	assert.Equal(t, filepath.Join(root, config.ProjectDirName), config.ResolveProjectDir(ctx, "", nested))

	assert.Equal(t, filepath.Join(nested, config.ProjectDirName), config.ResolveProjectDir(ctx, nested, root))
	assert.Equal(t, filepath.Join(nested, config.ProjectDirName),
		config.ResolveProjectDir(ctx, filepath.Join(nested, config.ProjectDirName), root))

	t.Setenv(config.EnvProjectDir, root)
	assert.Equal(t, filepath.Join(root, config.ProjectDirName), config.ResolveProjectDir(ctx, "", "/"))
}

func TestNewWithProjectDir(t *testing.T) {
	isolate(t)
	project := filepath.Join(t.TempDir(), config.ProjectDirName)

	cfg := config.NewWithProjectDir(context.Background(), project)
	assert.Equal(t, 50, cfg.Pager.PageSize)

	writeFile(t, filepath.Join(project, "config.yaml"), "pager:\n  page_size: 12\n")
	cfg = config.NewWithProjectDir(context.Background(), project)
	assert.Equal(t, 12, cfg.Pager.PageSize)

	t.Setenv(config.EnvPageSize, "30")
	cfg = config.NewWithProjectDir(context.Background(), project)
	assert.Equal(t, 30, cfg.Pager.PageSize)
}

func TestGlobalConfig(t *testing.T) {
	isolate(t)

	first := config.GetGlobalConfig()
	assert.Same(t, first, config.GetGlobalConfig())
	assert.Equal(t, 50, config.GetPageSize())
	assert.Equal(t, "table", config.GetDefaultOutputFormat())
	assert.Equal(t, "info", config.GetLogLevel())

	replacement := config.Default()
	replacement.Pager.PageSize = 9
	config.SetGlobalConfig(replacement)
	assert.Equal(t, 9, config.GetPageSize())
}

func TestEnsureLogDir(t *testing.T) {
	home := isolate(t)
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(home, "logs", "x", "sagequery.log")
	config.SetGlobalConfig(cfg)

	require.NoError(t, config.EnsureLogDir())
	assert.DirExists(t, filepath.Join(home, "logs", "x"))
}

func TestToLoggingConfig(t *testing.T) {
	lc := config.LoggingConfig{Level: "debug", Format: "text"}
	got := lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputStderr, got.Output)
	assert.Equal(t, logging.FormatText, got.Format)

	lc = config.LoggingConfig{Level: "info", Format: "json", File: "/tmp/x.log"}
	got = lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputFile, got.Output)
	assert.Equal(t, "/tmp/x.log", got.File)
}

func TestEnsureGitignore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), config.ProjectDirName)

	created, err := config.EnsureGitignore(dir)
	require.NoError(t, err)
	assert.True(t, created)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	for _, pattern := range []string{"cache/", "history.db", "history.db-*", "*.log"} {
		assert.Contains(t, lines, pattern)
	}
	assert.NotContains(t, lines, "config.yaml")

	created, err = config.EnsureGitignore(dir)
	require.NoError(t, err)
	assert.False(t, created)
}
