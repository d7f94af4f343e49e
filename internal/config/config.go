package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/sagequery/internal/cli/pagination"
	"github.com/rshade/sagequery/internal/engine/cache"
	"github.com/rshade/sagequery/internal/export"
	"github.com/rshade/sagequery/internal/sage"
)

const (
	configFileName  = "config.yaml"
	historyFileName = "history.db"
	logFileName     = "sagequery.log"
	cacheDirName    = "cache"

	outputTypeFile = "file"
)

// Config is the on-disk configuration.
//
// YAML Location: ~/.sagequery/config.yaml
//
// Example:
//
//	config_version: 1.0.0
//	default_server: nantes
//	servers:
//	  - name: nantes
//	    url: https://sage.univ-nantes.fr
//	    default_graph: https://sage.univ-nantes.fr/sparql/watdiv10m
//	pager:
//	  page_size: 50
type Config struct {
	ConfigVersion string         `yaml:"config_version"          json:"config_version"`
	DefaultServer string         `yaml:"default_server,omitempty" json:"default_server,omitempty"`
	Servers       []ServerConfig `yaml:"servers"                 json:"servers"`
	Pager         PagerConfig    `yaml:"pager"                   json:"pager"`
	Query         QueryConfig    `yaml:"query"                   json:"query"`
	Output        OutputConfig   `yaml:"output"                  json:"output"`
	Cache         CacheConfig    `yaml:"cache"                   json:"cache"`
	History       HistoryConfig  `yaml:"history"                 json:"history"`
	Logging       LoggingConfig  `yaml:"logging"                 json:"logging"`

	configPath string
}

// ServerConfig names a SaGe server.
type ServerConfig struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url"  json:"url"`

	// DefaultGraph is sent with every query unless the caller picks another graph.
	DefaultGraph string `yaml:"default_graph,omitempty" json:"default_graph,omitempty"`
}

// PagerConfig controls how many rows a page shows.
type PagerConfig struct {
	PageSize int `yaml:"page_size" json:"page_size"`
}

// QueryConfig bounds query execution.
type QueryConfig struct {
	Timeout  time.Duration `yaml:"timeout"   json:"timeout"`
	MaxPages int           `yaml:"max_pages" json:"max_pages"`

	// Limit caps the rows fetched per query. Zero fetches everything.
	Limit int `yaml:"limit" json:"limit"`
}

// OutputConfig defines output settings for the non-interactive commands.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"             json:"enabled"`
	TTLSeconds int    `yaml:"ttl_seconds"         json:"ttl_seconds"`
	Directory  string `yaml:"directory,omitempty" json:"directory,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"         json:"max_size_mb"`
}

// HistoryConfig configures the query history database.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"        json:"enabled"`
	Path       string `yaml:"path,omitempty" json:"path,omitempty"`
	MaxEntries int    `yaml:"max_entries"    json:"max_entries"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"          json:"level"`
	Format string `yaml:"format"         json:"format"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// Config errors.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknownServer = errors.New("unknown server")
	ErrNoServers     = errors.New("no servers configured")
)

// Defaults.
const (
	DefaultServerName   = "nantes"
	DefaultServerURL    = "https://sage.univ-nantes.fr"
	DefaultGraphURL     = "https://sage.univ-nantes.fr/sparql/watdiv10m"
	DefaultQueryTimeout = sage.DefaultTimeout
	DefaultMaxEntries   = 500
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ConfigVersion: CurrentConfigVersion,
		DefaultServer: DefaultServerName,
		Servers: []ServerConfig{
			{Name: DefaultServerName, URL: DefaultServerURL, DefaultGraph: DefaultGraphURL},
		},
		Pager: PagerConfig{PageSize: pagination.DefaultPageSize},
		Query: QueryConfig{
			Timeout:  DefaultQueryTimeout,
			MaxPages: sage.DefaultMaxPages,
		},
		Output: OutputConfig{DefaultFormat: string(export.FormatTable)},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: cache.DefaultTTLSeconds,
			MaxSizeMB:  cache.DefaultCacheMaxSizeMB,
		},
		History: HistoryConfig{Enabled: true, MaxEntries: DefaultMaxEntries},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// New loads the global configuration: defaults, then the config file if one
// exists, then environment overrides. Errors reading the file leave the
// defaults in place.
func New() *Config {
	cfg := Default()

	path, err := ConfigFilePath()
	if err == nil {
		cfg.configPath = path
		if _, statErr := os.Stat(path); statErr == nil {
			if loadErr := cfg.Load(path); loadErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: ignoring config file %s: %v\n", path, loadErr)
				cfg = Default()
				cfg.configPath = path
			}
		}
	}

	cfg.ApplyEnv()
	return cfg
}

// Load reads path over the receiver. Keys missing from the file keep their
// current values.
func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err = CheckVersion(c.ConfigVersion); err != nil {
		return err
	}
	c.configPath = path
	return nil
}

// LoadFile builds a config from defaults plus the file at path and environment
// overrides. Unlike New it reports errors.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.Load(path); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// Path returns the file the configuration was loaded from or saved to.
func (c *Config) Path() string { return c.configPath }

// Server looks up a server by name. An empty name selects the default server.
// A value that parses as an absolute http(s) URL is accepted as an ad-hoc server.
func (c *Config) Server(name string) (ServerConfig, error) {
	if name == "" {
		name = c.DefaultServer
	}
	if name == "" {
		if len(c.Servers) == 0 {
			return ServerConfig{}, ErrNoServers
		}
		return c.Servers[0], nil
	}
	for _, s := range c.Servers {
		if s.Name == name {
			return s, nil
		}
	}
	if isHTTPURL(name) {
		return ServerConfig{Name: name, URL: name}, nil
	}
	return ServerConfig{}, fmt.Errorf("%w: %q", ErrUnknownServer, name)
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if err := CheckVersion(c.ConfigVersion); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool, len(c.Servers))
	for i, s := range c.Servers {
		switch {
		case strings.TrimSpace(s.Name) == "":
			add("servers[%d]: name is required", i)
		case seen[s.Name]:
			add("servers[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
		if !isHTTPURL(s.URL) {
			add("servers[%d]: url %q must be an absolute http(s) URL", i, s.URL)
		}
		if s.DefaultGraph != "" && !isHTTPURL(s.DefaultGraph) {
			add("servers[%d]: default_graph %q must be an absolute http(s) URL", i, s.DefaultGraph)
		}
	}
	if c.DefaultServer != "" && !seen[c.DefaultServer] {
		add("default_server %q is not in servers", c.DefaultServer)
	}

	if c.Pager.PageSize < pagination.MinPageSize || c.Pager.PageSize > pagination.MaxPageSize {
		add("pager.page_size must be between %d and %d, got %d",
			pagination.MinPageSize, pagination.MaxPageSize, c.Pager.PageSize)
	}
	if c.Query.Timeout < 0 {
		add("query.timeout must not be negative")
	}
	if c.Query.MaxPages < 0 {
		add("query.max_pages must not be negative")
	}
	if c.Query.Limit < 0 {
		add("query.limit must not be negative")
	}
	if _, err := export.ParseFormat(c.Output.DefaultFormat); err != nil {
		add("output.default_format: %v", err)
	}
	if c.Cache.TTLSeconds < cache.MinTTLSeconds || c.Cache.TTLSeconds > cache.MaxTTLSeconds {
		add("cache.ttl_seconds must be between %d and %d, got %d",
			cache.MinTTLSeconds, cache.MaxTTLSeconds, c.Cache.TTLSeconds)
	}
	if c.Cache.MaxSizeMB < 0 {
		add("cache.max_size_mb must not be negative")
	}
	if c.History.MaxEntries < 0 {
		add("history.max_entries must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		add("logging.level %q is not a zerolog level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console", "text":
	default:
		add("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return errors.Join(errs...)
}

// CacheDir returns the configured cache directory or the default under the
// config directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Directory != "" {
		return c.Cache.Directory, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheDirName), nil
}

// HistoryPath returns the configured history database path or the default.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, historyFileName), nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
