package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/rshade/sagequery/internal/engine/cache"
)

// Environment overrides.
const (
	EnvHome         = "SAGEQUERY_HOME"
	EnvProjectDir   = "SAGEQUERY_PROJECT_DIR"
	EnvServer       = "SAGEQUERY_SERVER"
	EnvGraph        = "SAGEQUERY_GRAPH"
	EnvPageSize     = "SAGEQUERY_PAGE_SIZE"
	EnvLogLevel     = "SAGEQUERY_LOG_LEVEL"
	EnvLogFormat    = "SAGEQUERY_LOG_FORMAT"
	EnvOutputFormat = "SAGEQUERY_OUTPUT_FORMAT"
)

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none are
// named) into the process environment. Variables already set win, and missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	present := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// ApplyEnv applies SAGEQUERY_* environment overrides.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvServer); v != "" {
		c.DefaultServer = v
		if isHTTPURL(v) && !c.hasServer(v) {
			c.Servers = append(c.Servers, ServerConfig{Name: v, URL: v})
		}
	}
	if v := os.Getenv(EnvGraph); v != "" {
		for i := range c.Servers {
			if c.Servers[i].Name == c.DefaultServer {
				c.Servers[i].DefaultGraph = v
			}
		}
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pager.PageSize = n
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvOutputFormat); v != "" {
		c.Output.DefaultFormat = v
	}

	c.Cache.Enabled = cache.GetCacheEnabledFromEnv(c.Cache.Enabled)
	c.Cache.TTLSeconds = cache.GetTTLFromEnv(c.Cache.TTLSeconds)
	c.Cache.Directory = cache.GetCacheDirFromEnv(c.Cache.Directory)
	c.Cache.MaxSizeMB = cache.GetCacheMaxSizeFromEnv(c.Cache.MaxSizeMB)
}

func (c *Config) hasServer(name string) bool {
	for _, s := range c.Servers {
		if s.Name == name {
			return true
		}
	}
	return false
}
