package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyServers       = "servers"
	keyDefaultServer = "default_server"
	keyPager         = "pager"
	keyQuery         = "query"
	keyOutput        = "output"
	keyCache         = "cache"
	keyHistory       = "history"
	keyLogging       = "logging"
)

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// the target Config. Keys present in the overlay replace entire sections
// in the target. Keys absent in the overlay are left unchanged, and unknown
// keys are ignored.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if err = unmarshalSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// unmarshalSection decodes node into a fresh value of the section's type so
// the section is replaced rather than merged.
func unmarshalSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyServers:
		var v []ServerConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Servers = v
	case keyDefaultServer:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.DefaultServer = v
	case keyPager:
		var v PagerConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Pager = v
	case keyQuery:
		var v QueryConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Query = v
	case keyOutput:
		var v OutputConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Output = v
	case keyCache:
		var v CacheConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Cache = v
	case keyHistory:
		var v HistoryConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.History = v
	case keyLogging:
		var v LoggingConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Logging = v
	}
	return nil
}
