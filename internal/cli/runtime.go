package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rshade/sagequery/internal/config"
	"github.com/rshade/sagequery/internal/engine"
	"github.com/rshade/sagequery/internal/engine/cache"
	"github.com/rshade/sagequery/internal/history"
	"github.com/rshade/sagequery/internal/logging"
	"github.com/rshade/sagequery/internal/sage"
)

// ExitError carries a specific process exit code out of a command.
type ExitError struct {
	Code   int
	Reason string
}

func (e *ExitError) Error() string {
	return e.Reason
}

// ExitCode returns the exit code for err: 0 for nil, the carried code for an
// ExitError, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// runtime bundles the services a query-running command needs.
type runtime struct {
	cfg     *config.Config
	client  *sage.Client
	engine  *engine.Engine
	cache   *cache.FileStore
	history *history.Store
}

// newRuntime builds the client, engine, cache and history store from cfg.
// Cache and history failures only disable those features.
func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	log := logging.FromContext(ctx)

	server, err := cfg.Server("")
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}
	rt.client = sage.New(server.URL,
		sage.WithTimeout(cfg.Query.Timeout),
		sage.WithMaxPages(cfg.Query.MaxPages),
	)
	rt.engine = engine.New(rt.client).WithDefaultServer(server.URL)

	if cfg.Cache.Enabled {
		if store, cacheErr := openCache(cfg); cacheErr != nil {
			log.Warn().Ctx(ctx).Err(cacheErr).Msg("result cache disabled")
		} else {
			rt.cache = store
			rt.engine.WithCache(store)
		}
	}

	if cfg.History.Enabled {
		if store, histErr := openHistory(cfg); histErr != nil {
			log.Warn().Ctx(ctx).Err(histErr).Msg("query history disabled")
		} else {
			rt.history = store
			rt.engine.WithHistory(store)
		}
	}
	return rt, nil
}

func openCache(cfg *config.Config) (*cache.FileStore, error) {
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.NewFileStore(dir, cfg.Cache.Enabled, cfg.Cache.TTLSeconds, cfg.Cache.MaxSizeMB)
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

// execute runs req through the engine and trims history afterwards.
func (rt *runtime) execute(ctx context.Context, req sage.Request, opts engine.Options) (*engine.Result, error) {
	res, err := rt.engine.Execute(ctx, req, opts)
	rt.pruneHistory(ctx)
	return res, err
}

func (rt *runtime) pruneHistory(ctx context.Context) {
	if rt.history == nil || rt.cfg.History.MaxEntries <= 0 {
		return
	}
	if _, err := rt.history.Prune(ctx, rt.cfg.History.MaxEntries); err != nil {
		logging.FromContext(ctx).Warn().Ctx(ctx).Err(err).Msg("pruning history")
	}
}

// Close releases the history database.
func (rt *runtime) Close() error {
	if rt.history == nil {
		return nil
	}
	if err := rt.history.Close(); err != nil {
		return fmt.Errorf("closing history: %w", err)
	}
	return nil
}
