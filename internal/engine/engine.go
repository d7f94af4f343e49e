package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rshade/sagequery/internal/engine/cache"
	"github.com/rshade/sagequery/internal/history"
	"github.com/rshade/sagequery/internal/logging"
	"github.com/rshade/sagequery/internal/rdf"
	"github.com/rshade/sagequery/internal/sage"
)

// Executor runs one query to completion.
type Executor interface {
	Execute(ctx context.Context, req sage.Request) (*rdf.ResultSet, *sage.Stats, error)
}

// ResultCache is the subset of cache.FileStore the engine uses.
type ResultCache interface {
	Get(key string) (*cache.CacheEntry, error)
	Set(key, label string, data json.RawMessage) error
}

// HistoryRecorder is the subset of history.Store the engine uses.
type HistoryRecorder interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Result is a completed query execution.
type Result struct {
	Request   sage.Request   `json:"request"`
	ResultSet *rdf.ResultSet `json:"results"`
	Stats     *sage.Stats    `json:"stats"`
	Cached    bool           `json:"cached"`
	HistoryID string         `json:"history_id,omitempty"`
}

// Options tune a single execution.
type Options struct {
	// NoCache skips the cache lookup. The fresh result is still written back.
	NoCache bool
}

// Engine executes queries with caching and history.
type Engine struct {
	exec          Executor
	cache         ResultCache
	history       HistoryRecorder
	defaultServer string
	timeout       time.Duration
}

// New returns an engine over exec.
func New(exec Executor) *Engine {
	return &Engine{exec: exec}
}

// WithCache enables result caching.
func (e *Engine) WithCache(c ResultCache) *Engine {
	e.cache = c
	return e
}

// WithHistory enables history recording.
func (e *Engine) WithHistory(h HistoryRecorder) *Engine {
	e.history = h
	return e
}

// WithDefaultServer sets the server used when a request names none.
func (e *Engine) WithDefaultServer(url string) *Engine {
	e.defaultServer = url
	return e
}

// WithTimeout bounds each execution. Zero means no bound beyond the caller's context.
func (e *Engine) WithTimeout(d time.Duration) *Engine {
	e.timeout = d
	return e
}

// cachedPayload is what the cache stores for one execution.
type cachedPayload struct {
	ResultSet *rdf.ResultSet `json:"results"`
	Stats     *sage.Stats    `json:"stats"`
}

// Execute runs req. Cache hits skip the executor; every execution, failed or not,
// is recorded in history when a recorder is configured.
func (e *Engine) Execute(ctx context.Context, req sage.Request, opts Options) (*Result, error) {
	if e.exec == nil {
		return nil, errors.New("engine has no executor")
	}
	if req.Server == "" {
		req.Server = e.defaultServer
	}

	log := logging.FromContext(ctx)
	key := cache.QueryKey(req.Server, req.DefaultGraph, req.Query, req.Limit)

	if res, ok := e.lookup(ctx, key, req, opts); ok {
		e.record(ctx, res, nil)
		return res, nil
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	log.Info().Ctx(ctx).
		Str("component", "engine").
		Str("server", req.Server).
		Str("graph", req.DefaultGraph).
		Msg("executing query")

	rs, stats, err := e.exec.Execute(runCtx, req)
	if err != nil {
		e.record(ctx, &Result{Request: req, Stats: &sage.Stats{}}, err)
		return nil, fmt.Errorf("executing query on %s: %w", req.Server, err)
	}
	if rs == nil {
		rs = &rdf.ResultSet{}
	}
	if stats == nil {
		stats = &sage.Stats{Rows: rs.Len()}
	}

	res := &Result{Request: req, ResultSet: rs, Stats: stats}
	e.store(ctx, key, res)
	e.record(ctx, res, nil)

	log.Info().Ctx(ctx).
		Str("component", "engine").
		Str("server", req.Server).
		Int("rows", rs.Len()).
		Int("pages", stats.Pages).
		Dur("duration", stats.Duration).
		Msg("query finished")
	return res, nil
}

func (e *Engine) lookup(ctx context.Context, key string, req sage.Request, opts Options) (*Result, bool) {
	if e.cache == nil || opts.NoCache {
		return nil, false
	}
	entry, err := e.cache.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheDisabled) {
			logging.FromContext(ctx).Debug().Ctx(ctx).Err(err).
				Str("component", "engine").Msg("cache lookup failed")
		}
		return nil, false
	}
	var payload cachedPayload
	if decodeErr := entry.Decode(&payload); decodeErr != nil || payload.ResultSet == nil {
		return nil, false
	}
	if payload.Stats == nil {
		payload.Stats = &sage.Stats{}
	}
	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "engine").
		Dur("age", entry.Age()).
		Msg("cache hit")
	return &Result{Request: req, ResultSet: payload.ResultSet, Stats: payload.Stats, Cached: true}, true
}

func (e *Engine) store(ctx context.Context, key string, res *Result) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(cachedPayload{ResultSet: res.ResultSet, Stats: res.Stats})
	if err == nil {
		err = e.cache.Set(key, cache.NormalizeQuery(res.Request.Query), data)
	}
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		logging.FromContext(ctx).Warn().Ctx(ctx).Err(err).
			Str("component", "engine").Msg("could not cache results")
	}
}

func (e *Engine) record(ctx context.Context, res *Result, execErr error) {
	if e.history == nil {
		return
	}
	entry := history.Entry{
		Server:   res.Request.Server,
		Graph:    res.Request.DefaultGraph,
		Query:    res.Request.Query,
		Rows:     res.ResultSet.Len(),
		Pages:    res.Stats.Pages,
		Duration: res.Stats.Duration,
		Cached:   res.Cached,
	}
	if execErr != nil {
		entry.Error = execErr.Error()
	}
	stored, err := e.history.Record(ctx, entry)
	if err != nil {
		logging.FromContext(ctx).Warn().Ctx(ctx).Err(err).
			Str("component", "engine").Msg("could not record history")
		return
	}
	res.HistoryID = stored.ID
}
