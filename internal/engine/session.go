package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rshade/sagequery/internal/pager"
	"github.com/rshade/sagequery/internal/rdf"
	"github.com/rshade/sagequery/internal/sage"
)

// ErrNoEngine is returned by Submit on a session built without an engine.
var ErrNoEngine = errors.New("session has no engine")

// Session owns the current results and their pager. All methods are safe for
// concurrent use.
type Session struct {
	engine *Engine

	mu     sync.RWMutex
	result *Result
	pager  *pager.Pager[rdf.Binding]
}

// NewSession returns an empty session with the given page size.
func NewSession(e *Engine, pageSize int) (*Session, error) {
	p, err := pager.New[rdf.Binding](pageSize)
	if err != nil {
		return nil, err
	}
	return &Session{engine: e, pager: p}, nil
}

// Submit executes req and, on success, replaces the results and resets to page 1.
// On failure the previous results and page are kept.
func (s *Session) Submit(ctx context.Context, req sage.Request, opts Options) (*Result, error) {
	if s.engine == nil {
		return nil, ErrNoEngine
	}
	res, err := s.engine.Execute(ctx, req, opts)
	if err != nil {
		return nil, err
	}
	s.Load(res)
	return res, nil
}

// Load installs a completed result. A nil result is ignored.
func (s *Session) Load(res *Result) {
	if res == nil || res.ResultSet == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
	s.pager.Load(res.ResultSet.Rows)
}

// Reorder replaces the rows of the current result with rows (typically the same
// rows sorted) and returns to page 1.
func (s *Session) Reorder(rows []rdf.Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return
	}
	rs := &rdf.ResultSet{Vars: s.result.ResultSet.Vars, Rows: rows}
	res := *s.result
	res.ResultSet = rs
	s.result = &res
	s.pager.Load(rows)
}

// HasResults reports whether a query has completed in this session.
func (s *Session) HasResults() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result != nil
}

// Result returns the current result, or nil.
func (s *Session) Result() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Columns returns the column names of the current results.
func (s *Session) Columns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil
	}
	return s.result.ResultSet.Columns()
}

// Visible returns the current page.
func (s *Session) Visible() pager.Page[rdf.Binding] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pager.Visible()
}

// Offset returns the absolute index of the first visible row.
func (s *Session) Offset() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pager.Offset()
}

// PageSize returns the fixed page size.
func (s *Session) PageSize() int { return s.pager.PageSize() }

// Next moves forward one page.
func (s *Session) Next() bool { return s.navigate((*pager.Pager[rdf.Binding]).Next) }

// Prev moves back one page.
func (s *Session) Prev() bool { return s.navigate((*pager.Pager[rdf.Binding]).Prev) }

// First moves to page 1.
func (s *Session) First() bool { return s.navigate((*pager.Pager[rdf.Binding]).First) }

// Last moves to the final page.
func (s *Session) Last() bool { return s.navigate((*pager.Pager[rdf.Binding]).Last) }

// GoTo moves to page n, clamped.
func (s *Session) GoTo(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager.GoTo(n)
}

func (s *Session) navigate(move func(*pager.Pager[rdf.Binding]) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return move(s.pager)
}
