// Package pager holds a complete result list and exposes it one fixed-size page at
// a time.
//
// A Pager is loaded with the full row list of a query execution and then driven by
// navigation (Next, Prev, First, Last, GoTo). Visible recomputes the current slice
// and the page counters on demand; it never mutates state.
//
// Invariants:
//   - the page size is fixed at construction and is always > 0
//   - 1 <= CurrentPage <= max(TotalPages, 1)
//   - a Page never holds more than PageSize rows
//
// A Pager is not safe for concurrent use. Callers that share one across goroutines
// must guard it (see internal/engine.Session and internal/server).
package pager
