// Package engine runs SPARQL queries and owns the paged view of their results.
//
// Engine wraps an Executor (normally *sage.Client) with the on-disk result cache
// and the query history. Session pairs the last successful ResultSet with a Pager
// and is the only state renderers read from: the CLI, the TUI and the HTTP API all
// go through a Session.
//
// A Session is replaced atomically: Submit and Load swap in new results only after
// a query succeeds, so a failed query leaves the previous results and the current
// page untouched.
package engine
