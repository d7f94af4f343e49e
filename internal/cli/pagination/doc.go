// Package pagination turns the query command's paging and sorting flags into
// operations on a result set.
//
// It provides:
//   - PaginationParams: --page/--page-size and --limit/--offset parsing and validation
//   - PaginationMeta: page counters attached to structured output
//   - BindingSorter: ordering of result rows by a projected variable
//
// Page-based selection is delegated to internal/pager so the CLI, the TUI and the
// HTTP API agree on page boundaries.
package pagination
