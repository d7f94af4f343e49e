// Package tui implements the interactive query screen: a server and graph
// picker, a query editor, and a paged results table with per-cell detail
// dialogs.
package tui
