// Package listview provides a scrolling selection list for Bubble Tea models.
//
// Only the rows inside the viewport are rendered, so the list stays cheap
// however many servers and graphs it holds.
package listview
