// Package batch walks large row slices in fixed-size chunks.
//
// Writers that stream results (the spreadsheet exporter, for one) hand each
// chunk to a callback and can report progress between chunks. Processing is
// sequential, so callbacks see rows in order.
package batch
