// Package detail renders the dialog shown for a single result cell.
//
// IRIs, literals and blank nodes each get their own dialog: an IRI dialog shows
// the IRI and offers to browse it, a literal dialog shows the value with its
// language tag and datatype, and a blank node dialog shows its label.
package detail
