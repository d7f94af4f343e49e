// Package export renders result rows for terminals, scripts and spreadsheets.
//
// Supported formats are an aligned text table, W3C SPARQL JSON (with a pagination
// member), newline-delimited JSON bindings, SPARQL CSV and TSV, and XLSX.
package export
