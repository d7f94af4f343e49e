// Package sage is an HTTP client for SaGe SPARQL servers.
//
// SaGe answers a query one page at a time. Each response carries a "next" token
// (a saved physical plan) that is posted back to resume the query where the
// previous page stopped. Execute follows those tokens until the server reports no
// further pages and returns the concatenated result set; ExecutePage performs a
// single round trip.
//
// The client understands both response formats SaGe emits: W3C SPARQL 1.1 JSON
// with paging controls in the head, and SaGe's raw JSON with "?var" keys and
// N-Triples-like term strings. Blank nodes skolemized by the server
// (<server>/bnode#label) are turned back into blank nodes.
package sage
