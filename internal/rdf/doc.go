// Package rdf provides the RDF term model used by sagequery and the decoders that
// turn SaGe server responses into it.
//
// Terms are a closed variant (URI, Literal, Blank) decided once when a response is
// decoded, so renderers switch on Kind instead of probing strings. The package
// contains:
//   - Term, Binding and ResultSet: the immutable query result model
//   - ParseSPARQLJSON: W3C SPARQL 1.1 JSON results decoding
//   - ParseRawTerm: SaGe raw term strings ("v"@en, "v"^^<dt>, <iri>, _:b)
//   - ParseNQuads: a small N-Triples/N-Quads reader that reshapes statements into quads
package rdf
