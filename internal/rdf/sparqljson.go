package rdf

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// SPARQLJSON is the W3C SPARQL 1.1 Query Results JSON document.
type SPARQLJSON struct {
	Head struct {
		Vars []string `json:"vars"`
		Link []string `json:"link,omitempty"`
	} `json:"head"`
	Boolean *bool    `json:"boolean,omitempty"`
	Results *Results `json:"results,omitempty"`
}

// Results is the "results" member of a SPARQL JSON document.
type Results struct {
	Bindings []Binding `json:"bindings"`
}

// ResultSet converts the document into a ResultSet. ASK answers become a single
// row binding "boolean" to a typed xsd:boolean literal.
func (doc *SPARQLJSON) ResultSet() *ResultSet {
	rs := &ResultSet{Vars: doc.Head.Vars}
	if doc.Boolean != nil {
		rs.Vars = []string{"boolean"}
		val := "false"
		if *doc.Boolean {
			val = "true"
		}
		rs.Rows = []Binding{BindingOf("boolean", NewTypedLiteral(val, XSDBoolean))}
		return rs
	}
	if doc.Results != nil {
		rs.Rows = doc.Results.Bindings
	}
	return rs
}

// XSDBoolean is the datatype of ASK answers.
const XSDBoolean = "http://www.w3.org/2001/XMLSchema#boolean"

// ParseSPARQLJSON decodes a W3C SPARQL JSON results document.
func ParseSPARQLJSON(r io.Reader) (*ResultSet, error) {
	var doc SPARQLJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding SPARQL JSON results: %w", err)
	}
	return doc.ResultSet(), nil
}

// ParseRawTerm decodes a term in the SaGe raw string form:
//
//	"Anna"                          simple literal
//	"Anna"@en                       language-tagged literal
//	"42"^^<http://...#integer>      typed literal
//	"42"^^http://...#integer        typed literal, unbracketed datatype
//	<http://example.org/Anna>       IRI
//	http://example.org/Anna         IRI
//	_:b0                            blank node
func ParseRawTerm(raw string) Term {
	value := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(value, `"`):
		return parseRawLiteral(value)
	case strings.HasPrefix(value, "_:"):
		return NewBlank(value)
	case strings.HasPrefix(value, "<") && strings.HasSuffix(value, ">"):
		return NewURI(value[1 : len(value)-1])
	default:
		return NewURI(value)
	}
}

func parseRawLiteral(value string) Term {
	if idx := strings.LastIndex(value, `"^^<`); idx > 0 && strings.HasSuffix(value, ">") {
		return NewTypedLiteral(value[1:idx], value[idx+4:len(value)-1])
	}
	if idx := strings.LastIndex(value, `"^^`); idx > 0 {
		return NewTypedLiteral(value[1:idx], value[idx+3:])
	}
	if idx := strings.LastIndex(value, `"@`); idx > 0 {
		return NewLangLiteral(value[1:idx], value[idx+2:])
	}
	if len(value) >= 2 && strings.HasSuffix(value, `"`) {
		return NewLiteral(value[1 : len(value)-1])
	}
	return NewLiteral(strings.TrimPrefix(value, `"`))
}

// RawBinding is a solution mapping in SaGe's raw JSON format, where keys carry a
// leading '?' and values are raw term strings.
type RawBinding struct {
	Binding
}

// UnmarshalJSON decodes {"?x": "<iri>", "?y": "\"lit\"@en"} keeping key order.
func (rb *RawBinding) UnmarshalJSON(data []byte) error {
	var vars []string
	terms := make(map[string]Term)
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("variable %s: %w", key, err)
		}
		name := strings.TrimPrefix(key, "?")
		vars = append(vars, name)
		terms[name] = ParseRawTerm(s)
		return nil
	})
	if err != nil {
		return err
	}
	rb.Binding = NewBinding(vars, terms)
	return nil
}
