package rdf

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies which variant a Term holds.
type Kind int

const (
	// KindURI is an IRI reference.
	KindURI Kind = iota + 1
	// KindLiteral is a plain, language-tagged or typed literal.
	KindLiteral
	// KindBlank is a blank node.
	KindBlank
)

// W3C SPARQL JSON type names.
const (
	typeURI          = "uri"
	typeLiteral      = "literal"
	typeTypedLiteral = "typed-literal"
	typeBNode        = "bnode"
)

// XSDString is the implicit datatype of simple literals.
const XSDString = "http://www.w3.org/2001/XMLSchema#string"

// ErrUnknownTermType is returned when a serialized term carries an unsupported type.
var ErrUnknownTermType = errors.New("unknown RDF term type")

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindURI:
		return "uri"
	case KindLiteral:
		return "literal"
	case KindBlank:
		return "blank"
	default:
		return "unknown"
	}
}

// Term is an RDF term. The zero value is not a valid term; build terms with
// NewURI, NewLiteral, NewLangLiteral, NewTypedLiteral or NewBlank.
type Term struct {
	kind     Kind
	value    string
	lang     string
	datatype string
}

// NewURI returns an IRI term.
func NewURI(iri string) Term {
	return Term{kind: KindURI, value: iri}
}

// NewLiteral returns a simple literal.
func NewLiteral(value string) Term {
	return Term{kind: KindLiteral, value: value}
}

// NewLangLiteral returns a language-tagged literal. Tags are lowercased.
func NewLangLiteral(value, lang string) Term {
	return Term{kind: KindLiteral, value: value, lang: strings.ToLower(lang)}
}

// NewTypedLiteral returns a literal with an explicit datatype IRI.
func NewTypedLiteral(value, datatype string) Term {
	if datatype == XSDString {
		datatype = ""
	}
	return Term{kind: KindLiteral, value: value, datatype: datatype}
}

// NewBlank returns a blank node. A leading "_:" is stripped from label.
func NewBlank(label string) Term {
	return Term{kind: KindBlank, value: strings.TrimPrefix(label, "_:")}
}

// Kind returns the term variant.
func (t Term) Kind() Kind { return t.kind }

// Value returns the IRI, the literal lexical form or the blank node label.
func (t Term) Value() string { return t.value }

// Lang returns the language tag of a literal, or "".
func (t Term) Lang() string { return t.lang }

// Datatype returns the datatype IRI of a typed literal, or "".
func (t Term) Datatype() string { return t.datatype }

// IsZero reports whether t was never initialized.
func (t Term) IsZero() bool { return t.kind == 0 }

// IsURI reports whether t is an IRI.
func (t Term) IsURI() bool { return t.kind == KindURI }

// IsLiteral reports whether t is a literal.
func (t Term) IsLiteral() bool { return t.kind == KindLiteral }

// IsBlank reports whether t is a blank node.
func (t Term) IsBlank() bool { return t.kind == KindBlank }

// String returns the N-Triples form of the term.
func (t Term) String() string {
	switch t.kind {
	case KindURI:
		return "<" + t.value + ">"
	case KindBlank:
		return "_:" + t.value
	case KindLiteral:
		s := `"` + escapeLiteral(t.value) + `"`
		if t.lang != "" {
			return s + "@" + t.lang
		}
		if t.datatype != "" {
			return s + "^^<" + t.datatype + ">"
		}
		return s
	default:
		return ""
	}
}

// Display returns the value as shown in a results table: the bare IRI, the
// literal lexical form, or the blank label prefixed with "_:".
func (t Term) Display() string {
	if t.kind == KindBlank {
		return "_:" + t.value
	}
	return t.value
}

// jsonTerm is the W3C SPARQL 1.1 JSON representation of a term.
type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// MarshalJSON encodes the term in W3C SPARQL JSON form.
func (t Term) MarshalJSON() ([]byte, error) {
	jt := jsonTerm{Value: t.value}
	switch t.kind {
	case KindURI:
		jt.Type = typeURI
	case KindLiteral:
		jt.Type = typeLiteral
		jt.Lang = t.lang
		jt.Datatype = t.datatype
	case KindBlank:
		jt.Type = typeBNode
	default:
		return nil, fmt.Errorf("%w: zero term", ErrUnknownTermType)
	}
	return json.Marshal(jt)
}

// UnmarshalJSON decodes a term from W3C SPARQL JSON form.
func (t *Term) UnmarshalJSON(data []byte) error {
	var jt jsonTerm
	if err := json.Unmarshal(data, &jt); err != nil {
		return err
	}
	term, err := jt.toTerm()
	if err != nil {
		return err
	}
	*t = term
	return nil
}

func (jt jsonTerm) toTerm() (Term, error) {
	switch jt.Type {
	case typeURI:
		return NewURI(jt.Value), nil
	case typeLiteral, typeTypedLiteral:
		if jt.Lang != "" {
			return NewLangLiteral(jt.Value, jt.Lang), nil
		}
		if jt.Datatype != "" {
			return NewTypedLiteral(jt.Value, jt.Datatype), nil
		}
		return NewLiteral(jt.Value), nil
	case typeBNode:
		return NewBlank(jt.Value), nil
	default:
		return Term{}, fmt.Errorf("%w: %q", ErrUnknownTermType, jt.Type)
	}
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}
