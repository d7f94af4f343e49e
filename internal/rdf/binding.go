package rdf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Binding is one solution mapping: an ordered set of variable -> Term pairs.
// A Binding is immutable once built; accessors never expose internal storage.
type Binding struct {
	vars  []string
	terms map[string]Term
}

// NewBinding builds a binding from variable names and their terms. Variables
// listed in vars that have no term are skipped (unbound). Terms whose variable is
// missing from vars are appended in unspecified order.
func NewBinding(vars []string, terms map[string]Term) Binding {
	b := Binding{
		vars:  make([]string, 0, len(terms)),
		terms: make(map[string]Term, len(terms)),
	}
	for _, v := range vars {
		t, ok := terms[v]
		if !ok {
			continue
		}
		if _, dup := b.terms[v]; dup {
			continue
		}
		b.vars = append(b.vars, v)
		b.terms[v] = t
	}
	for v, t := range terms {
		if _, seen := b.terms[v]; seen {
			continue
		}
		b.vars = append(b.vars, v)
		b.terms[v] = t
	}
	return b
}

// BindingOf builds a binding from alternating variable names and terms.
// It panics on an odd argument count or a non-string/non-Term argument; it is meant
// for literals in tests and fixtures.
func BindingOf(pairs ...any) Binding {
	if len(pairs)%2 != 0 {
		panic("rdf.BindingOf: odd number of arguments")
	}
	vars := make([]string, 0, len(pairs)/2)
	terms := make(map[string]Term, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("rdf.BindingOf: argument %d is not a variable name", i))
		}
		term, ok := pairs[i+1].(Term)
		if !ok {
			panic(fmt.Sprintf("rdf.BindingOf: argument %d is not a Term", i+1))
		}
		vars = append(vars, name)
		terms[name] = term
	}
	return NewBinding(vars, terms)
}

// Get returns the term bound to variable, if any.
func (b Binding) Get(variable string) (Term, bool) {
	t, ok := b.terms[variable]
	return t, ok
}

// Vars returns the bound variables in order.
func (b Binding) Vars() []string {
	out := make([]string, len(b.vars))
	copy(out, b.vars)
	return out
}

// Len returns the number of bound variables.
func (b Binding) Len() int { return len(b.vars) }

// Row returns the terms for columns in order; unbound columns yield zero Terms.
func (b Binding) Row(columns []string) []Term {
	row := make([]Term, len(columns))
	for i, c := range columns {
		row[i] = b.terms[c]
	}
	return row
}

// MarshalJSON encodes the binding as a W3C SPARQL JSON object, keeping variable order.
func (b Binding) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range b.vars {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(b.terms[v])
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a W3C SPARQL JSON binding object, keeping key order.
func (b *Binding) UnmarshalJSON(data []byte) error {
	var vars []string
	terms := make(map[string]Term)
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var t Term
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("variable %s: %w", key, err)
		}
		vars = append(vars, key)
		terms[key] = t
		return nil
	})
	if err != nil {
		return err
	}
	*b = NewBinding(vars, terms)
	return nil
}

// ResultSet is the complete, ordered answer to one query execution.
type ResultSet struct {
	// Vars lists projected variables in head order. It may be empty when the
	// server omitted the head; Columns then falls back to the first row.
	Vars []string `json:"vars"`

	// Rows holds the solution mappings in server order.
	Rows []Binding `json:"rows"`
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Columns returns the column names used for display.
func (rs *ResultSet) Columns() []string {
	if rs == nil {
		return nil
	}
	if len(rs.Vars) > 0 {
		out := make([]string, len(rs.Vars))
		copy(out, rs.Vars)
		return out
	}
	if len(rs.Rows) == 0 {
		return nil
	}
	return rs.Rows[0].Vars()
}

// Append adds the rows of other to rs, merging any new head variables.
func (rs *ResultSet) Append(other *ResultSet) {
	if other == nil {
		return
	}
	known := make(map[string]bool, len(rs.Vars))
	for _, v := range rs.Vars {
		known[v] = true
	}
	for _, v := range other.Vars {
		if !known[v] {
			rs.Vars = append(rs.Vars, v)
			known[v] = true
		}
	}
	rs.Rows = append(rs.Rows, other.Rows...)
}

var errNotObject = errors.New("expected a JSON object")

// decodeOrderedObject walks the top-level keys of a JSON object in document order.
func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}
	for dec.More() {
		keyTok, keyErr := dec.Token()
		if keyErr != nil {
			return keyErr
		}
		key, ok := keyTok.(string)
		if !ok {
			return errNotObject
		}
		var raw json.RawMessage
		if decErr := dec.Decode(&raw); decErr != nil {
			return decErr
		}
		if fnErr := fn(key, raw); fnErr != nil {
			return fnErr
		}
	}
	_, err = dec.Token()
	return err
}
