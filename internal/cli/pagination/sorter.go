package pagination

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rshade/sagequery/internal/rdf"
)

// Sorter orders result rows by a variable.
type Sorter interface {
	// Sort returns a sorted copy of rows.
	Sort(rows []rdf.Binding, field, order string) []rdf.Binding
	// IsValidField reports whether field can be sorted on.
	IsValidField(field string) bool
	// GetValidFields lists the sortable fields.
	GetValidFields() []string
}

// BindingSorter sorts bindings by one projected variable.
//
// Ordering follows SPARQL ORDER BY loosely: unbound sorts first, then blank
// nodes, IRIs and literals. Two numeric literals compare by value; anything else
// compares by lexical form.
type BindingSorter struct {
	vars []string
}

// NewBindingSorter returns a sorter accepting the given variables.
func NewBindingSorter(vars []string) *BindingSorter {
	return &BindingSorter{vars: slices.Clone(vars)}
}

// IsValidField reports whether field is one of the projected variables.
func (s *BindingSorter) IsValidField(field string) bool {
	return slices.Contains(s.vars, field)
}

// GetValidFields returns the projected variables in sorted order.
func (s *BindingSorter) GetValidFields() []string {
	out := slices.Clone(s.vars)
	slices.Sort(out)
	return out
}

// Sort returns a stably sorted copy of rows. Unknown fields return rows unchanged.
func (s *BindingSorter) Sort(rows []rdf.Binding, field, order string) []rdf.Binding {
	if !s.IsValidField(field) {
		return rows
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b rdf.Binding) int {
		ta, _ := a.Get(field)
		tb, _ := b.Get(field)
		c := compareTerms(ta, tb)
		if order == SortOrderDesc {
			return -c
		}
		return c
	})
	return sorted
}

// Validate returns ErrInvalidSortField when field is set and not projected.
func (s *BindingSorter) Validate(field string) error {
	if field == "" || s.IsValidField(field) {
		return nil
	}
	return fmt.Errorf("%w: %q (valid: %s)", ErrInvalidSortField, field,
		strings.Join(s.GetValidFields(), ", "))
}

func kindRank(t rdf.Term) int {
	switch t.Kind() {
	case rdf.KindBlank:
		return 1
	case rdf.KindURI:
		return 2
	case rdf.KindLiteral:
		return 3
	default:
		return 0
	}
}

func compareTerms(a, b rdf.Term) int {
	if ra, rb := kindRank(a), kindRank(b); ra != rb {
		return ra - rb
	}
	if a.IsLiteral() {
		fa, errA := strconv.ParseFloat(a.Value(), 64)
		fb, errB := strconv.ParseFloat(b.Value(), 64)
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
		}
	}
	return strings.Compare(a.Value(), b.Value())
}
