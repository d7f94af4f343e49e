package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/sagequery/internal/rdf"
)

// xsdString is the implicit datatype of plain literals.
const xsdString = "http://www.w3.org/2001/XMLSchema#string"

// rdfLangString is the datatype of language-tagged literals.
const rdfLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"

// Kind selects which dialog a cell opens.
type Kind int

const (
	// KindNone is an unbound cell; no dialog opens.
	KindNone Kind = iota
	// KindURI is the IRI dialog.
	KindURI
	// KindLiteral is the literal dialog.
	KindLiteral
	// KindBlank is the blank node dialog.
	KindBlank
)

// Field is one labelled line of a dialog.
type Field struct {
	Label string
	Value string
}

// Model is a dialog for one term.
type Model struct {
	Variable string
	Term     rdf.Term
}

// New returns the dialog for the term bound to variable.
func New(variable string, t rdf.Term) Model {
	return Model{Variable: variable, Term: t}
}

// Kind returns the dialog kind for the term.
func (m Model) Kind() Kind {
	switch {
	case m.Term.IsURI():
		return KindURI
	case m.Term.IsLiteral():
		return KindLiteral
	case m.Term.IsBlank():
		return KindBlank
	default:
		return KindNone
	}
}

// Title returns the dialog heading.
func (m Model) Title() string {
	switch m.Kind() {
	case KindURI:
		return "IRI"
	case KindLiteral:
		return "Literal"
	case KindBlank:
		return "Blank node"
	default:
		return "Unbound"
	}
}

// Fields returns the labelled values the dialog shows.
func (m Model) Fields() []Field {
	fields := []Field{{Label: "Variable", Value: "?" + m.Variable}}
	switch m.Kind() {
	case KindURI:
		fields = append(fields, Field{Label: "IRI", Value: m.Term.Value()})
	case KindLiteral:
		fields = append(fields,
			Field{Label: "Type", Value: literalType(m.Term)},
			Field{Label: "Language", Value: m.Term.Lang()},
			Field{Label: "Value", Value: m.Term.Value()},
		)
	case KindBlank:
		fields = append(fields, Field{Label: "Label", Value: "_:" + m.Term.Value()})
	}
	return fields
}

// Hint returns the action line shown under the fields.
func (m Model) Hint() string {
	if m.Kind() == KindURI {
		return "b browse this IRI • esc close"
	}
	return "esc close"
}

// BrowseQuery returns a query listing the triples whose subject is the IRI.
// It returns false for anything but an IRI.
func (m Model) BrowseQuery() (string, bool) {
	if m.Kind() != KindURI {
		return "", false
	}
	return fmt.Sprintf("SELECT ?p ?o WHERE {\n\t<%s> ?p ?o .\n}", m.Term.Value()), true
}

func literalType(t rdf.Term) string {
	switch {
	case t.Datatype() != "":
		return t.Datatype()
	case t.Lang() != "":
		return rdfLangString
	default:
		return xsdString
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
)

// View renders the dialog boxed to width columns.
func (m Model) View(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Title()))
	b.WriteString("\n\n")
	for _, f := range m.Fields() {
		b.WriteString(labelStyle.Render(f.Label + ":"))
		b.WriteString(valueStyle.Render(f.Value))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(m.Hint()))

	style := boxStyle
	if width > 4 {
		style = style.Width(width - 4)
	}
	return style.Render(b.String())
}
