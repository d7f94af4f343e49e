package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/sagequery/internal/cli/pagination"
	"github.com/rshade/sagequery/internal/rdf"
)

// Format names an output format.
type Format string

// Output formats.
const (
	FormatTable  Format = "table"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatCSV    Format = "csv"
	FormatTSV    Format = "tsv"
	FormatXLSX   Format = "xlsx"
)

// tabPadding is the gap between table columns.
const tabPadding = 2

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatNDJSON, FormatCSV, FormatTSV, FormatXLSX}
}

// ParseFormat validates s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Binary reports whether the format must not be written to a terminal.
func (f Format) Binary() bool { return f == FormatXLSX }

// ContentType returns the media type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/sparql-results+json"
	case FormatNDJSON:
		return "application/x-ndjson"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Document is what gets rendered: the columns, the rows to print and, when the
// rows are one page of a larger result, where that page sits.
type Document struct {
	Columns []string
	Rows    []rdf.Binding
	Meta    *pagination.PaginationMeta
}

// NewDocument builds a document for rows of rs.
func NewDocument(rs *rdf.ResultSet, rows []rdf.Binding, meta *pagination.PaginationMeta) Document {
	return Document{Columns: rs.Columns(), Rows: rows, Meta: meta}
}

// Render writes doc to w in format f.
func Render(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatTable:
		return RenderTable(w, doc)
	case FormatJSON:
		return RenderJSON(w, doc)
	case FormatNDJSON:
		return RenderNDJSON(w, doc)
	case FormatCSV:
		return RenderCSV(w, doc)
	case FormatTSV:
		return RenderTSV(w, doc)
	case FormatXLSX:
		return RenderXLSX(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Footer is the status line shown under a page of results.
func Footer(meta pagination.PaginationMeta) string {
	p := message.NewPrinter(language.English)
	if meta.TotalItems == 0 {
		return "No results"
	}
	noun := "results"
	if meta.TotalItems == 1 {
		noun = "result"
	}
	return p.Sprintf("Page %d/%d, (%d %s)", meta.CurrentPage, meta.TotalPages, meta.TotalItems, noun)
}

// RenderTable writes an aligned text table.
func RenderTable(w io.Writer, doc Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)

	header := make([]string, len(doc.Columns))
	rule := make([]string, len(doc.Columns))
	for i, c := range doc.Columns {
		header[i] = "?" + c
		rule[i] = strings.Repeat("-", len(header[i]))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, strings.Join(rule, "\t"))

	for _, row := range doc.Rows {
		cells := make([]string, len(doc.Columns))
		for i, term := range row.Row(doc.Columns) {
			cells[i] = tableCell(term)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	if doc.Meta != nil {
		if _, err := fmt.Fprintf(w, "\n%s\n", Footer(*doc.Meta)); err != nil {
			return fmt.Errorf("writing table: %w", err)
		}
	}
	return nil
}

func tableCell(t rdf.Term) string {
	if t.IsZero() {
		return ""
	}
	// tabs and newlines would break column alignment
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", "").Replace(t.Display())
}

// JSONDocument is a W3C SPARQL JSON results document with an optional
// pagination member.
type JSONDocument struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []rdf.Binding `json:"bindings"`
	} `json:"results"`
	Pagination *pagination.PaginationMeta `json:"pagination,omitempty"`
}

// NewJSONDocument converts doc, using empty arrays rather than nulls.
func NewJSONDocument(doc Document) JSONDocument {
	var out JSONDocument
	out.Head.Vars = doc.Columns
	if out.Head.Vars == nil {
		out.Head.Vars = []string{}
	}
	out.Results.Bindings = doc.Rows
	if out.Results.Bindings == nil {
		out.Results.Bindings = []rdf.Binding{}
	}
	out.Pagination = doc.Meta
	return out
}

// RenderJSON writes a W3C SPARQL JSON document with an extra pagination member.
func RenderJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewJSONDocument(doc)); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return nil
}

// RenderNDJSON writes one W3C binding object per line.
func RenderNDJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	for i, row := range doc.Rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return nil
}

// RenderCSV writes SPARQL 1.1 CSV: bare variable names and plain values.
func RenderCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(doc.Columns); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	for _, row := range doc.Rows {
		record := make([]string, len(doc.Columns))
		for i, term := range row.Row(doc.Columns) {
			if !term.IsZero() {
				record[i] = term.Display()
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderTSV writes SPARQL 1.1 TSV: "?var" headers and N-Triples encoded terms.
func RenderTSV(w io.Writer, doc Document) error {
	var sb strings.Builder
	for i, c := range doc.Columns {
		if i > 0 {
			sb.WriteByte('\t')
		}
		sb.WriteString("?" + c)
	}
	sb.WriteByte('\n')
	for _, row := range doc.Rows {
		for i, term := range row.Row(doc.Columns) {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(term.String())
		}
		sb.WriteByte('\n')
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing TSV: %w", err)
	}
	return nil
}
