package rdf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Quad is one RDF statement with the graph it was read into.
type Quad struct {
	Subject   Term   `json:"subject"`
	Predicate Term   `json:"predicate"`
	Object    Term   `json:"object"`
	Graph     string `json:"graph,omitempty"`
}

// ErrSyntax is wrapped by every N-Triples/N-Quads parse error.
var ErrSyntax = errors.New("n-quads syntax error")

// maxLineBytes bounds a single statement line.
const maxLineBytes = 1 << 20

// QuadReader parses N-Triples and N-Quads documents.
type QuadReader struct {
	// BlankPrefix scopes blank node labels to one parse so labels from two
	// documents never collide. NewQuadReader sets a random prefix.
	BlankPrefix string
}

// NewQuadReader returns a reader with a fresh blank node scope.
func NewQuadReader() *QuadReader {
	return &QuadReader{BlankPrefix: strings.ReplaceAll(uuid.NewString(), "-", "")[:12]}
}

// ParseNQuads reads every statement from r with a fresh blank node scope.
// Statements without an explicit graph are assigned graph.
func ParseNQuads(r io.Reader, graph string) ([]Quad, error) {
	return NewQuadReader().Parse(r, graph)
}

// Parse reads every statement from r.
func (qr *QuadReader) Parse(r io.Reader, graph string) ([]Quad, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var quads []Quad
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q, err := qr.parseLine(line, graph)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrSyntax, lineNo, err)
		}
		quads = append(quads, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading statements: %w", err)
	}
	return quads, nil
}

func (qr *QuadReader) parseLine(line, graph string) (Quad, error) {
	lx := &lexer{input: line}

	subject, err := lx.term()
	if err != nil {
		return Quad{}, fmt.Errorf("subject: %w", err)
	}
	if subject.IsLiteral() {
		return Quad{}, errors.New("subject cannot be a literal")
	}
	predicate, err := lx.term()
	if err != nil {
		return Quad{}, fmt.Errorf("predicate: %w", err)
	}
	if !predicate.IsURI() {
		return Quad{}, errors.New("predicate must be an IRI")
	}
	object, err := lx.term()
	if err != nil {
		return Quad{}, fmt.Errorf("object: %w", err)
	}

	q := Quad{
		Subject:   qr.scope(subject),
		Predicate: predicate,
		Object:    qr.scope(object),
		Graph:     graph,
	}

	lx.skipSpace()
	if lx.peek() != '.' {
		g, gErr := lx.term()
		if gErr != nil {
			return Quad{}, fmt.Errorf("graph: %w", gErr)
		}
		if g.IsLiteral() {
			return Quad{}, errors.New("graph label cannot be a literal")
		}
		q.Graph = g.Value()
	}

	lx.skipSpace()
	if lx.peek() != '.' {
		return Quad{}, errors.New("missing terminating '.'")
	}
	lx.pos++
	lx.skipSpace()
	if !lx.eof() && lx.peek() != '#' {
		return Quad{}, fmt.Errorf("unexpected trailing input %q", lx.input[lx.pos:])
	}
	return q, nil
}

func (qr *QuadReader) scope(t Term) Term {
	if !t.IsBlank() || qr.BlankPrefix == "" {
		return t
	}
	return NewBlank(t.Value() + "_" + qr.BlankPrefix)
}

type lexer struct {
	input string
	pos   int
}

func (lx *lexer) eof() bool { return lx.pos >= len(lx.input) }

func (lx *lexer) peek() byte {
	if lx.eof() {
		return 0
	}
	return lx.input[lx.pos]
}

func (lx *lexer) skipSpace() {
	for !lx.eof() && (lx.input[lx.pos] == ' ' || lx.input[lx.pos] == '\t') {
		lx.pos++
	}
}

func (lx *lexer) term() (Term, error) {
	lx.skipSpace()
	switch lx.peek() {
	case '<':
		iri, err := lx.iri()
		if err != nil {
			return Term{}, err
		}
		return NewURI(iri), nil
	case '_':
		return lx.blank()
	case '"':
		return lx.literal()
	case 0:
		return Term{}, io.ErrUnexpectedEOF
	default:
		return Term{}, fmt.Errorf("unexpected character %q", lx.peek())
	}
}

func (lx *lexer) iri() (string, error) {
	end := strings.IndexByte(lx.input[lx.pos:], '>')
	if end < 0 {
		return "", errors.New("unterminated IRI")
	}
	iri := lx.input[lx.pos+1 : lx.pos+end]
	lx.pos += end + 1
	if strings.ContainsAny(iri, " \t\"{}|^`") {
		return "", fmt.Errorf("invalid IRI %q", iri)
	}
	return unescapeUnicode(iri)
}

func (lx *lexer) blank() (Term, error) {
	if !strings.HasPrefix(lx.input[lx.pos:], "_:") {
		return Term{}, errors.New("invalid blank node")
	}
	start := lx.pos + 2
	end := start
	for end < len(lx.input) && isLabelChar(lx.input[end]) {
		end++
	}
	// a trailing '.' terminates the statement, not the label
	for end > start && lx.input[end-1] == '.' {
		end--
	}
	if end == start {
		return Term{}, errors.New("empty blank node label")
	}
	lx.pos = end
	return NewBlank(lx.input[start:end]), nil
}

func isLabelChar(c byte) bool {
	return c == '_' || c == '-' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}

func (lx *lexer) literal() (Term, error) {
	var sb strings.Builder
	lx.pos++ // opening quote
	closed := false
	for !lx.eof() {
		c := lx.input[lx.pos]
		if c == '"' {
			lx.pos++
			closed = true
			break
		}
		if c != '\\' {
			sb.WriteByte(c)
			lx.pos++
			continue
		}
		if lx.pos+1 >= len(lx.input) {
			return Term{}, errors.New("dangling escape")
		}
		esc := lx.input[lx.pos+1]
		lx.pos += 2
		switch esc {
		case 't':
			sb.WriteByte('\t')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '"', '\'', '\\':
			sb.WriteByte(esc)
		case 'u', 'U':
			n := 4
			if esc == 'U' {
				n = 8
			}
			if lx.pos+n > len(lx.input) {
				return Term{}, errors.New("short unicode escape")
			}
			r, err := strconv.ParseUint(lx.input[lx.pos:lx.pos+n], 16, 32)
			if err != nil {
				return Term{}, fmt.Errorf("invalid unicode escape: %w", err)
			}
			sb.WriteRune(rune(r))
			lx.pos += n
		default:
			return Term{}, fmt.Errorf("unknown escape \\%c", esc)
		}
	}
	if !closed {
		return Term{}, errors.New("unterminated literal")
	}

	value := sb.String()
	switch {
	case strings.HasPrefix(lx.input[lx.pos:], "^^"):
		lx.pos += 2
		if lx.peek() != '<' {
			return Term{}, errors.New("datatype must be an IRI")
		}
		dt, err := lx.iri()
		if err != nil {
			return Term{}, err
		}
		return NewTypedLiteral(value, dt), nil
	case lx.peek() == '@':
		start := lx.pos + 1
		end := start
		for end < len(lx.input) && (isAlnum(lx.input[end]) || lx.input[end] == '-') {
			end++
		}
		if end == start {
			return Term{}, errors.New("empty language tag")
		}
		lx.pos = end
		return NewLangLiteral(value, lx.input[start:end]), nil
	default:
		return NewLiteral(value), nil
	}
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func unescapeUnicode(s string) (string, error) {
	if !strings.Contains(s, `\u`) && !strings.Contains(s, `\U`) {
		return s, nil
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) || (s[i+1] != 'u' && s[i+1] != 'U') {
			sb.WriteByte(s[i])
			continue
		}
		n := 4
		if s[i+1] == 'U' {
			n = 8
		}
		if i+2+n > len(s) {
			return "", errors.New("short unicode escape in IRI")
		}
		r, err := strconv.ParseUint(s[i+2:i+2+n], 16, 32)
		if err != nil {
			return "", fmt.Errorf("invalid unicode escape in IRI: %w", err)
		}
		sb.WriteRune(rune(r))
		i += 1 + n
	}
	return sb.String(), nil
}
