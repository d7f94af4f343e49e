package rdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuadReader_Parse(t *testing.T) {
	input := `# VoID description
<http://ex.org/void> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://rdfs.org/ns/void#Dataset> .
<http://ex.org/void> <http://purl.org/dc/terms/title> "DBpedia \"2016\""@EN .
_:g1 <http://rdfs.org/ns/void#triples> "42"^^<http://www.w3.org/2001/XMLSchema#integer> <http://ex.org/g> .

_:g1 <http://rdfs.org/ns/void#sparqlEndpoint> _:g2.
`
	qr := &QuadReader{BlankPrefix: "p1"}
	quads, err := qr.Parse(strings.NewReader(input), "http://default")
	require.NoError(t, err)
	require.Len(t, quads, 4)

	assert.Equal(t, "http://default", quads[0].Graph)
	assert.Equal(t, NewURI("http://rdfs.org/ns/void#Dataset"), quads[0].Object)

	assert.Equal(t, NewLangLiteral(`DBpedia "2016"`, "en"), quads[1].Object)

	assert.Equal(t, NewBlank("g1_p1"), quads[2].Subject)
	assert.Equal(t, "42", quads[2].Object.Value())
	assert.Equal(t, "http://ex.org/g", quads[2].Graph)

	assert.Equal(t, NewBlank("g2_p1"), quads[3].Object)
}

func TestParseNQuads_ScopesBlankNodes(t *testing.T) {
	doc := "_:a <http://p> \"x\" .\n"
	first, err := ParseNQuads(strings.NewReader(doc), "")
	require.NoError(t, err)
	second, err := ParseNQuads(strings.NewReader(doc), "")
	require.NoError(t, err)

	assert.NotEqual(t, first[0].Subject, second[0].Subject)
	assert.True(t, strings.HasPrefix(first[0].Subject.Value(), "a_"))
}

func TestQuadReader_UnicodeEscapes(t *testing.T) {
	qr := &QuadReader{}
	quads, err := qr.Parse(strings.NewReader(`<http://a> <http://p> "café\tbar" .`), "")
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, "café\tbar", quads[0].Object.Value())
}

func TestQuadReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"literal subject", `"x" <http://p> <http://o> .`},
		{"blank predicate", `<http://s> _:p <http://o> .`},
		{"missing dot", `<http://s> <http://p> <http://o>`},
		{"unterminated iri", `<http://s <http://p> <http://o> .`},
		{"unterminated literal", `<http://s> <http://p> "abc .`},
		{"bad escape", `<http://s> <http://p> "a\qb" .`},
		{"trailing garbage", `<http://s> <http://p> <http://o> . extra`},
		{"missing object", `<http://s> <http://p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&QuadReader{}).Parse(strings.NewReader(tt.input), "")
			require.ErrorIs(t, err, ErrSyntax)
		})
	}
}
