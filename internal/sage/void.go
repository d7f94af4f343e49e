package sage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/rshade/sagequery/internal/logging"
	"github.com/rshade/sagequery/internal/rdf"
)

// Vocabulary used in SaGe VoID descriptions.
const (
	rdfType            = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	voidDataset        = "http://rdfs.org/ns/void#Dataset"
	voidTriples        = "http://rdfs.org/ns/void#triples"
	dctermsTitle       = "http://purl.org/dc/terms/title"
	dctermsDescription = "http://purl.org/dc/terms/description"
	sdEndpoint         = "http://www.w3.org/ns/sparql-service-description#endpoint"
	hydraItemsPerPage  = "http://www.w3.org/ns/hydra/core#itemsPerPage"
)

// Graph is one RDF graph hosted by a SaGe server.
type Graph struct {
	URI          string `json:"uri"           yaml:"uri"`
	Title        string `json:"title"         yaml:"title"`
	Description  string `json:"description"   yaml:"description"`
	Endpoint     string `json:"endpoint"      yaml:"endpoint"`
	Triples      int64  `json:"triples"       yaml:"triples"`
	ItemsPerPage int    `json:"items_per_page" yaml:"items_per_page"`
}

// ListGraphs fetches the server's VoID description and returns the datasets it
// declares, sorted by URI.
func (c *Client) ListGraphs(ctx context.Context) ([]Graph, error) {
	return c.ListGraphsAt(ctx, c.baseURL)
}

// ListGraphsAt is ListGraphs against an explicit server URL.
func (c *Client) ListGraphsAt(ctx context.Context, server string) ([]Graph, error) {
	base, err := c.serverURL(Request{Server: server})
	if err != nil {
		return nil, err
	}
	endpoint := base + "/void/"

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/n-triples")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if statusErr := checkStatus(resp, endpoint); statusErr != nil {
		return nil, statusErr
	}

	quads, err := rdf.ParseNQuads(io.LimitReader(resp.Body, maxResponseBytes), "")
	if err != nil {
		return nil, fmt.Errorf("%w: VoID description: %w", ErrDecode, err)
	}

	graphs := GraphsFromVoID(quads)
	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "sage").
		Str("endpoint", endpoint).
		Int("graphs", len(graphs)).
		Msg("VoID description loaded")
	return graphs, nil
}

// GraphsFromVoID extracts void:Dataset descriptions from parsed statements.
func GraphsFromVoID(quads []rdf.Quad) []Graph {
	bySubject := make(map[string]*Graph)
	props := make(map[string][]rdf.Quad)

	for _, q := range quads {
		if !q.Subject.IsURI() {
			continue
		}
		subj := q.Subject.Value()
		if q.Predicate.Value() == rdfType && q.Object.Value() == voidDataset {
			if _, ok := bySubject[subj]; !ok {
				bySubject[subj] = &Graph{URI: subj}
			}
			continue
		}
		props[subj] = append(props[subj], q)
	}

	out := make([]Graph, 0, len(bySubject))
	for subj, g := range bySubject {
		for _, q := range props[subj] {
			switch q.Predicate.Value() {
			case dctermsTitle:
				g.Title = q.Object.Value()
			case dctermsDescription:
				g.Description = q.Object.Value()
			case sdEndpoint:
				g.Endpoint = q.Object.Value()
			case voidTriples:
				if n, err := strconv.ParseInt(q.Object.Value(), 10, 64); err == nil {
					g.Triples = n
				}
			case hydraItemsPerPage:
				if n, err := strconv.Atoi(q.Object.Value()); err == nil {
					g.ItemsPerPage = n
				}
			}
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}
