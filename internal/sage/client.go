package sage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rshade/sagequery/internal/logging"
	"github.com/rshade/sagequery/internal/rdf"
	"github.com/rshade/sagequery/pkg/version"
)

// Client defaults.
const (
	DefaultTimeout  = 60 * time.Second
	DefaultMaxPages = 1000

	// maxResponseBytes bounds a single page body.
	maxResponseBytes = 64 << 20

	mimeSPARQLJSON = "application/sparql-results+json"
)

// Request describes one query execution.
type Request struct {
	// Query is the SPARQL query text.
	Query string `json:"query"`
	// Server overrides the client's base URL when set.
	Server string `json:"server,omitempty"`
	// DefaultGraph is the graph IRI the query runs against.
	DefaultGraph string `json:"default_graph,omitempty"`
	// Limit stops paging once this many rows were collected (0 means no limit).
	Limit int `json:"limit,omitempty"`
}

// Page is one server round trip.
type Page struct {
	Vars     []string
	Rows     []rdf.Binding
	HasNext  bool
	Next     string
	PageSize int
	Stats    json.RawMessage
}

// Stats summarizes a complete execution.
type Stats struct {
	Pages       int               `json:"pages"`
	Rows        int               `json:"rows"`
	Duration    time.Duration     `json:"duration"`
	Truncated   bool              `json:"truncated"`
	ServerStats []json.RawMessage `json:"server_stats,omitempty"`
}

// Client talks to SaGe servers over HTTP.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	maxPages  int
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The client is used as is;
// the per-request timeout is applied through the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxPages bounds the number of round trips made by Execute.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// New returns a client for the server at baseURL. baseURL may be empty when every
// Request names its server.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{},
		timeout:   DefaultTimeout,
		maxPages:  DefaultMaxPages,
		userAgent: "sagequery/" + version.GetVersion(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// requestContext bounds one round trip, body included, by the client timeout.
func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// BaseURL returns the default server URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) serverURL(req Request) (string, error) {
	base := c.baseURL
	if req.Server != "" {
		base = strings.TrimRight(req.Server, "/")
	}
	if base == "" {
		return "", ErrNoServer
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	return base, nil
}

// Execute runs req to completion, following next tokens, and returns every row.
// It stops early once req.Limit rows were collected; the result is then truncated
// to exactly Limit rows and Stats.Truncated is set.
func (c *Client) Execute(ctx context.Context, req Request) (*rdf.ResultSet, *Stats, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	rs := &rdf.ResultSet{}
	stats := &Stats{}
	next := ""
	for {
		if stats.Pages >= c.maxPages {
			return nil, nil, fmt.Errorf("%w: %d", ErrTooManyPages, c.maxPages)
		}
		page, err := c.ExecutePage(ctx, req, next)
		if err != nil {
			return nil, nil, err
		}
		stats.Pages++
		if len(page.Stats) > 0 {
			stats.ServerStats = append(stats.ServerStats, page.Stats)
		}
		rs.Append(&rdf.ResultSet{Vars: page.Vars, Rows: page.Rows})

		if req.Limit > 0 && rs.Len() >= req.Limit {
			stats.Truncated = rs.Len() > req.Limit || page.HasNext
			rs.Rows = rs.Rows[:req.Limit]
			break
		}
		if !page.HasNext || page.Next == "" {
			break
		}
		next = page.Next
	}

	stats.Rows = rs.Len()
	stats.Duration = time.Since(start)
	log.Debug().Ctx(ctx).
		Str("component", "sage").
		Int("rows", stats.Rows).
		Int("pages", stats.Pages).
		Dur("duration", stats.Duration).
		Msg("query completed")
	return rs, stats, nil
}

// queryBody is the JSON posted to /sparql.
type queryBody struct {
	Query        string `json:"query"`
	DefaultGraph string `json:"defaultGraph"`
	Next         string `json:"next,omitempty"`
}

// ExecutePage performs one round trip, resuming from next when it is non-empty.
func (c *Client) ExecutePage(ctx context.Context, req Request, next string) (*Page, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if strings.TrimSpace(req.DefaultGraph) == "" {
		return nil, ErrNoGraph
	}
	base, err := c.serverURL(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(queryBody{Query: req.Query, DefaultGraph: req.DefaultGraph, Next: next})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	endpoint := base + "/sparql"
	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", mimeSPARQLJSON+", application/json;q=0.9")
	httpReq.Header.Set("User-Agent", c.userAgent)

	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "sage").
		Str("endpoint", endpoint).
		Str("default_graph", req.DefaultGraph).
		Bool("resumed", next != "").
		Msg("requesting page")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if statusErr := checkStatus(resp, endpoint); statusErr != nil {
		return nil, statusErr
	}

	page, err := decodePage(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	unskolemizePage(page, endpoint, base)
	return page, nil
}

func checkStatus(resp *http.Response, endpoint string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Code: resp.StatusCode,
		URL:  endpoint,
		Body: strings.TrimSpace(string(excerpt)),
	}
}

// pageEnvelope accepts both the W3C form (controls in head) and SaGe's raw form
// (controls and bindings at top level).
type pageEnvelope struct {
	Head *struct {
		Vars     []string        `json:"vars"`
		PageSize int             `json:"pageSize"`
		HasNext  bool            `json:"hasNext"`
		Next     *string         `json:"next"`
		Stats    json.RawMessage `json:"stats"`
	} `json:"head"`
	Results *rdf.Results `json:"results"`
	Boolean *bool        `json:"boolean"`

	Bindings []rdf.RawBinding `json:"bindings"`
	PageSize int              `json:"pageSize"`
	HasNext  bool             `json:"hasNext"`
	Next     *string          `json:"next"`
	Stats    json.RawMessage  `json:"stats"`
}

func decodePage(r io.Reader) (*Page, error) {
	var env pageEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if env.Head != nil {
		doc := rdf.SPARQLJSON{Boolean: env.Boolean, Results: env.Results}
		doc.Head.Vars = env.Head.Vars
		rs := doc.ResultSet()
		return &Page{
			Vars:     rs.Vars,
			Rows:     rs.Rows,
			HasNext:  env.Head.HasNext,
			Next:     deref(env.Head.Next),
			PageSize: env.Head.PageSize,
			Stats:    env.Head.Stats,
		}, nil
	}

	if env.Bindings == nil && env.Results == nil {
		return nil, fmt.Errorf("%w: neither head nor bindings present", ErrDecode)
	}
	rows := make([]rdf.Binding, len(env.Bindings))
	for i, rb := range env.Bindings {
		rows[i] = rb.Binding
	}
	var vars []string
	if len(rows) > 0 {
		vars = rows[0].Vars()
	}
	return &Page{
		Vars:     vars,
		Rows:     rows,
		HasNext:  env.HasNext,
		Next:     deref(env.Next),
		PageSize: env.PageSize,
		Stats:    env.Stats,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// unskolemizePage turns skolem IRIs back into blank nodes. SaGe mints them
// under the endpoint it was queried at (<server>/sparql/bnode#label); the
// server root form is accepted as well.
func unskolemizePage(page *Page, endpoint, base string) {
	prefixes := []string{endpoint + "/bnode#", base + "/bnode#"}
	for i, row := range page.Rows {
		vars := row.Vars()
		changed := false
		terms := make(map[string]rdf.Term, len(vars))
		for _, v := range vars {
			t, _ := row.Get(v)
			if label, ok := skolemLabel(t, prefixes); ok {
				t = rdf.NewBlank(label)
				changed = true
			}
			terms[v] = t
		}
		if changed {
			page.Rows[i] = rdf.NewBinding(vars, terms)
		}
	}
}

func skolemLabel(t rdf.Term, prefixes []string) (string, bool) {
	if !t.IsURI() {
		return "", false
	}
	for _, prefix := range prefixes {
		if label, ok := strings.CutPrefix(t.Value(), prefix); ok && label != "" {
			return label, true
		}
	}
	return "", false
}
