package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rshade/sagequery/internal/cli/pagination"
	"github.com/rshade/sagequery/internal/engine"
	"github.com/rshade/sagequery/internal/export"
	"github.com/rshade/sagequery/internal/logging"
	"github.com/rshade/sagequery/internal/sage"
)

// API errors.
var (
	ErrNoResults     = errors.New("no results loaded")
	ErrUnknownTarget = errors.New("unknown server")
	ErrBadRequest    = errors.New("bad request")
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query        string `json:"query"`
	Server       string `json:"server,omitempty"`
	DefaultGraph string `json:"default_graph,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	NoCache      bool   `json:"no_cache,omitempty"`
}

// QuerySummary describes a completed execution.
type QuerySummary struct {
	Server     string  `json:"server"`
	Graph      string  `json:"graph,omitempty"`
	Rows       int     `json:"rows"`
	Pages      int     `json:"pages"`
	DurationMS float64 `json:"duration_ms"`
	Cached     bool    `json:"cached"`
	Truncated  bool    `json:"truncated"`
	HistoryID  string  `json:"history_id,omitempty"`
}

// QueryResponse is the reply to POST /api/query: the summary and page 1.
type QueryResponse struct {
	Query QuerySummary        `json:"query"`
	Page  export.JSONDocument `json:"page"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Results bool   `json:"results_loaded"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Warn().Ctx(r.Context()).
			Str("component", "server").
			Err(err).
			Int("status", status).
			Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, sage.ErrEmptyQuery), errors.Is(err, sage.ErrNoGraph),
		errors.Is(err, ErrUnknownTarget):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
		Results: s.session.HasResults(),
	})
}

func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	targets := s.targets
	if targets == nil {
		targets = []Target{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default": s.defaultTarget,
		"servers": targets,
	})
}

func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request) {
	if s.graphs == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "graph discovery is not enabled"})
		return
	}
	target, err := s.resolve(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	graphs, err := s.graphs(r.Context(), target.URL)
	if err != nil {
		writeError(w, r, fmt.Errorf("listing graphs of %s: %w", target.Name, err))
		return
	}
	writeJSON(w, http.StatusOK, graphs)
}

// resolve maps a server name, an http(s) URL or "" to a target.
func (s *Server) resolve(name string) (Target, error) {
	if name == "" {
		name = s.defaultTarget
	}
	for _, t := range s.targets {
		if t.Name == name {
			return t, nil
		}
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return Target{Name: name, URL: name}, nil
	}
	if name == "" && len(s.targets) > 0 {
		return s.targets[0], nil
	}
	return Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, r, sage.ErrEmptyQuery)
		return
	}
	if body.Limit < 0 {
		writeError(w, r, fmt.Errorf("%w: limit must not be negative", ErrBadRequest))
		return
	}

	target, err := s.resolve(body.Server)
	if err != nil {
		writeError(w, r, err)
		return
	}
	graph := body.DefaultGraph
	if graph == "" {
		graph = target.DefaultGraph
	}

	req := sage.Request{Query: body.Query, Server: target.URL, DefaultGraph: graph, Limit: body.Limit}
	res, err := s.session.Submit(r.Context(), req, engine.Options{NoCache: body.NoCache})
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary := QuerySummary{
		Server:    target.URL,
		Graph:     graph,
		Rows:      res.ResultSet.Len(),
		Cached:    res.Cached,
		HistoryID: res.HistoryID,
	}
	if res.Stats != nil {
		summary.Pages = res.Stats.Pages
		summary.DurationMS = float64(res.Stats.Duration.Microseconds()) / 1000
		summary.Truncated = res.Stats.Truncated
	}
	writeJSON(w, http.StatusOK, QueryResponse{Query: summary, Page: s.currentPage()})
}

// currentPage renders the session's visible page.
func (s *Server) currentPage() export.JSONDocument {
	page := s.session.Visible()
	meta := pagination.MetaFromPage(page)
	return export.NewJSONDocument(export.Document{
		Columns: s.session.Columns(),
		Rows:    page.Rows,
		Meta:    &meta,
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if !s.session.HasResults() {
		writeError(w, r, ErrNoResults)
		return
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, fmt.Errorf("%w: page must be a positive integer", ErrBadRequest))
			return
		}
		s.session.GoTo(n)
	}
	writeJSON(w, http.StatusOK, s.currentPage())
}

// handleMove applies a pager move. Moving past either end leaves the page unchanged.
func (s *Server) handleMove(move func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.session.HasResults() {
			writeError(w, r, ErrNoResults)
			return
		}
		move()
		writeJSON(w, http.StatusOK, s.currentPage())
	}
}

// handleResults exports the whole result set in ?format= (default csv).
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	res := s.session.Result()
	if res == nil {
		writeError(w, r, ErrNoResults)
		return
	}
	formatName := r.URL.Query().Get("format")
	if formatName == "" {
		formatName = string(export.FormatCSV)
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format.Binary() {
		w.Header().Set("Content-Disposition", `attachment; filename="results.xlsx"`)
	}
	doc := export.Document{Columns: res.ResultSet.Columns(), Rows: res.ResultSet.Rows}
	if err := export.Render(w, format, doc); err != nil {
		logging.FromContext(r.Context()).Warn().Ctx(r.Context()).
			Str("component", "server").
			Err(err).
			Msg("writing results")
	}
}
