package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rshade/sagequery/internal/engine"
	"github.com/rshade/sagequery/internal/logging"
	"github.com/rshade/sagequery/internal/sage"
)

// Timeouts for the HTTP listener.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	maxRequestBytes   = 1 << 20
)

// Target is a SaGe server clients may query by name.
type Target struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	DefaultGraph string `json:"default_graph,omitempty"`
}

// GraphLister lists the graphs hosted at a server URL.
type GraphLister func(ctx context.Context, serverURL string) ([]sage.Graph, error)

// Server serves the JSON API.
type Server struct {
	router        *chi.Mux
	session       *engine.Session
	targets       []Target
	defaultTarget string
	graphs        GraphLister
	started       time.Time
}

// New creates a server over session. targets are the servers offered to
// clients; defaultTarget names the one used when a query names none.
func New(session *engine.Session, targets []Target, defaultTarget string) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		session:       session,
		targets:       targets,
		defaultTarget: defaultTarget,
		started:       time.Now(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// WithGraphLister enables GET /api/servers/{name}/graphs.
func (s *Server) WithGraphLister(g GraphLister) *Server {
	s.graphs = g
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/servers", s.handleServers)
		r.Get("/servers/{name}/graphs", s.handleGraphs)
		r.Post("/query", s.handleQuery)
		r.Get("/results", s.handleResults)

		r.Route("/page", func(r chi.Router) {
			r.Get("/", s.handlePage)
			r.Post("/next", s.handleMove(s.session.Next))
			r.Post("/prev", s.handleMove(s.session.Prev))
			r.Post("/first", s.handleMove(s.session.First))
			r.Post("/last", s.handleMove(s.session.Last))
		})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logging.FromContext(ctx).Info().Ctx(ctx).
		Str("component", "server").
		Str("addr", addr).
		Msg("listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

// requestLogger logs each request with zerolog, tagged with chi's request ID.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = logging.ContextWithTraceID(ctx, reqID)
			r = r.WithContext(ctx)
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logging.FromContext(ctx).Debug().Ctx(ctx).
			Str("component", "server").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
