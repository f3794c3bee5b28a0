// Package server hosts the graph engine over HTTP.
//
// The router serves the positioned graph as JSON and SVG, exposes the
// engine controls (layout, search, neighbor view, selection, reload) and
// node/link mutations, and upgrades /ws to the remote renderer's
// websocket. Every handler reaches the engine through [engine.Engine.Do]
// or [engine.Engine.Export], so the engine stays single-threaded.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dogeow/wikigraph/pkg/buildinfo"
	"github.com/dogeow/wikigraph/pkg/engine"
	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/source"
)

// DefaultShutdownTimeout bounds graceful shutdown in [Server.Run].
const DefaultShutdownTimeout = 5 * time.Second

// Options configures a [Server].
type Options struct {
	Engine *engine.Engine

	// Remote serves /ws. Nil disables the route.
	Remote http.Handler

	// Client performs node and link mutations. Nil makes the mutation
	// routes answer 501.
	Client *source.Client

	ShutdownTimeout time.Duration
	Logger          *log.Logger
}

// Server is the HTTP front of one engine.
type Server struct {
	opts   Options
	engine *engine.Engine
	logger *log.Logger
	router chi.Router
}

var _ http.Handler = (*Server)(nil)

// New builds the router.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "server needs an engine")
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{opts: opts, engine: opts.Engine, logger: logger}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/graph", s.handleGraph)
		r.Get("/graph.svg", s.handleSVG)
		r.Get("/status", s.handleStatus)

		r.Post("/reload", s.handleReload)
		r.Put("/layout", s.handleLayout)
		r.Put("/query", s.handleQuery)
		r.Put("/neighbors", s.handleNeighbors)
		r.Put("/selection", s.handleSelect)
		r.Delete("/selection", s.handleDeselect)

		r.Post("/nodes", s.handleCreateNode)
		r.Put("/nodes/{id}", s.handleUpdateNode)
		r.Delete("/nodes/{id}", s.handleDeleteNode)
		r.Post("/links", s.handleCreateLink)
	})

	if s.opts.Remote != nil {
		r.Handle("/ws", s.opts.Remote)
	}
	return r
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"dur", time.Since(start),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error string    `json:"error"`
	Code  errs.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Error: errs.UserMessage(err), Code: errs.GetCode(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errs.Is(err, errs.ErrCodeNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrCodeInvalidInput),
		errs.Is(err, errs.ErrCodeInvalidLayout),
		errs.Is(err, errs.ErrCodeInvalidConfig):
		return http.StatusBadRequest
	case errs.Is(err, errs.ErrCodeUnsupported):
		return http.StatusNotImplemented
	case errs.Is(err, errs.ErrCodeLoad),
		errs.Is(err, errs.ErrCodeNetwork),
		errs.Is(err, errs.ErrCodeTimeout):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "bad request body")
	}
	return nil
}

// =============================================================================
// Read handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	v, c, _ := buildinfo.Info()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": v, "commit": c})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Export(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := graph.Write(snap, w); err != nil {
		s.logger.Warn("write graph", "err", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var st engine.Status
	if err := s.engine.Do(r.Context(), func() { st = s.engine.Status() }); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
