package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/layout"
	"github.com/dogeow/wikigraph/pkg/render/svg"
	"github.com/dogeow/wikigraph/pkg/source"
)

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	var dot string
	err := s.engine.Do(r.Context(), func() {
		dot = svg.ToDOT(s.engine.View(), svg.Options{
			Styler: s.engine.Styler(),
			Scale:  s.engine.Camera().State().ZoomScale,
		})
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := svg.RenderSVG(r.Context(), dot)
	if err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInternal, err, "render svg"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(out)
}

// =============================================================================
// Engine controls
// =============================================================================

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Load(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.handleStatus(w, r)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Kind string `json:"kind"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	kind, err := layout.ParseKind(body.Kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.control(w, r, func() error { return s.engine.SetLayout(kind) })
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	s.control(w, r, func() error {
		s.engine.SetQuery(body.Query)
		return nil
	})
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	var body struct {
		On bool `json:"on"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	s.control(w, r, func() error {
		s.engine.SetNeighborsOnly(body.On)
		return nil
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID graph.ID `json:"id"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	s.control(w, r, func() error {
		if !s.engine.Select(body.ID) {
			return errs.New(errs.ErrCodeNotFound, "no node %q", body.ID)
		}
		return nil
	})
}

func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, func() error {
		s.engine.Deselect()
		return nil
	})
}

// control runs fn on the engine scheduler and answers with the new status.
func (s *Server) control(w http.ResponseWriter, r *http.Request, fn func() error) {
	var ferr error
	if err := s.engine.Do(r.Context(), func() { ferr = fn() }); err != nil {
		s.writeError(w, err)
		return
	}
	if ferr != nil {
		s.writeError(w, ferr)
		return
	}
	s.handleStatus(w, r)
}

// =============================================================================
// Mutations
// =============================================================================

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var in source.NodeInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	s.mutate(w, r, http.StatusCreated, func(ctx context.Context) (any, error) {
		return s.opts.Client.CreateNode(ctx, in)
	})
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var in source.NodeInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	s.mutate(w, r, http.StatusOK, func(ctx context.Context) (any, error) {
		return s.opts.Client.UpdateNode(ctx, id, in)
	})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mutate(w, r, http.StatusNoContent, func(ctx context.Context) (any, error) {
		return nil, s.opts.Client.DeleteNode(ctx, id)
	})
}

func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var in source.LinkInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	s.mutate(w, r, http.StatusCreated, func(ctx context.Context) (any, error) {
		return s.opts.Client.CreateLink(ctx, in)
	})
}

// mutate runs fn through [engine.Engine.Mutate], which reloads the graph
// after a successful mutation.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(ctx context.Context) (any, error)) {
	if s.opts.Client == nil {
		s.writeError(w, errs.New(errs.ErrCodeUnsupported, "this server has no write access to the knowledge base"))
		return
	}
	var result any
	err := s.engine.Mutate(r.Context(), func(ctx context.Context) error {
		v, err := fn(ctx)
		result = v
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, result)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.New(errs.ErrCodeInvalidInput, "bad node id %q", raw)
	}
	return id, nil
}
