// Package httpapi exposes the endpoint-management REST surface and the
// manual pipeline trigger.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"firewatch/internal/pipeline"
	"firewatch/internal/registry"
	logx "firewatch/pkg/logx"
)

type Server struct {
	reg  *registry.Registry
	pipe *pipeline.Pipeline
	log  logx.Logger

	mux *chi.Mux
}

func New(reg *registry.Registry, pipe *pipeline.Pipeline, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Server{reg: reg, pipe: pipe, log: log}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/endpoints", s.handleList)
		r.Post("/endpoints", s.handleCreate)
		r.Delete("/endpoints/{id}", s.handleRemove)
		r.Post("/endpoints/{id}/toggle", s.handleToggle)
		r.Post("/check-events", s.handleCheck)
	})
	// Anything else answers plain-text 200.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		render.PlainText(w, req, "firewatch")
	})

	s.mux = r
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

type errResponse struct {
	Error string `json:"error"`
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errResponse{Error: msg})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, errResponse{Error: err.Error()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	eps, err := s.reg.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"endpoints": eps})
}

type createRequest struct {
	Name    string                `json:"name"`
	Type    registry.EndpointType `json:"type"`
	URL     string                `json:"url,omitempty"`
	Email   string                `json:"email,omitempty"`
	Enabled bool                  `json:"enabled"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid JSON body")
		return
	}

	ep := registry.Endpoint{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Type:      req.Type,
		URL:       req.URL,
		Email:     req.Email,
		Enabled:   req.Enabled,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reg.Add(r.Context(), ep); err != nil {
		internalError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "endpoint": ep})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.reg.Remove(r.Context(), id); err != nil {
		internalError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"success": true})
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req toggleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid JSON body")
		return
	}
	if err := s.reg.Toggle(r.Context(), id, req.Enabled); err != nil {
		internalError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"success": true})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	sum := s.pipe.CheckAndNotify(r.Context())
	render.JSON(w, r, map[string]any{"success": true, "message": sum.Message()})
}

// ListenAndServe runs the management API until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.log.Info("management api listening", logx.String("addr", addr))

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
