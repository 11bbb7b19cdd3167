package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pollenize/floradex/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Actions are the widget operations exposed over HTTP.
type Actions interface {
	Retry(id string) error
	Destroy(id string) error
	DestroyAll() error
	PreviewTarget(attrs map[string]string) (string, error)
}

// Renderer writes the host page.
type Renderer interface {
	WriteHTML(w io.Writer) error
}

// StatusError attaches an HTTP status code to an action error. Action errors
// that are not a StatusError are reported as 500.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Server handles HTTP requests for the host page and the instance API.
//
// Routes:
//   - GET /: the rendered host page
//   - GET /api/instances: instance snapshots as JSON
//   - GET /api/projects: known projects as JSON
//   - GET /api/target: dashboard URL for the query's attributes
//   - GET /api/events: Server-Sent Events stream of lifecycle events
//   - POST /api/instances/{id}/retry: retry a failed instance
//   - DELETE /api/instances/{id}: destroy one instance
//   - DELETE /api/instances: destroy every instance
type Server struct {
	store      store.Store
	actions    Actions
	page       Renderer
	projects   []store.ProjectRecord
	port       int
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// page and projects may be nil; the corresponding routes then respond with
// 404 and an empty list. The server is not started until [Server.Start] is
// called.
func NewServer(st store.Store, actions Actions, page Renderer, projects []store.ProjectRecord, port int, logger *slog.Logger) *Server {
	return &Server{
		store:    st,
		actions:  actions,
		page:     page,
		projects: projects,
		port:     port,
		logger:   logger,
	}
}

// Handler returns the router serving every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handlePage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/instances", s.handleInstances)
		r.Delete("/instances", s.handleDestroyAll)
		r.Post("/instances/{id}/retry", s.handleRetry)
		r.Delete("/instances/{id}", s.handleDestroy)
		r.Get("/projects", s.handleProjects)
		r.Get("/target", s.handleTarget)
		r.Get("/events", s.handleSSE)
	})

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns once the listener is bound. When ctx is
// cancelled the server shuts down gracefully with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx so SSE streams stop on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if s.page == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := s.page.WriteHTML(w); err != nil {
		s.logger.Error("failed to render host page", "error", err)
	}
}

func (s *Server) handleInstances(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetAll())
}

func (s *Server) handleProjects(w http.ResponseWriter, _ *http.Request) {
	projects := s.projects
	if projects == nil {
		projects = []store.ProjectRecord{}
	}
	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	attrs := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			attrs[key] = values[0]
		}
	}

	target, err := s.actions.PreviewTarget(attrs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"target": target})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.actions.Retry(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleDestroy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.actions.Destroy(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDestroyAll(w http.ResponseWriter, _ *http.Request) {
	if err := s.actions.DestroyAll(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSSE streams lifecycle events via Server-Sent Events.
//
// Writes carry a deadline so a slow or vanished client cannot block the
// handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	// headers go out before the first event so clients see the stream open
	if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var se *StatusError
	if errors.As(err, &se) {
		code = se.Code
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}
