package floradex

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pollenize/floradex/internal/server"
	"github.com/pollenize/floradex/internal/store"
)

const defaultPort = 8080

// Host serves a page of widgets over HTTP.
//
// Host ties a [Registry] to the HTTP surface: the rendered page, instance
// snapshots, retry/destroy actions and a stream of lifecycle events. It is
// created with [NewHost] and started with [Host.Start].
//
// The typical lifecycle is:
//
//	doc, _ := page.New("Pollinators")
//	doc.AddMount("", floradex.Attributes{"project": "bodmin-airfield"})
//	doc.MarkReady()
//
//	reg, _ := floradex.New(doc)
//	host, err := floradex.NewHost(reg, floradex.WithPage(doc))
//	if err != nil {
//	    slog.Error("failed to create host", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	host.Start(ctx) // blocks until context cancelled
type Host struct {
	reg      *Registry
	page     Renderer
	port     int
	discover bool
}

// NewHost creates a [Host] for reg.
//
// Defaults: port 8080, auto-discovery enabled, no page renderer ("/" then
// responds 404).
func NewHost(reg *Registry, opts ...HostOption) (*Host, error) {
	if reg == nil {
		return nil, errors.New("registry cannot be nil")
	}

	cfg := &hostConfig{
		port:     defaultPort,
		discover: true,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return &Host{
		reg:      reg,
		page:     cfg.page,
		port:     cfg.port,
		discover: cfg.discover,
	}, nil
}

// Port returns the configured HTTP port.
func (h *Host) Port() int {
	return h.port
}

// Start discovers widgets on the page and serves the host until ctx is
// cancelled.
//
// Start blocks. On cancellation the server shuts down gracefully and every
// widget is destroyed. Discovery failures are logged and do not stop the
// host; each failed widget reports its own error event.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (h *Host) Start(ctx context.Context) error {
	logger := h.reg.logger
	logger.Info("floradex host starting", "url", fmt.Sprintf("http://localhost:%d", h.port))

	if ctx.Err() != nil {
		return nil
	}

	if h.discover {
		widgets, err := h.reg.Discover(ctx)
		if err != nil {
			logger.Warn("auto-discovery completed with errors", "error", err)
		}
		logger.Info("auto-discovery complete", "widget_count", len(widgets))
	}

	srv := server.NewServer(h.reg.Store(), hostActions{h.reg}, h.page, projectRecords(h.reg.Projects()), h.port, logger)
	if err := srv.Start(ctx); err != nil {
		h.shutdown()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	h.shutdown()
	logger.Info("floradex host stopped")
	return nil
}

func (h *Host) shutdown() {
	if err := h.reg.Close(); err != nil {
		h.reg.logger.Error("widget teardown failed", "error", err)
	}
}

// hostActions maps registry errors onto HTTP status codes.
type hostActions struct {
	reg *Registry
}

func (a hostActions) Retry(id string) error {
	return httpError(a.reg.Retry(id))
}

func (a hostActions) Destroy(id string) error {
	return httpError(a.reg.Destroy(id))
}

func (a hostActions) DestroyAll() error {
	return httpError(a.reg.DestroyAll())
}

func (a hostActions) PreviewTarget(attrs map[string]string) (string, error) {
	target, err := a.reg.PreviewTarget(attrs)
	return target, httpError(err)
}

func httpError(err error) error {
	if err == nil {
		return nil
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInstanceNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrRetryExhausted), errors.Is(err, ErrRetryUnavailable):
		code = http.StatusConflict
	case errors.Is(err, ErrDestroyed):
		code = http.StatusGone
	case errors.Is(err, ErrInvalidProject):
		code = http.StatusBadRequest
	}
	return &server.StatusError{Code: code, Err: err}
}

// projectRecords converts the known projects into their API representation.
func projectRecords(projects *ProjectRegistry) []store.ProjectRecord {
	all := projects.All()
	out := make([]store.ProjectRecord, 0, len(all))
	for _, p := range all {
		out = append(out, store.ProjectRecord{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return out
}
