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
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenize/floradex/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeActions records calls and returns the configured errors.
type fakeActions struct {
	mu         sync.Mutex
	retried    []string
	destroyed  []string
	destroyAll int
	lastAttrs  map[string]string

	retryErr   error
	destroyErr error
	previewErr error
}

func (f *fakeActions) Retry(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retried = append(f.retried, id)
	return f.retryErr
}

func (f *fakeActions) Destroy(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, id)
	return f.destroyErr
}

func (f *fakeActions) DestroyAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyAll++
	return nil
}

func (f *fakeActions) PreviewTarget(attrs map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAttrs = attrs
	if f.previewErr != nil {
		return "", f.previewErr
	}
	return "https://example.com/?project=" + attrs["project"] + "&widget=true", nil
}

type stubPage struct{ err error }

func (p stubPage) WriteHTML(w io.Writer) error {
	if p.err != nil {
		return p.err
	}
	_, err := io.WriteString(w, "<html>host page</html>")
	return err
}

func newTestServer(actions *fakeActions) (*Server, *store.MemoryStore) {
	st := store.NewMemoryStore()
	projects := []store.ProjectRecord{{ID: "bodmin-airfield", Name: "Bodmin Airfield"}}
	return NewServer(st, actions, stubPage{}, projects, 0, testLogger()), st
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlePage(t *testing.T) {
	srv, _ := newTestServer(&fakeActions{})

	rec := do(t, srv.Handler(), http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "host page")
}

func TestHandlePage_NoRenderer(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), &fakeActions{}, nil, nil, 0, testLogger())

	rec := do(t, srv.Handler(), http.MethodGet, "/")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleInstances(t *testing.T) {
	srv, st := newTestServer(&fakeActions{})
	st.Put(store.InstanceRecord{ID: "a", ProjectID: "bodmin-airfield", State: "ready"})
	st.Put(store.InstanceRecord{ID: "b", ProjectID: "", State: "error", LastReason: "missing_project"})

	rec := do(t, srv.Handler(), http.MethodGet, "/api/instances")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []store.InstanceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "missing_project", got[1].LastReason)
}

func TestHandleProjects(t *testing.T) {
	srv, _ := newTestServer(&fakeActions{})

	rec := do(t, srv.Handler(), http.MethodGet, "/api/projects")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"bodmin-airfield","name":"Bodmin Airfield"}]`, rec.Body.String())
}

func TestHandleProjects_Description(t *testing.T) {
	projects := []store.ProjectRecord{
		{ID: "tamar-valley-centre", Name: "Tamar Valley Centre", Description: "Riverside meadow survey"},
	}
	srv := NewServer(store.NewMemoryStore(), &fakeActions{}, nil, projects, 0, testLogger())

	rec := do(t, srv.Handler(), http.MethodGet, "/api/projects")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []store.ProjectRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, projects, got)
}

func TestHandleProjects_Empty(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), &fakeActions{}, nil, nil, 0, testLogger())

	rec := do(t, srv.Handler(), http.MethodGet, "/api/projects")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandleTarget(t *testing.T) {
	actions := &fakeActions{}
	srv, _ := newTestServer(actions)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/target?project=bodmin-airfield&theme=dark")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"target":"https://example.com/?project=bodmin-airfield&widget=true"}`, rec.Body.String())
	assert.Equal(t, map[string]string{"project": "bodmin-airfield", "theme": "dark"}, actions.lastAttrs)
}

func TestHandleTarget_Error(t *testing.T) {
	actions := &fakeActions{
		previewErr: &StatusError{Code: http.StatusBadRequest, Err: errors.New("project id is required")},
	}
	srv, _ := newTestServer(actions)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/target")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"project id is required"}`, rec.Body.String())
}

func TestHandleRetry(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "accepted", wantCode: http.StatusAccepted},
		{
			name:     "not found",
			err:      &StatusError{Code: http.StatusNotFound, Err: errors.New("widget instance not found")},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "exhausted",
			err:      fmt.Errorf("retry: %w", &StatusError{Code: http.StatusConflict, Err: errors.New("retry attempts exhausted")}),
			wantCode: http.StatusConflict,
		},
		{name: "plain error", err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := &fakeActions{retryErr: tt.err}
			srv, _ := newTestServer(actions)

			rec := do(t, srv.Handler(), http.MethodPost, "/api/instances/inst-1/retry")

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, []string{"inst-1"}, actions.retried)
		})
	}
}

func TestHandleDestroy(t *testing.T) {
	actions := &fakeActions{}
	srv, _ := newTestServer(actions)

	rec := do(t, srv.Handler(), http.MethodDelete, "/api/instances/inst-9")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"inst-9"}, actions.destroyed)
}

func TestHandleDestroyAll(t *testing.T) {
	actions := &fakeActions{}
	srv, _ := newTestServer(actions)

	rec := do(t, srv.Handler(), http.MethodDelete, "/api/instances")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, actions.destroyAll)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(&fakeActions{})

	rec := do(t, srv.Handler(), http.MethodPost, "/api/instances")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleSSE_StreamsEvents(t *testing.T) {
	srv, st := newTestServer(&fakeActions{})

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)

	st.Publish(store.EventRecord{Type: "loaded", InstanceID: "inst-1", ProjectID: "bodmin-airfield"})

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	body := rec.Body.String()
	assert.Contains(t, body, "data: ")
	assert.Contains(t, body, `"type":"loaded"`)
	assert.Contains(t, body, `"instance_id":"inst-1"`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestHandleSSE_ServerShutdown(t *testing.T) {
	srv, _ := newTestServer(&fakeActions{})

	// request context stands in for the server context given through BaseContext
	serverCtx, serverCancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(serverCtx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	serverCancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after server shutdown")
	}
}

func TestHandleSSE_SSENotSupported(t *testing.T) {
	srv, _ := newTestServer(&fakeActions{})

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := &nonFlushWriter{header: make(http.Header)}

	srv.handleSSE(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.statusCode)
}

type nonFlushWriter struct {
	header     http.Header
	statusCode int
	body       []byte
}

func (n *nonFlushWriter) Header() http.Header {
	return n.header
}

func (n *nonFlushWriter) Write(b []byte) (int, error) {
	n.body = append(n.body, b...)
	return len(b), nil
}

func (n *nonFlushWriter) WriteHeader(statusCode int) {
	n.statusCode = statusCode
}

func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	srv := NewServer(store.NewMemoryStore(), &fakeActions{}, nil, nil, port, testLogger())

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to bind"), "got %v", err)
}

func TestStart_ServesAndShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	srv, _ := newTestServer(&fakeActions{})
	srv.port = port

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/instances", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	assert.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/instances", port))
		if err != nil {
			return true
		}
		resp.Body.Close()
		return false
	}, 2*time.Second, 20*time.Millisecond)
}
