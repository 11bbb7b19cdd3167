package floradex

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- page fakes ---

type fakeContainer struct {
	id string

	mu       sync.Mutex
	views    []View
	cleared  int
	detached bool
	panics   bool
}

func (c *fakeContainer) ID() string { return c.id }

func (c *fakeContainer) Render(v View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panics {
		panic("render exploded")
	}
	if c.detached {
		return errors.New("detached")
	}
	c.views = append(c.views, v)
	return nil
}

func (c *fakeContainer) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panics {
		panic("clear exploded")
	}
	c.cleared++
	if c.detached {
		return errors.New("detached")
	}
	return nil
}

func (c *fakeContainer) lastView() (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.views) == 0 {
		return View{}, false
	}
	return c.views[len(c.views)-1], true
}

func (c *fakeContainer) renderCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.views)
}

func (c *fakeContainer) clearCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleared
}

type fakeMount struct {
	mu    sync.Mutex
	id    string
	attrs Attributes
}

func (m *fakeMount) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *fakeMount) AssignID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.id == "" {
		m.id = id
	}
}

func (m *fakeMount) Attributes() Attributes { return m.attrs }

type fakePage struct {
	mu         sync.Mutex
	containers map[string]*fakeContainer
	mounts     []*fakeMount
	script     Attributes
	ready      chan struct{}
}

// newFakePage returns a ready page with the given containers.
func newFakePage(ids ...string) *fakePage {
	p := &fakePage{
		containers: make(map[string]*fakeContainer),
		ready:      make(chan struct{}),
	}
	close(p.ready)
	for _, id := range ids {
		p.addContainer(id)
	}
	return p
}

// newLoadingPage returns a page whose ready signal has not fired.
func newLoadingPage(ids ...string) *fakePage {
	p := &fakePage{
		containers: make(map[string]*fakeContainer),
		ready:      make(chan struct{}),
	}
	for _, id := range ids {
		p.addContainer(id)
	}
	return p
}

func (p *fakePage) addContainer(id string) *fakeContainer {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &fakeContainer{id: id}
	p.containers[id] = c
	return c
}

// addMount adds an auto-mount element; an element with an id is also a
// container, and an id-less element becomes one once an id is assigned.
func (p *fakePage) addMount(id string, attrs Attributes) *fakeMount {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &fakeMount{id: id, attrs: attrs}
	p.mounts = append(p.mounts, m)
	return m
}

func (p *fakePage) remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.containers[id]; ok {
		c.mu.Lock()
		c.detached = true
		c.mu.Unlock()
		delete(p.containers, id)
	}
}

func (p *fakePage) container(id string) *fakeContainer {
	c, _ := p.Container(id)
	if c == nil {
		return nil
	}
	return c.(*fakeContainer)
}

func (p *fakePage) Container(id string) (Container, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.containers[id]; ok {
		return c, true
	}
	for _, m := range p.mounts {
		if m.ID() == id && id != "" {
			c := &fakeContainer{id: id}
			p.containers[id] = c
			return c, true
		}
	}
	return nil, false
}

func (p *fakePage) MountPoints() []MountPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MountPoint, len(p.mounts))
	for i, m := range p.mounts {
		out[i] = m
	}
	return out
}

func (p *fakePage) ScriptAttributes() Attributes { return p.script }

func (p *fakePage) Ready() <-chan struct{} { return p.ready }

// --- clock fake ---

type fakeTimer struct {
	d time.Duration
	f func()

	mu      sync.Mutex
	stopped bool
}

// Stop marks the timer stopped. Fire still runs the callback afterwards so
// tests can simulate a timer that was already in flight.
func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *fakeTimer) Fire() { t.f() }

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *fakeClock) timer(t *testing.T, i int) *fakeTimer {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= len(c.timers) {
		t.Fatalf("timer %d not armed (have %d)", i, len(c.timers))
	}
	return c.timers[i]
}

func (c *fakeClock) last(t *testing.T) *fakeTimer {
	t.Helper()
	return c.timer(t, c.count()-1)
}

// --- loader fake ---

type loadCall struct {
	ctx    context.Context
	target string
	result chan error
}

func (c *loadCall) succeed() { c.result <- nil }

func (c *loadCall) fail(err error) { c.result <- err }

// fakeLoader blocks every Load until the test resolves it or the attempt's
// context ends.
type fakeLoader struct {
	calls chan *loadCall
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{calls: make(chan *loadCall, 32)}
}

func (l *fakeLoader) Load(ctx context.Context, target string) error {
	call := &loadCall{ctx: ctx, target: target, result: make(chan error, 1)}
	l.calls <- call
	select {
	case err := <-call.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *fakeLoader) next(t *testing.T) *loadCall {
	t.Helper()
	select {
	case c := <-l.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame load")
		return nil
	}
}

func (l *fakeLoader) expectNone(t *testing.T) {
	t.Helper()
	select {
	case c := <-l.calls:
		t.Fatalf("unexpected frame load of %q", c.target)
	case <-time.After(50 * time.Millisecond):
	}
}

// --- event recorder ---

type recorder struct {
	ch chan Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Event, 64)}
}

func (r *recorder) handle(ev Event) {
	select {
	case r.ch <- ev:
	default:
	}
}

func (r *recorder) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return Event{}
	}
}

func (r *recorder) expect(t *testing.T, want EventType) Event {
	t.Helper()
	ev := r.next(t)
	if ev.Type != want {
		t.Fatalf("event = %s (reason %q), want %s", ev.Type, ev.Reason, want)
	}
	return ev
}

func (r *recorder) expectNone(t *testing.T) {
	t.Helper()
	select {
	case ev := <-r.ch:
		t.Fatalf("unexpected %s event (reason %q)", ev.Type, ev.Reason)
	case <-time.After(50 * time.Millisecond):
	}
}

// --- fixture ---

type fixture struct {
	page   *fakePage
	clock  *fakeClock
	loader *fakeLoader
	events *recorder
	reg    *Registry
}

func newFixture(t *testing.T, page *fakePage, opts ...RegistryOption) *fixture {
	t.Helper()
	f := &fixture{
		page:   page,
		clock:  &fakeClock{},
		loader: newFakeLoader(),
		events: newRecorder(),
	}
	base := []RegistryOption{
		WithLogger(testLogger()),
		WithClock(f.clock),
		WithFrameLoader(f.loader),
		WithEventHandler(f.events.handle),
	}
	reg, err := New(page, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.reg = reg
	t.Cleanup(func() { _ = reg.DestroyAll() })
	return f
}

func (f *fixture) create(t *testing.T, opts ...Option) *Widget {
	t.Helper()
	w, err := f.reg.Create(opts...)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return w
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
