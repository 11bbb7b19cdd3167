package floradex

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FrameLoader loads the dashboard target the way a browser loads an embedded
// frame. Load returns nil once the frame has loaded and an error if the load
// failed. The context is cancelled when the attempt is superseded, timed out,
// or the widget is destroyed.
type FrameLoader interface {
	Load(ctx context.Context, target string) error
}

// FrameLoaderFunc adapts a function to [FrameLoader].
type FrameLoaderFunc func(ctx context.Context, target string) error

// Load calls f(ctx, target).
func (f FrameLoaderFunc) Load(ctx context.Context, target string) error {
	return f(ctx, target)
}

// Widget is one dashboard embed bound to one container on the page.
//
// A Widget is created by [Registry.Create] or [Registry.Discover] and driven
// through its lifecycle by [Widget.Init], [Widget.Update], [Widget.Retry] and
// [Widget.Destroy]. All methods are safe for concurrent use; attempts for a
// single widget are serialised, so a new attempt always releases the previous
// attempt's timer and load before it starts.
type Widget struct {
	id  string
	reg *Registry

	mu          sync.Mutex
	settings    Settings
	state       Lifecycle
	retryCount  int
	initialized bool
	container   Container
	claimedID   string
	current     *attempt
	seq         uint64
	destroyed   chan struct{}

	// pending holds events in transition order until flush dispatches them.
	pending  []queuedEvent
	flushing bool
}

// queuedEvent pairs an event with the widget state at the transition that
// produced it.
type queuedEvent struct {
	ev    Event
	state WidgetState
}

func newWidget(id string, reg *Registry, settings Settings) *Widget {
	return &Widget{
		id:        id,
		reg:       reg,
		settings:  settings,
		state:     StateUninitialized,
		destroyed: make(chan struct{}),
	}
}

// ID returns the generated instance id.
func (w *Widget) ID() string {
	return w.id
}

// Settings returns a copy of the current effective settings.
func (w *Widget) Settings() Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings.clone()
}

// State returns a snapshot of the widget's lifecycle fields.
func (w *Widget) State() WidgetState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Widget) stateLocked() WidgetState {
	return WidgetState{
		IsInitialized: w.initialized,
		ProjectID:     w.settings.ProjectID,
		Theme:         w.settings.Theme,
		RetryCount:    w.retryCount,
		Lifecycle:     w.state,
	}
}

// IsReady reports whether the dashboard frame has finished loading.
func (w *Widget) IsReady() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == StateReady
}

// CanRetry reports whether [Widget.Retry] would currently be accepted.
func (w *Widget) CanRetry() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canRetryLocked()
}

func (w *Widget) canRetryLocked() bool {
	return w.state == StateError && w.retryCount < w.settings.effectiveRetryAttempts()
}

// Target returns the dashboard URL of the most recent attempt, or "" if no
// target has been built yet.
func (w *Widget) Target() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateDestroyed || !w.initialized {
		return ""
	}
	return BuildTarget(w.reg.baseURL, w.settings, w.reg.profile)
}

// Done is closed when the widget is destroyed.
func (w *Widget) Done() <-chan struct{} {
	return w.destroyed
}

// Init starts a new attempt: validate, build the target, request the load and
// arm the loading timeout. Any attempt still in flight is cancelled first.
//
// Validation and load failures do not surface as errors; they move the widget
// to [StateError] and dispatch an error event. Init returns [ErrDestroyed]
// for a destroyed widget.
func (w *Widget) Init() error {
	w.mu.Lock()
	if w.state == StateDestroyed {
		w.mu.Unlock()
		return ErrDestroyed
	}
	w.beginLocked()
	w.mu.Unlock()

	w.flush()
	return nil
}

// Update applies the options over the current settings; keys not touched by
// an option keep their value. If the widget has passed validation at least
// once, a new attempt starts with the merged settings. Otherwise the settings
// are only stored.
func (w *Widget) Update(opts ...Option) error {
	w.mu.Lock()
	if w.state == StateDestroyed {
		w.mu.Unlock()
		return ErrDestroyed
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&w.settings)
		}
	}
	if w.initialized {
		w.beginLocked()
	}
	w.mu.Unlock()

	w.flush()
	return nil
}

// Retry re-enters validation from the error state. Each retry consumes one of
// the widget's retry attempts; once they are used up Retry returns
// [ErrRetryExhausted] and the retry count no longer changes.
func (w *Widget) Retry() error {
	w.mu.Lock()
	switch {
	case w.state == StateDestroyed:
		w.mu.Unlock()
		return ErrDestroyed
	case w.state != StateError:
		w.mu.Unlock()
		return ErrRetryUnavailable
	case w.retryCount >= w.settings.effectiveRetryAttempts():
		w.mu.Unlock()
		return ErrRetryExhausted
	}
	w.retryCount++
	w.reg.logger.Info("widget retry",
		"instance_id", w.id,
		"project_id", w.settings.ProjectID,
		"retry_count", w.retryCount,
	)
	w.beginLocked()
	w.mu.Unlock()

	w.flush()
	return nil
}

// Destroy tears the widget down from any state: the in-flight attempt is
// cancelled, the container is cleared, lifecycle fields are reset and a
// destroyed event is dispatched. The widget is removed from its registry and
// cannot be reused. Destroy is idempotent and never fails because of a
// missing or detached container.
func (w *Widget) Destroy() error {
	w.mu.Lock()
	if w.state == StateDestroyed {
		w.mu.Unlock()
		return nil
	}

	w.current.settle()
	w.current = nil

	if w.container != nil {
		c := w.container
		w.guard("clear container", c.Clear)
	}

	ev := w.eventLocked(EventDestroyed)
	w.state = StateDestroyed
	w.initialized = false
	w.retryCount = 0
	w.container = nil
	w.claimedID = ""
	w.settings = DefaultSettings()
	close(w.destroyed)
	w.queueLocked(ev)
	w.mu.Unlock()

	w.reg.remove(w)
	w.flush()
	return nil
}

// beginLocked runs validation and, when it passes, starts the load.
func (w *Widget) beginLocked() {
	w.current.settle()
	w.current = nil
	w.state = StateValidating

	s := w.settings
	log := w.reg.logger.With("instance_id", w.id, "container_id", s.ContainerID)

	container, ok := w.lookupContainer(s.ContainerID)
	if !ok {
		w.releaseContainerLocked()
		log.Error("container element not found")
		w.failLocked(ReasonContainerNotFound, "", "", false)
		return
	}
	if w.claimedID != container.ID() {
		w.releaseContainerLocked()
	}
	if !w.reg.claim(container.ID(), w.id) {
		log.Error("container already claimed by another widget")
		w.failLocked(ReasonContainerInUse, "", "", false)
		return
	}
	w.claimedID = container.ID()
	w.container = container

	if s.ProjectID == "" {
		log.Error("project id is required")
		w.failLocked(ReasonMissingProject, "Project ID is required", "", true)
		return
	}
	if _, ok := w.reg.projects.Lookup(s.ProjectID); !ok {
		log.Error("project not found", "project_id", s.ProjectID)
		w.failLocked(ReasonUnknownProject, fmt.Sprintf("Project %q is not available", s.ProjectID), "", true)
		return
	}

	w.initialized = true
	target := BuildTarget(w.reg.baseURL, s, w.reg.profile)

	ctx, cancel := context.WithCancel(context.Background())
	w.seq++
	att := &attempt{seq: w.seq, target: target, cancel: cancel}
	w.current = att
	w.state = StateLoading
	w.renderLocked(loadingView(s, w.reg.projects, target))

	att.timer = w.reg.clock.AfterFunc(s.effectiveTimeout(), func() {
		w.complete(att, outcomeTimedOut, nil)
	})
	go w.load(ctx, att)

	log.Info("widget initialized", "project_id", s.ProjectID, "target", target, "attempt", att.seq)
	ev := w.eventLocked(EventInitialized)
	ev.Target = target
	w.queueLocked(ev)
}

// load runs the frame load for one attempt and reports its completion.
func (w *Widget) load(ctx context.Context, att *attempt) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				correlationID := uuid.NewString()
				w.reg.logger.Error("frame loader panic",
					"correlation_id", correlationID,
					"instance_id", w.id,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				err = fmt.Errorf("frame loader panic (correlation_id: %s)", correlationID)
			}
		}()
		err = w.reg.loader.Load(ctx, att.target)
	}()

	if err != nil {
		w.complete(att, outcomeFailed, err)
		return
	}
	w.complete(att, outcomeLoaded, nil)
}

// complete applies the first completion of an attempt. Completions of a
// settled or superseded attempt are dropped.
func (w *Widget) complete(att *attempt, oc outcome, cause error) {
	w.mu.Lock()
	if w.current != att || !att.settle() {
		w.mu.Unlock()
		return
	}
	w.current = nil

	s := w.settings
	switch oc {
	case outcomeLoaded:
		w.state = StateReady
		w.renderLocked(readyView(s, w.reg.projects, att.target))
		w.reg.logger.Info("widget loaded",
			"instance_id", w.id,
			"project_id", s.ProjectID,
			"attempt", att.seq,
		)
		ev := w.eventLocked(EventLoaded)
		ev.Target = att.target
		w.queueLocked(ev)

	case outcomeFailed:
		w.reg.logger.Warn("widget load failed",
			"instance_id", w.id,
			"project_id", s.ProjectID,
			"target", att.target,
			"error", errString(cause),
		)
		w.failLocked(ReasonLoadFailed, "Failed to load widget", att.target, true)

	case outcomeTimedOut:
		w.reg.logger.Warn("widget loading timed out",
			"instance_id", w.id,
			"project_id", s.ProjectID,
			"target", att.target,
			"timeout", s.effectiveTimeout().String(),
		)
		w.failLocked(ReasonLoadingTimeout, "Loading timed out", att.target, true)
	}
	w.mu.Unlock()

	w.flush()
}

// failLocked moves the widget to the error state. When render is set the
// container content is replaced by the inert error view.
func (w *Widget) failLocked(reason Reason, message, target string, render bool) {
	w.state = StateError
	if render {
		w.renderLocked(errorView(w.settings, message, w.canRetryLocked()))
	}
	ev := w.eventLocked(EventError)
	ev.Reason = reason
	ev.Target = target
	w.queueLocked(ev)
}

func (w *Widget) eventLocked(t EventType) Event {
	return Event{
		Type:        t,
		InstanceID:  w.id,
		ProjectID:   w.settings.ProjectID,
		ContainerID: w.settings.ContainerID,
		RetryCount:  w.retryCount,
		Time:        time.Now(),
	}
}

func (w *Widget) lookupContainer(id string) (c Container, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.reg.logger.Error("page container lookup panicked", "instance_id", w.id, "panic", r)
			c, ok = nil, false
		}
	}()
	if id == "" {
		return nil, false
	}
	return w.reg.page.Container(id)
}

// releaseContainerLocked clears the container the widget rendered into and
// gives up its claim. The claim may exist without a container when the widget
// was registered against an id that never resolved.
func (w *Widget) releaseContainerLocked() {
	if w.container != nil {
		old := w.container
		w.container = nil
		w.guard("clear previous container", old.Clear)
	}
	if w.claimedID != "" {
		w.reg.release(w.claimedID, w.id)
		w.claimedID = ""
	}
}

func (w *Widget) renderLocked(v View) {
	if w.container == nil {
		return
	}
	c := w.container
	v.InstanceID = w.id
	w.guard("render view", func() error { return c.Render(v) })
}

// guard runs a page write, logging failures and recovering panics so that
// page problems never escape the widget.
func (w *Widget) guard(op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			w.reg.logger.Error("page operation panicked", "op", op, "instance_id", w.id, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		w.reg.logger.Warn("page operation failed", "op", op, "instance_id", w.id, "error", err.Error())
	}
}

func (w *Widget) queueLocked(ev Event) {
	w.pending = append(w.pending, queuedEvent{ev: ev, state: w.stateLocked()})
}

// flush dispatches pending events in order. Only one goroutine flushes a
// widget at a time; events queued meanwhile, including those queued by
// handlers re-entering the widget, are picked up by the active flusher.
func (w *Widget) flush() {
	w.mu.Lock()
	if w.flushing {
		w.mu.Unlock()
		return
	}
	w.flushing = true
	for len(w.pending) > 0 {
		batch := w.pending
		w.pending = nil
		w.mu.Unlock()

		for _, q := range batch {
			w.reg.dispatch(q.ev, q.state)
		}

		w.mu.Lock()
	}
	w.flushing = false
	w.mu.Unlock()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
