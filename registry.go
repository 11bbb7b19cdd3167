package floradex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pollenize/floradex/internal/frame"
	"github.com/pollenize/floradex/internal/store"
)

// fallbackIDPrefix prefixes generated element ids for id-less mount points.
const fallbackIDPrefix = "floradex-widget-"

// ErrContainerClaimed is returned by [Registry.Create] when another live
// widget already owns the requested container.
var ErrContainerClaimed = errors.New("container is already claimed by another widget")

// Registry tracks every live widget mounted on one page.
//
// Registry is the process-wide instance set: widgets enter it through
// [Registry.Create] or [Registry.Discover] and leave it when destroyed. It
// exposes snapshots ([Registry.Enumerate]) and bulk operations
// ([Registry.DestroyAll]) only; callers never iterate live internal state.
// At most one live widget claims any container id at a time.
type Registry struct {
	page     Page
	projects *ProjectRegistry
	loader   FrameLoader
	clock    Clock
	logger   *slog.Logger
	baseURL  string
	profile  Profile
	defaults Settings
	handlers []func(Event)
	store    *store.MemoryStore

	mu      sync.RWMutex
	widgets map[string]*Widget
	order   []string
	claims  map[string]string
}

// New creates a [Registry] for the given page.
//
// Defaults: the built-in project registry, an HTTP frame loader, the system
// clock, [DefaultBaseURL], [ProfileFull] and slog.Default().
func New(page Page, opts ...RegistryOption) (*Registry, error) {
	if page == nil {
		return nil, errors.New("page cannot be nil")
	}

	cfg := &registryConfig{
		baseURL:  DefaultBaseURL,
		profile:  ProfileFull,
		defaults: DefaultSettings(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	projects := cfg.projects
	if projects == nil {
		projects = NewProjectRegistry()
	}
	loader := cfg.loader
	if loader == nil {
		loader = frame.NewClient()
	}
	clock := cfg.clock
	if clock == nil {
		clock = systemClock{}
	}

	return &Registry{
		page:     page,
		projects: projects,
		loader:   loader,
		clock:    clock,
		logger:   logger,
		baseURL:  cfg.baseURL,
		profile:  cfg.profile,
		defaults: cfg.defaults,
		handlers: cfg.handlers,
		store:    store.NewMemoryStore(),
		widgets:  make(map[string]*Widget),
		claims:   make(map[string]string),
	}, nil
}

// Projects returns the project registry used for validation.
func (r *Registry) Projects() *ProjectRegistry {
	return r.projects
}

// Store returns the snapshot store that mirrors the live instance set.
func (r *Registry) Store() store.Store {
	return r.store
}

// Create constructs a widget from the page's script-tag attributes and the
// given options, registers it and initialises it. If the page has not
// finished loading, initialisation waits for the page's ready signal.
func (r *Registry) Create(opts ...Option) (*Widget, error) {
	return r.create(uuid.NewString(), r.page.ScriptAttributes(), opts...)
}

func (r *Registry) create(id string, attrs Attributes, opts ...Option) (*Widget, error) {
	settings := r.profile.Resolve(r.defaults, attrs, opts...)

	w := newWidget(id, r, settings)
	if err := r.add(w); err != nil {
		return nil, err
	}
	r.store.Put(store.InstanceRecord{
		ID:          id,
		ContainerID: settings.ContainerID,
		ProjectID:   settings.ProjectID,
		Theme:       settings.Theme.String(),
		State:       StateUninitialized.String(),
		UpdatedAt:   time.Now(),
	})

	ready := r.page.Ready()
	if isReady(ready) {
		_ = w.Init()
		return w, nil
	}
	go func() {
		select {
		case <-ready:
			_ = w.Init()
		case <-w.Done():
		}
	}()
	return w, nil
}

// Discover mounts a widget on every element marked for auto-mounting. When the
// page marks none, a single widget is mounted on the container named by the
// script's container attribute, or on the well-known fallback container if the
// script names none. Elements that already host a live widget are skipped.
//
// If nothing is found and the page is still loading, Discover waits for the
// page's ready signal (or ctx) and scans exactly once more.
func (r *Registry) Discover(ctx context.Context) ([]*Widget, error) {
	widgets, err := r.discoverOnce()
	if len(widgets) > 0 || err != nil {
		return widgets, err
	}

	ready := r.page.Ready()
	if isReady(ready) {
		return nil, nil
	}

	r.logger.Debug("no mount points found, waiting for page ready")
	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r.discoverOnce()
}

func (r *Registry) discoverOnce() ([]*Widget, error) {
	script := r.page.ScriptAttributes()
	mounts := r.page.MountPoints()

	var (
		widgets []*Widget
		errs    []error
	)

	for _, mp := range mounts {
		id := uuid.NewString()
		containerID := mp.ID()
		if containerID == "" {
			containerID = fallbackIDPrefix + id
			mp.AssignID(containerID)
		}
		if r.claimed(containerID) {
			continue
		}

		w, err := r.create(id, script.Overlay(mp.Attributes()), WithContainer(containerID))
		if err != nil {
			errs = append(errs, fmt.Errorf("mount %q: %w", containerID, err))
			continue
		}
		widgets = append(widgets, w)
	}

	if len(mounts) == 0 {
		// the well-known id sits below the script's own container attribute
		attrs := Attributes{"container": DefaultContainerID}.Overlay(script)
		var opts []Option
		if !r.profile.recognises("container") {
			opts = append(opts, WithContainer(DefaultContainerID))
		}
		containerID := r.profile.Resolve(r.defaults, attrs, opts...).ContainerID
		if _, ok := r.page.Container(containerID); ok && !r.claimed(containerID) {
			w, err := r.create(uuid.NewString(), attrs, opts...)
			if err != nil {
				errs = append(errs, fmt.Errorf("mount %q: %w", containerID, err))
			} else {
				widgets = append(widgets, w)
			}
		}
	}

	if len(widgets) > 0 {
		r.logger.Info("widgets discovered", "count", len(widgets))
	}
	return widgets, errors.Join(errs...)
}

// Enumerate returns the live widgets in creation order. The slice is a
// snapshot; call Enumerate again to observe later changes.
func (r *Registry) Enumerate() []*Widget {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Widget, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.widgets[id])
	}
	return out
}

// Get returns the live widget with the given instance id.
func (r *Registry) Get(id string) (*Widget, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.widgets[id]
	return w, ok
}

// DestroyAll destroys every enumerated widget. A failure on one widget does
// not stop the others; all failures are joined into the returned error.
func (r *Registry) DestroyAll() error {
	var errs []error
	for _, w := range r.Enumerate() {
		if err := destroySafe(w); err != nil {
			errs = append(errs, fmt.Errorf("destroy %s: %w", w.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Close destroys every widget and releases the frame loader's resources.
func (r *Registry) Close() error {
	err := r.DestroyAll()
	if c, ok := r.loader.(interface{ Close() }); ok {
		c.Close()
	}
	return err
}

// Retry retries the widget with the given id. See [Widget.Retry].
func (r *Registry) Retry(id string) error {
	w, ok := r.Get(id)
	if !ok {
		return ErrInstanceNotFound
	}
	return w.Retry()
}

// Destroy destroys the widget with the given id. See [Widget.Destroy].
func (r *Registry) Destroy(id string) error {
	w, ok := r.Get(id)
	if !ok {
		return ErrInstanceNotFound
	}
	return w.Destroy()
}

// PreviewTarget resolves the given attributes over the registry defaults,
// validates the project and returns the dashboard target without mounting a
// widget.
func (r *Registry) PreviewTarget(attrs map[string]string) (string, error) {
	s := r.profile.Resolve(r.defaults, Attributes(attrs))
	if s.ProjectID == "" {
		return "", fmt.Errorf("%w: project is required", ErrInvalidProject)
	}
	if _, ok := r.projects.Lookup(s.ProjectID); !ok {
		return "", fmt.Errorf("%w: project %q is not available", ErrInvalidProject, s.ProjectID)
	}
	return BuildTarget(r.baseURL, s, r.profile), nil
}

// Subscribe returns a channel of lifecycle event records. Callers must call
// [Registry.Unsubscribe] when done.
func (r *Registry) Subscribe() <-chan store.EventRecord {
	return r.store.Subscribe()
}

// Unsubscribe releases a channel returned by [Registry.Subscribe].
func (r *Registry) Unsubscribe(ch <-chan store.EventRecord) {
	r.store.Unsubscribe(ch)
}

func (r *Registry) add(w *Widget) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	containerID := w.settings.ContainerID
	if owner, ok := r.claims[containerID]; ok && owner != w.id {
		return fmt.Errorf("%w: %q", ErrContainerClaimed, containerID)
	}
	if containerID != "" {
		r.claims[containerID] = w.id
		w.claimedID = containerID
	}
	r.widgets[w.id] = w
	r.order = append(r.order, w.id)
	return nil
}

// remove drops a destroyed widget and every container claim it holds.
func (r *Registry) remove(w *Widget) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.widgets, w.id)
	for i, id := range r.order {
		if id == w.id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for container, owner := range r.claims {
		if owner == w.id {
			delete(r.claims, container)
		}
	}
}

// claim records id as the owner of container. It reports false when another
// widget already owns it.
func (r *Registry) claim(container, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.claims[container]; ok && owner != id {
		return false
	}
	r.claims[container] = id
	return true
}

func (r *Registry) release(container, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claims[container] == id {
		delete(r.claims, container)
	}
}

func (r *Registry) claimed(container string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.claims[container]
	return ok
}

// dispatch mirrors the event into the snapshot store and notifies handlers.
func (r *Registry) dispatch(ev Event, st WidgetState) {
	if ev.Type == EventDestroyed {
		r.store.Remove(ev.InstanceID)
	} else {
		r.store.Put(store.InstanceRecord{
			ID:          ev.InstanceID,
			ContainerID: ev.ContainerID,
			ProjectID:   st.ProjectID,
			Theme:       st.Theme.String(),
			State:       st.Lifecycle.String(),
			Initialized: st.IsInitialized,
			RetryCount:  st.RetryCount,
			Target:      ev.Target,
			LastReason:  string(ev.Reason),
			UpdatedAt:   ev.Time,
		})
	}

	r.store.Publish(store.EventRecord{
		Type:        string(ev.Type),
		InstanceID:  ev.InstanceID,
		ProjectID:   ev.ProjectID,
		ContainerID: ev.ContainerID,
		Reason:      string(ev.Reason),
		Target:      ev.Target,
		RetryCount:  ev.RetryCount,
		Time:        ev.Time,
	})

	for _, h := range r.handlers {
		invokeHandlerSafe(h, ev, r.logger)
	}
}

// invokeHandlerSafe calls an event handler with panic recovery.
// Panics are logged but do not propagate.
func invokeHandlerSafe(h func(Event), ev Event, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked",
				"panic", r,
				"event", string(ev.Type),
				"instance_id", ev.InstanceID,
			)
		}
	}()
	h(ev)
}

// destroySafe destroys w, converting a panic into an error.
func destroySafe(w *Widget) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("destroy panicked: %v", r)
		}
	}()
	return w.Destroy()
}
