package floradex

import (
	"errors"
	"time"
)

// Lifecycle is the state of a widget instance.
type Lifecycle string

const (
	StateUninitialized Lifecycle = "uninitialized"
	StateValidating    Lifecycle = "validating"
	StateLoading       Lifecycle = "loading"
	StateReady         Lifecycle = "ready"
	StateError         Lifecycle = "error"
	StateDestroyed     Lifecycle = "destroyed"
)

// String returns the string representation of the lifecycle state.
func (l Lifecycle) String() string {
	return string(l)
}

// Reason is the machine-readable cause carried by an error event.
type Reason string

const (
	ReasonContainerNotFound Reason = "container_not_found"
	ReasonContainerInUse    Reason = "container_in_use"
	ReasonMissingProject    Reason = "missing_project"
	ReasonUnknownProject    Reason = "unknown_project"
	ReasonLoadFailed        Reason = "iframe_load_failed"
	ReasonLoadingTimeout    Reason = "loading_timeout"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventInitialized EventType = "initialized"
	EventLoaded      EventType = "loaded"
	EventError       EventType = "error"
	EventDestroyed   EventType = "destroyed"
)

// Event is dispatched to registry subscribers on every lifecycle transition
// that callers can observe.
type Event struct {
	Type        EventType
	InstanceID  string
	ProjectID   string
	ContainerID string

	// Reason is set for EventError only.
	Reason Reason

	// Target is the dashboard URL of the attempt, when one was built.
	Target string

	RetryCount int
	Time       time.Time
}

// WidgetState is a read-only snapshot of a widget, as returned by
// [Widget.State].
type WidgetState struct {
	IsInitialized bool
	ProjectID     string
	Theme         Theme
	RetryCount    int
	Lifecycle     Lifecycle
}

var (
	// ErrDestroyed is returned by lifecycle operations on a destroyed widget.
	ErrDestroyed = errors.New("widget has been destroyed")

	// ErrRetryUnavailable is returned by [Widget.Retry] when the widget is not
	// in the error state.
	ErrRetryUnavailable = errors.New("retry is only available from the error state")

	// ErrRetryExhausted is returned by [Widget.Retry] once all retry attempts
	// have been used.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrInstanceNotFound is returned by registry lookups for unknown ids.
	ErrInstanceNotFound = errors.New("widget instance not found")

	// ErrInvalidProject is returned by [Registry.PreviewTarget] when the
	// project is missing or unknown.
	ErrInvalidProject = errors.New("invalid project")
)
