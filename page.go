package floradex

// Page is the host page a registry mounts widgets into.
//
// The widget never owns the page; it only looks containers up by id and
// writes views into them. Implementations must be safe for concurrent use.
// The page package provides an in-memory implementation.
type Page interface {
	// Container returns the element with the given id.
	Container(id string) (Container, bool)

	// MountPoints returns the elements explicitly marked for auto-mounting,
	// in page order.
	MountPoints() []MountPoint

	// ScriptAttributes returns the attributes declared on the embedding
	// script tag. The result may be empty.
	ScriptAttributes() Attributes

	// Ready is closed once the page has finished loading.
	Ready() <-chan struct{}
}

// Container is a mount point a widget renders into.
type Container interface {
	// ID returns the element id.
	ID() string

	// Render replaces the container content with the view.
	Render(v View) error

	// Clear removes all content. It must tolerate an already detached element.
	Clear() error
}

// MountPoint is an element marked for auto-mounting.
type MountPoint interface {
	// ID returns the element id, or "" when the element has none.
	ID() string

	// AssignID gives an id-less element the generated id.
	AssignID(id string)

	// Attributes returns the element's declarative configuration.
	Attributes() Attributes
}

// isReady reports whether ch is already closed.
func isReady(ch <-chan struct{}) bool {
	if ch == nil {
		return true
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
