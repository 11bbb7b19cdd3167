package floradex

import (
	"errors"
	"io"
)

// hostConfig holds mutable state during Host construction.
type hostConfig struct {
	port     int
	page     Renderer
	discover bool
}

// Renderer writes the host page as HTML. The page package's Document
// implements it.
type Renderer interface {
	WriteHTML(w io.Writer) error
}

// HostOption configures a [Host] during construction.
//
// Options return an error if validation fails.
//
// Built-in options: [WithPort], [WithPage], [WithAutoDiscover].
type HostOption func(*hostConfig) error

// WithPort sets the HTTP port for the host server.
//
// The host page and API will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) HostOption {
	return func(cfg *hostConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithPage sets the renderer served at "/".
//
// Example:
//
//	doc, _ := page.New("Pollinators")
//	reg, _ := floradex.New(doc)
//	host, err := floradex.NewHost(reg, floradex.WithPage(doc))
//
// Returns an error if r is nil.
func WithPage(r Renderer) HostOption {
	return func(cfg *hostConfig) error {
		if r == nil {
			return errors.New("page renderer cannot be nil")
		}
		cfg.page = r
		return nil
	}
}

// WithAutoDiscover controls whether [Host.Start] runs [Registry.Discover]
// before serving. Enabled by default.
func WithAutoDiscover(enabled bool) HostOption {
	return func(cfg *hostConfig) error {
		cfg.discover = enabled
		return nil
	}
}
