package floradex

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// registryConfig holds mutable state during Registry construction.
type registryConfig struct {
	projects *ProjectRegistry
	loader   FrameLoader
	clock    Clock
	logger   *slog.Logger
	baseURL  string
	profile  Profile
	defaults Settings
	handlers []func(Event)
}

// RegistryOption configures a [Registry] during construction.
//
// RegistryOption implements the functional options pattern. Options return
// an error if validation fails, in which case [New] fails too.
type RegistryOption func(*registryConfig) error

// WithLogger sets a custom [slog.Logger] for the registry and its widgets.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(cfg *registryConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithProjects sets the project registry used to validate project ids.
//
// Example:
//
//	projects := floradex.NewProjectRegistry(floradex.ProjectDescriptor{
//	    ID: "st-austell-bay", Name: "St Austell Bay",
//	})
//	reg, err := floradex.New(page, floradex.WithProjects(projects))
func WithProjects(projects *ProjectRegistry) RegistryOption {
	return func(cfg *registryConfig) error {
		if projects == nil {
			return errors.New("project registry cannot be nil")
		}
		cfg.projects = projects
		return nil
	}
}

// WithFrameLoader replaces the HTTP frame loader.
func WithFrameLoader(loader FrameLoader) RegistryOption {
	return func(cfg *registryConfig) error {
		if loader == nil {
			return errors.New("frame loader cannot be nil")
		}
		cfg.loader = loader
		return nil
	}
}

// WithClock replaces the clock that arms loading timeouts.
func WithClock(clock Clock) RegistryOption {
	return func(cfg *registryConfig) error {
		if clock == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = clock
		return nil
	}
}

// WithBaseURL sets the hosted dashboard address.
//
// Returns an error if the URL has no http or https scheme.
func WithBaseURL(rawURL string) RegistryOption {
	return func(cfg *registryConfig) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base URL scheme must be http or https, got %q", u.Scheme)
		}
		cfg.baseURL = rawURL
		return nil
	}
}

// WithProfile selects the attribute and query-parameter profile.
func WithProfile(p Profile) RegistryOption {
	return func(cfg *registryConfig) error {
		if !p.Valid() {
			return fmt.Errorf("unknown profile %q", p)
		}
		if p == "" {
			p = ProfileFull
		}
		cfg.profile = p
		return nil
	}
}

// WithDefaults applies options on top of [DefaultSettings] to form the
// lowest precedence layer for every widget of the registry.
//
// Example:
//
//	reg, err := floradex.New(page,
//	    floradex.WithDefaults(floradex.WithTheme(floradex.ThemeDark), floradex.WithRetryAttempts(5)),
//	)
func WithDefaults(opts ...Option) RegistryOption {
	return func(cfg *registryConfig) error {
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.defaults)
			}
		}
		return nil
	}
}

// WithEventHandler registers a function called for every lifecycle event.
//
// Handlers run synchronously, in registration order, on the goroutine that
// completed the transition. They may call back into the widget (for example
// to retry from an error event). Panics are recovered and logged.
//
// Nil handlers are silently ignored.
func WithEventHandler(h func(Event)) RegistryOption {
	return func(cfg *registryConfig) error {
		if h == nil {
			return nil
		}
		cfg.handlers = append(cfg.handlers, h)
		return nil
	}
}
