package config

import (
	"log/slog"

	"github.com/pollenize/floradex"
	"github.com/pollenize/floradex/page"
)

// BuildDocument converts parsed configuration into a host page.
//
// Mounts become elements in configuration order; auto mounts are marked for
// discovery. The returned document is already marked ready.
func BuildDocument(cfg *Config) (*page.Document, error) {
	doc, err := page.New(cfg.Title)
	if err != nil {
		return nil, err
	}

	if len(cfg.Script) > 0 {
		doc.SetScriptAttributes(floradex.Attributes(cfg.Script))
	}

	for _, m := range cfg.Mounts {
		if m.IsAuto() {
			doc.AddMount(m.ID, floradex.Attributes(m.Attributes))
		} else {
			doc.AddContainer(m.ID)
		}
	}

	doc.MarkReady()
	return doc, nil
}

// BuildRegistryOptions converts parsed configuration into registry options.
//
// logger may be nil, in which case the registry uses slog.Default().
func BuildRegistryOptions(cfg *Config, logger *slog.Logger) []floradex.RegistryOption {
	var opts []floradex.RegistryOption

	if logger != nil {
		opts = append(opts, floradex.WithLogger(logger))
	}

	if cfg.BaseURL != "" {
		opts = append(opts, floradex.WithBaseURL(cfg.BaseURL))
	}

	if cfg.Profile != "" {
		opts = append(opts, floradex.WithProfile(floradex.Profile(cfg.Profile)))
	}

	if len(cfg.Projects) > 0 {
		extra := make([]floradex.ProjectDescriptor, 0, len(cfg.Projects))
		for _, p := range cfg.Projects {
			extra = append(extra, floradex.ProjectDescriptor{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
			})
		}
		opts = append(opts, floradex.WithProjects(floradex.NewProjectRegistry(extra...)))
	}

	var defaults []floradex.Option
	if cfg.LoadingTimeout != 0 {
		defaults = append(defaults, floradex.WithLoadingTimeout(cfg.LoadingTimeout.Duration()))
	}
	if cfg.RetryAttempts != nil {
		defaults = append(defaults, floradex.WithRetryAttempts(*cfg.RetryAttempts))
	}
	if len(defaults) > 0 {
		opts = append(opts, floradex.WithDefaults(defaults...))
	}

	return opts
}
