// Package config provides YAML configuration parsing for floradex hosts.
//
// This package enables running a floradex host as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Pollinators of Cornwall
//	port: 8080
//	loading_timeout: 20s
//	retry_attempts: 2
//
//	script:
//	  theme: dark
//
//	mounts:
//	  - id: airfield
//	    attributes:
//	      project: bodmin-airfield
//	      postcode: ${FLORADEX_POSTCODE:-PL30}
//	  - attributes:
//	      project: tamar-valley-centre
//	      tab: species
//
//	projects:
//	  - id: st-austell-meadow
//	    name: St Austell Meadow
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pollenize/floradex"
)

const (
	defaultPort  = 8080
	defaultTitle = "Floradex"
)

// Config is the root configuration structure for a floradex host.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the host page title. Defaults to "Floradex" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// BaseURL is the dashboard base URL. Empty means the built-in default.
	// Supports environment variable substitution.
	BaseURL string `yaml:"base_url"`

	// Profile is "full" (default) or "minimal".
	Profile string `yaml:"profile"`

	// LoadingTimeout bounds each load attempt. Zero means 30s.
	LoadingTimeout Duration `yaml:"loading_timeout"`

	// RetryAttempts is the number of manual retries per widget. Nil means 3.
	RetryAttempts *int `yaml:"retry_attempts"`

	// Script holds the attributes of the embedding script tag.
	// Values support environment variable substitution.
	Script map[string]string `yaml:"script"`

	// Mounts are the page elements, in page order.
	Mounts []MountConfig `yaml:"mounts"`

	// Projects are added to, or override, the built-in projects.
	Projects []ProjectConfig `yaml:"projects"`
}

// MountConfig defines one element on the host page.
type MountConfig struct {
	// ID is the element id. Auto-mount elements may leave it empty.
	ID string `yaml:"id"`

	// Auto marks the element for auto-discovery. Defaults to true.
	Auto *bool `yaml:"auto"`

	// Attributes is the element's declarative configuration.
	// Values support environment variable substitution.
	Attributes map[string]string `yaml:"attributes"`
}

// IsAuto reports whether the element is marked for auto-discovery.
func (m MountConfig) IsAuto() bool {
	return m.Auto == nil || *m.Auto
}

// ProjectConfig declares a project accepted by validation.
type ProjectConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in base_url, script and mount attribute
// values. Defaults are applied for Title ("Floradex") and Port (8080).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.BaseURL != "" {
		expanded, err := expandEnvVars(c.BaseURL)
		if err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
		c.BaseURL = expanded

		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base_url scheme must be http or https, got %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("base_url must include a host")
		}
	}

	if !floradex.Profile(c.Profile).Valid() {
		return fmt.Errorf("profile must be %q or %q, got %q", floradex.ProfileFull, floradex.ProfileMinimal, c.Profile)
	}

	if c.LoadingTimeout.Duration() < 0 {
		return fmt.Errorf("loading_timeout cannot be negative, got %s", c.LoadingTimeout.Duration())
	}
	if c.RetryAttempts != nil && *c.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts cannot be negative, got %d", *c.RetryAttempts)
	}

	if err := expandAttributes(c.Script, "script"); err != nil {
		return err
	}

	seenIDs := make(map[string]int, len(c.Mounts))
	for i := range c.Mounts {
		m := &c.Mounts[i]
		ctx := fmt.Sprintf("mounts[%d]", i)
		if m.ID != "" {
			ctx = fmt.Sprintf("mounts[%d] (%s)", i, m.ID)
			if prev, dup := seenIDs[m.ID]; dup {
				return fmt.Errorf("%s: duplicate id, already used by mounts[%d]", ctx, prev)
			}
			seenIDs[m.ID] = i
		}

		if !m.IsAuto() && m.ID == "" {
			return fmt.Errorf("%s: id is required when auto is false", ctx)
		}

		if err := expandAttributes(m.Attributes, ctx); err != nil {
			return err
		}
	}

	seenProjects := make(map[string]struct{}, len(c.Projects))
	for i, p := range c.Projects {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("projects[%d]: id is required", i)
		}
		if _, dup := seenProjects[p.ID]; dup {
			return fmt.Errorf("projects[%d] (%s): duplicate id", i, p.ID)
		}
		seenProjects[p.ID] = struct{}{}
	}

	return nil
}

// expandAttributes checks attribute names against the known set and expands
// environment variables in their values.
func expandAttributes(attrs map[string]string, context string) error {
	if len(attrs) == 0 {
		return nil
	}

	known := make(map[string]struct{})
	for _, name := range floradex.AttributeNames() {
		known[name] = struct{}{}
	}

	// sorted for a deterministic first error
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := known[k]; !ok {
			return fmt.Errorf("%s: unknown attribute %q", context, k)
		}
		expanded, err := expandEnvVars(attrs[k])
		if err != nil {
			return fmt.Errorf("%s: attributes[%s]: %w", context, k, err)
		}
		attrs[k] = expanded
	}
	return nil
}
