package floradex

import "time"

const (
	// DefaultContainerID is the well-known mount point used when the page
	// declares no explicit auto-mount elements.
	DefaultContainerID = "floradex-widget-container"

	defaultHeight         = "800px"
	defaultWidth          = "100%"
	defaultLoadingTimeout = 30 * time.Second
	defaultRetryAttempts  = 3
)

// Theme selects the widget's colour palette and is forwarded to the hosted
// dashboard as the theme query parameter.
type Theme string

const (
	// ThemeLight is the default palette.
	ThemeLight Theme = "light"

	// ThemeDark is the dark palette.
	ThemeDark Theme = "dark"
)

// String returns the string representation of the theme.
func (t Theme) String() string {
	return string(t)
}

// Settings is the effective configuration of one widget instance.
//
// Optional string fields use the empty string for "absent"; optional integer
// fields use nil. Absent optional fields produce no query parameter when the
// dashboard target is built.
type Settings struct {
	ProjectID   string
	Theme       Theme
	ContainerID string
	Height      string
	Width       string
	ShowHeader  bool
	ShowFooter  bool

	Postcode  string
	Distance  *int
	Tab       string
	StartYear *int
	EndYear   *int

	// LoadingTimeout bounds a single load attempt.
	LoadingTimeout time.Duration

	// RetryAttempts is the number of manual retries allowed per instance.
	RetryAttempts int
}

// DefaultSettings returns the built-in defaults, the lowest precedence layer.
func DefaultSettings() Settings {
	return Settings{
		Theme:          ThemeLight,
		ContainerID:    DefaultContainerID,
		Height:         defaultHeight,
		Width:          defaultWidth,
		ShowHeader:     true,
		ShowFooter:     true,
		LoadingTimeout: defaultLoadingTimeout,
		RetryAttempts:  defaultRetryAttempts,
	}
}

// clone returns a deep copy so that pointer fields are never shared between
// widget instances.
func (s Settings) clone() Settings {
	s.Distance = copyInt(s.Distance)
	s.StartYear = copyInt(s.StartYear)
	s.EndYear = copyInt(s.EndYear)
	return s
}

// effectiveTimeout returns LoadingTimeout, or the default when unset.
func (s Settings) effectiveTimeout() time.Duration {
	if s.LoadingTimeout <= 0 {
		return defaultLoadingTimeout
	}
	return s.LoadingTimeout
}

// effectiveRetryAttempts returns RetryAttempts clamped at zero.
func (s Settings) effectiveRetryAttempts() int {
	if s.RetryAttempts < 0 {
		return 0
	}
	return s.RetryAttempts
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Option overrides one settings field. Options are the highest precedence
// layer of [Resolve] and are also accepted by [Widget.Update], where only the
// fields touched by the supplied options change.
type Option func(*Settings)

// WithProject sets the project id. It must name a registered project for the
// widget to load.
func WithProject(id string) Option {
	return func(s *Settings) { s.ProjectID = id }
}

// WithTheme sets the theme.
func WithTheme(t Theme) Option {
	return func(s *Settings) { s.Theme = t }
}

// WithContainer sets the id of the page element the widget mounts into.
func WithContainer(id string) Option {
	return func(s *Settings) { s.ContainerID = id }
}

// WithHeight sets the frame height as a CSS dimension, e.g. "800px".
func WithHeight(h string) Option {
	return func(s *Settings) { s.Height = h }
}

// WithWidth sets the frame width as a CSS dimension, e.g. "100%".
func WithWidth(w string) Option {
	return func(s *Settings) { s.Width = w }
}

// WithHeader toggles the project header above the frame.
func WithHeader(show bool) Option {
	return func(s *Settings) { s.ShowHeader = show }
}

// WithFooter toggles the credit footer below the frame.
func WithFooter(show bool) Option {
	return func(s *Settings) { s.ShowFooter = show }
}

// WithPostcode sets the postcode filter. An empty postcode clears it.
func WithPostcode(postcode string) Option {
	return func(s *Settings) { s.Postcode = postcode }
}

// WithDistance sets the search distance filter.
func WithDistance(distance int) Option {
	return func(s *Settings) { s.Distance = &distance }
}

// WithTab selects the dashboard tab to open. An empty tab clears it.
func WithTab(tab string) Option {
	return func(s *Settings) { s.Tab = tab }
}

// WithStartYear sets the first year of the date filter.
func WithStartYear(year int) Option {
	return func(s *Settings) { s.StartYear = &year }
}

// WithEndYear sets the last year of the date filter.
func WithEndYear(year int) Option {
	return func(s *Settings) { s.EndYear = &year }
}

// WithLoadingTimeout sets how long a load attempt may take before it is
// reported as timed out. Non-positive values fall back to 30 seconds.
func WithLoadingTimeout(d time.Duration) Option {
	return func(s *Settings) { s.LoadingTimeout = d }
}

// WithRetryAttempts sets how many manual retries the widget allows.
func WithRetryAttempts(n int) Option {
	return func(s *Settings) { s.RetryAttempts = n }
}

// WithSettings replaces every field with the given settings. It is useful for
// callers that already hold a fully resolved [Settings] value.
func WithSettings(settings Settings) Option {
	return func(s *Settings) { *s = settings.clone() }
}
