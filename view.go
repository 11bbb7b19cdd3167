package floradex

// ViewStatus selects which body a [View] presents.
type ViewStatus string

const (
	ViewLoading ViewStatus = "loading"
	ViewReady   ViewStatus = "ready"
	ViewError   ViewStatus = "error"
)

const (
	frameTitle   = "Floradex Biodiversity Dashboard"
	frameSandbox = "allow-scripts allow-same-origin allow-forms allow-popups"
	tagline      = "Explore pollinator diversity and plant support scores"
	creditText   = "Pollenize"
	creditURL    = "https://www.pollenize.org.uk/"
)

// Palette holds the presentation colours for one theme.
type Palette struct {
	Background string
	Text       string
	Border     string
}

var palettes = map[Theme]Palette{
	ThemeLight: {Background: "#ffffff", Text: "#262626", Border: "#e5e5e5"},
	ThemeDark:  {Background: "#1a1a1a", Text: "#ffffff", Border: "#404040"},
}

// PaletteFor returns the palette for t, falling back to the light palette for
// unknown themes.
func PaletteFor(t Theme) Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[ThemeLight]
}

// Header is the project banner above the frame.
type Header struct {
	Title    string
	Subtitle string
}

// Footer is the credit line below the frame.
type Footer struct {
	Text string
	URL  string
}

// Frame describes the embedded dashboard frame.
type Frame struct {
	URL     string
	Title   string
	Sandbox string
	Width   string
	Height  string
}

// View is everything a widget writes into its container.
type View struct {
	// InstanceID identifies the widget that rendered the view.
	InstanceID string

	Status  ViewStatus
	Palette Palette

	// Header and Footer are nil when disabled in settings.
	Header *Header
	Footer *Footer

	// Frame is set while loading and once ready.
	Frame *Frame

	// Message is the user-visible error text for ViewError.
	Message string

	// RetryAvailable reports whether a retry affordance should be offered.
	RetryAvailable bool
}

// scaffold builds the header/footer chrome shared by every view of s.
func scaffold(s Settings, projects *ProjectRegistry) View {
	v := View{Palette: PaletteFor(s.Theme)}
	if s.ShowHeader {
		v.Header = &Header{Title: projects.DisplayName(s.ProjectID), Subtitle: tagline}
	}
	if s.ShowFooter {
		v.Footer = &Footer{Text: creditText, URL: creditURL}
	}
	return v
}

func loadingView(s Settings, projects *ProjectRegistry, target string) View {
	v := scaffold(s, projects)
	v.Status = ViewLoading
	v.Frame = newFrame(s, target)
	return v
}

func readyView(s Settings, projects *ProjectRegistry, target string) View {
	v := scaffold(s, projects)
	v.Status = ViewReady
	v.Frame = newFrame(s, target)
	return v
}

// errorView replaces the whole container content with an inert message.
func errorView(s Settings, message string, retry bool) View {
	return View{
		Status:         ViewError,
		Palette:        PaletteFor(s.Theme),
		Message:        message,
		RetryAvailable: retry,
	}
}

func newFrame(s Settings, target string) *Frame {
	return &Frame{
		URL:     target,
		Title:   frameTitle,
		Sandbox: frameSandbox,
		Width:   s.Width,
		Height:  s.Height,
	}
}
