package floradex

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the hosted dashboard address used when no base URL is
// configured.
const DefaultBaseURL = "https://chirag1234.shinyapps.io/Floradex-live-demo/"

// embedMarker tells the hosted dashboard it is rendered inside a widget.
const embedMarker = "widget"

// queryParam is one ordered key/value pair of the dashboard target.
type queryParam struct {
	key   string
	value string
}

// BuildTarget returns the dashboard URL for the given settings.
//
// The base URL always ends in "/" before the query string. Parameters are
// emitted in a fixed order: project, postcode, distance, tab, start_year,
// end_year, theme, widget. Optional fields that are absent produce no
// parameter at all, and integer filters equal to zero count as absent. Theme
// and the embed marker are always present.
func BuildTarget(baseURL string, s Settings, profile Profile) string {
	var params []queryParam
	add := func(key, value string) {
		params = append(params, queryParam{key: key, value: value})
	}

	if s.ProjectID != "" {
		add("project", s.ProjectID)
	}
	if profile != ProfileMinimal {
		if s.Postcode != "" {
			add("postcode", s.Postcode)
		}
		if n, ok := nonZero(s.Distance); ok {
			add("distance", strconv.Itoa(n))
		}
		if s.Tab != "" {
			add("tab", s.Tab)
		}
		if n, ok := nonZero(s.StartYear); ok {
			add("start_year", strconv.Itoa(n))
		}
		if n, ok := nonZero(s.EndYear); ok {
			add("end_year", strconv.Itoa(n))
		}
	}
	add("theme", s.Theme.String())
	add(embedMarker, "true")

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteByte('?')
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

func nonZero(p *int) (int, bool) {
	if p == nil || *p == 0 {
		return 0, false
	}
	return *p, true
}
