package floradex

import (
	"strconv"
	"strings"
)

// Attributes holds the declarative configuration found on the page, keyed by
// attribute name without the "data-" prefix (e.g. "project", "start-year").
type Attributes map[string]string

// Overlay returns a new Attributes containing a's entries overridden by
// higher's entries. Neither input is modified.
func (a Attributes) Overlay(higher Attributes) Attributes {
	out := make(Attributes, len(a)+len(higher))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range higher {
		out[k] = v
	}
	return out
}

// attrKind is the target type of a recognised attribute.
type attrKind int

const (
	kindString attrKind = iota
	kindInt
	kindBool
)

// attrSpec maps one attribute name onto a settings field.
type attrSpec struct {
	name string
	kind attrKind

	setString func(*Settings, string)
	setInt    func(*Settings, int)
	setBool   func(*Settings, bool)
}

// attributeTable enumerates every recognised attribute. Names not listed here
// are ignored.
var attributeTable = []attrSpec{
	{name: "project", kind: kindString, setString: func(s *Settings, v string) { s.ProjectID = v }},
	{name: "theme", kind: kindString, setString: func(s *Settings, v string) { s.Theme = Theme(v) }},
	{name: "height", kind: kindString, setString: func(s *Settings, v string) { s.Height = v }},
	{name: "width", kind: kindString, setString: func(s *Settings, v string) { s.Width = v }},
	{name: "postcode", kind: kindString, setString: func(s *Settings, v string) { s.Postcode = v }},
	{name: "distance", kind: kindInt, setInt: func(s *Settings, v int) { s.Distance = &v }},
	{name: "tab", kind: kindString, setString: func(s *Settings, v string) { s.Tab = v }},
	{name: "container", kind: kindString, setString: func(s *Settings, v string) { s.ContainerID = v }},
	{name: "header", kind: kindBool, setBool: func(s *Settings, v bool) { s.ShowHeader = v }},
	{name: "footer", kind: kindBool, setBool: func(s *Settings, v bool) { s.ShowFooter = v }},
	{name: "start-year", kind: kindInt, setInt: func(s *Settings, v int) { s.StartYear = &v }},
	{name: "end-year", kind: kindInt, setInt: func(s *Settings, v int) { s.EndYear = &v }},
}

// AttributeNames returns the recognised attribute names in table order.
func AttributeNames() []string {
	names := make([]string, len(attributeTable))
	for i, spec := range attributeTable {
		names[i] = spec.name
	}
	return names
}

// Profile selects which part of the declarative and query-parameter contract
// is honoured.
type Profile string

const (
	// ProfileFull recognises every attribute and forwards every optional
	// filter to the dashboard.
	ProfileFull Profile = "full"

	// ProfileMinimal recognises only project and theme, and forwards only
	// those plus the embed marker.
	ProfileMinimal Profile = "minimal"
)

// minimalAttributes is the attribute subset honoured by [ProfileMinimal].
var minimalAttributes = map[string]bool{"project": true, "theme": true}

// recognises reports whether the profile honours the named attribute.
func (p Profile) recognises(name string) bool {
	if p == ProfileMinimal {
		return minimalAttributes[name]
	}
	return true
}

// Valid reports whether p is a known profile. The empty profile is treated
// as [ProfileFull].
func (p Profile) Valid() bool {
	switch p {
	case "", ProfileFull, ProfileMinimal:
		return true
	default:
		return false
	}
}

// Resolve merges the three configuration layers into one [Settings] value
// using [ProfileFull]. See [Profile.Resolve].
func Resolve(defaults Settings, attrs Attributes, opts ...Option) Settings {
	return ProfileFull.Resolve(defaults, attrs, opts...)
}

// Resolve merges defaults, page-declared attributes and options, later layers
// overriding earlier ones key by key.
//
// Attribute coercion:
//   - string fields take the value as-is; an empty value counts as absent
//   - integer fields take the leading base-10 integer; a value with no
//     leading digits yields 0
//   - boolean fields are touched only when the attribute is present, and are
//     true only for the literal "true"
//
// Resolve never fails. Semantic validation (project existence, container
// presence) happens when the widget initialises.
func (p Profile) Resolve(defaults Settings, attrs Attributes, opts ...Option) Settings {
	s := defaults.clone()

	for _, spec := range attributeTable {
		if !p.recognises(spec.name) {
			continue
		}
		raw, present := attrs[spec.name]
		if !present {
			continue
		}
		switch spec.kind {
		case kindString:
			if raw != "" {
				spec.setString(&s, raw)
			}
		case kindInt:
			if raw != "" {
				spec.setInt(&s, parseIntOrZero(raw))
			}
		case kindBool:
			spec.setBool(&s, raw == "true")
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// parseIntOrZero parses the leading base-10 integer of raw, after trimming
// whitespace and an optional sign: "5km" is 5 and "3.5" is 3. A value with no
// leading digits yields 0.
func parseIntOrZero(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
