package floradex

import "sort"

// genericDisplayName is shown in the widget header when a project id has no
// registry entry.
const genericDisplayName = "Biodiversity Tracking Dashboard"

// ProjectDescriptor describes one dashboard project that widgets can address.
//
// ProjectDescriptor is an immutable value. Descriptors are looked up by ID
// through a [ProjectRegistry].
type ProjectDescriptor struct {
	// ID is the identifier used in the project query parameter.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable project name shown in widget headers.
	Name string `json:"name" yaml:"name"`

	// Description is a one-line summary of the project.
	Description string `json:"description" yaml:"description"`
}

// ProjectRegistry is a read-only mapping from project id to [ProjectDescriptor].
//
// A registry is built once via [NewProjectRegistry] and never mutated
// afterwards, so it is safe for concurrent use by any number of widgets.
type ProjectRegistry struct {
	projects map[string]ProjectDescriptor
}

// DefaultProjects returns the built-in project descriptors.
func DefaultProjects() []ProjectDescriptor {
	return []ProjectDescriptor{
		{ID: "bodmin-airfield", Name: "Bodmin Airfield", Description: "Biodiversity monitoring at Bodmin Airfield"},
		{ID: "tamar-valley-centre", Name: "Tamar Valley Centre", Description: "Biodiversity tracking in Tamar Valley"},
		{ID: "cornish-essential-oils", Name: "Cornish Essential Oils", Description: "Plant diversity monitoring"},
		{ID: "lost-gardens-of-heligan", Name: "Lost Gardens of Heligan", Description: "Garden biodiversity analysis"},
		{ID: "hemsworth-farm-master", Name: "Hemsworth Farm Master", Description: "Agricultural biodiversity monitoring"},
		{ID: "devonport-park-nature-counts", Name: "Devonport Park Nature Counts", Description: "Urban park biodiversity tracking"},
		{ID: "city-college-plymouth", Name: "City College Plymouth", Description: "Educational institution biodiversity"},
		{ID: "mvv-plymouth", Name: "MVV Plymouth", Description: "MVV Plymouth biodiversity project"},
	}
}

// NewProjectRegistry builds a registry from the built-in projects plus any
// extra descriptors. Extra descriptors with an id that already exists replace
// the built-in entry; descriptors with an empty id are skipped.
func NewProjectRegistry(extra ...ProjectDescriptor) *ProjectRegistry {
	defaults := DefaultProjects()
	projects := make(map[string]ProjectDescriptor, len(defaults)+len(extra))
	for _, p := range defaults {
		projects[p.ID] = p
	}
	for _, p := range extra {
		if p.ID == "" {
			continue
		}
		projects[p.ID] = p
	}
	return &ProjectRegistry{projects: projects}
}

// Lookup returns the descriptor registered under id.
func (r *ProjectRegistry) Lookup(id string) (ProjectDescriptor, bool) {
	if r == nil {
		return ProjectDescriptor{}, false
	}
	p, ok := r.projects[id]
	return p, ok
}

// DisplayName returns the project's name, or a generic label when id is not
// registered. It never rejects an id; validation is the lifecycle's job.
func (r *ProjectRegistry) DisplayName(id string) string {
	if p, ok := r.Lookup(id); ok && p.Name != "" {
		return p.Name
	}
	return genericDisplayName
}

// All returns every registered descriptor sorted by id.
func (r *ProjectRegistry) All() []ProjectDescriptor {
	if r == nil {
		return nil
	}
	out := make([]ProjectDescriptor, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
