// Package floradex mounts Floradex biodiversity dashboards into host pages.
//
// A widget is one embed of the hosted dashboard bound to one container on a
// page. The package resolves each widget's configuration from page-declared
// attributes and programmatic options, validates it, builds the dashboard
// URL, drives the load with a timeout and a bounded number of manual retries,
// and reports every transition as an [Event].
//
// # Quick Start
//
// Describe the page, create a registry and discover widgets:
//
//	doc, _ := page.New("Pollinators")
//	doc.AddMount("", floradex.Attributes{"project": "bodmin-airfield", "theme": "dark"})
//	doc.MarkReady()
//
//	reg, _ := floradex.New(doc)
//	widgets, err := reg.Discover(ctx)
//
// Or create a widget directly:
//
//	w, err := reg.Create(
//	    floradex.WithProject("bodmin-airfield"),
//	    floradex.WithContainer("dashboard"),
//	    floradex.WithPostcode("PL30"),
//	)
//
// # Configuration
//
// Settings come from three layers, later layers overriding earlier ones key by
// key: the registry defaults ([WithDefaults] over [DefaultSettings]), page
// attributes (script tag, then mount element, see [Attributes.Overlay]) and
// options passed to [Registry.Create]. [Profile] selects whether the full
// attribute set or only project and theme are honoured.
//
// # Lifecycle
//
// A widget moves through [StateUninitialized], [StateValidating],
// [StateLoading] and then [StateReady] or [StateError]. Any state may move to
// [StateDestroyed]. Only the most recent attempt may complete: a late load or
// timer callback from a superseded attempt is ignored.
//
// # Serving
//
// [Host] serves the page with every widget, a JSON API for instances and
// projects, retry and destroy actions, and a Server-Sent Events stream of
// lifecycle events.
//
// # Architecture
//
// floradex consists of several packages:
//
//   - page: In-memory host page rendered with embedded templates
//   - config: YAML configuration for standalone hosts
//   - internal/frame: HTTP frame loader
//   - internal/store: Instance snapshots with pub/sub for lifecycle events
//   - internal/server: HTTP server with REST API and Server-Sent Events
//   - web: Embedded page templates
//
// The internal packages are not part of the public API and may change
// without notice.
package floradex
