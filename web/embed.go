// Package web provides the embedded templates for the floradex host page.
//
// This package uses Go's embed directive to include the host page and widget
// markup at compile time, enabling single-binary deployment without external
// template files.
//
// The templates are parsed by the page package, which renders every mount
// point's current widget view into HTML.
package web

import "embed"

// Assets is an embedded filesystem containing the host page templates.
//
// The filesystem structure is:
//
//	assets/
//	  host.html.tmpl    - host page layout with the live event script
//	  widget.html.tmpl  - a single widget view (header, frame, footer, error)
//
//go:embed assets/*
var Assets embed.FS
