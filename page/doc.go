// Package page provides an in-memory host page for floradex widgets.
//
// A [Document] plays the part of the browser DOM: it owns an ordered list of
// elements, the attributes of the embedding script tag and the page-ready
// signal. Widgets render into its elements through [floradex.Container], and
// [Document.WriteHTML] turns the current state into an HTML page using the
// templates embedded in the web package.
//
// Example:
//
//	doc, err := page.New("Pollinator map")
//	if err != nil {
//		return err
//	}
//	doc.AddMount("", floradex.Attributes{"project": "bodmin-airfield"})
//	doc.MarkReady()
//
//	reg, err := floradex.New(doc)
package page
