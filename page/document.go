package page

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/pollenize/floradex"
	"github.com/pollenize/floradex/web"
)

// ErrDetached is returned when writing to an element that has been removed
// from the document.
var ErrDetached = errors.New("element is detached from the document")

// Document is an in-memory host page.
//
// Document implements [floradex.Page]. Elements are kept in page order and
// remember the last view written into them, which [Document.WriteHTML]
// renders with the embedded templates. All methods are safe for concurrent
// use.
type Document struct {
	mu       sync.RWMutex
	title    string
	script   floradex.Attributes
	elements []*Element

	ready     chan struct{}
	readyOnce sync.Once

	tmpl *template.Template
}

// New creates an empty, still-loading document.
//
// Returns an error if the embedded templates cannot be parsed.
func New(title string) (*Document, error) {
	tmpl, err := template.ParseFS(web.Assets, "assets/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return &Document{
		title: title,
		ready: make(chan struct{}),
		tmpl:  tmpl,
	}, nil
}

// SetScriptAttributes records the attributes declared on the embedding
// script tag.
func (d *Document) SetScriptAttributes(attrs floradex.Attributes) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = copyAttrs(attrs)
}

// AddContainer appends a plain element with the given id.
func (d *Document) AddContainer(id string) *Element {
	return d.add(id, false, nil)
}

// AddMount appends an element marked for auto-mounting. id may be empty, in
// which case the registry assigns one during discovery.
func (d *Document) AddMount(id string, attrs floradex.Attributes) *Element {
	return d.add(id, true, attrs)
}

func (d *Document) add(id string, mount bool, attrs floradex.Attributes) *Element {
	el := &Element{doc: d, id: id, mount: mount, attrs: copyAttrs(attrs)}

	d.mu.Lock()
	d.elements = append(d.elements, el)
	d.mu.Unlock()
	return el
}

// Remove detaches the element with the given id. Later writes to it fail
// with [ErrDetached].
func (d *Document) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, el := range d.elements {
		if el.id == id {
			el.detached = true
			d.elements = append(d.elements[:i], d.elements[i+1:]...)
			return
		}
	}
}

// MarkReady signals that the page finished loading. Safe to call repeatedly.
func (d *Document) MarkReady() {
	d.readyOnce.Do(func() { close(d.ready) })
}

// Ready implements [floradex.Page].
func (d *Document) Ready() <-chan struct{} {
	return d.ready
}

// Container implements [floradex.Page].
func (d *Document) Container(id string) (floradex.Container, bool) {
	el := d.element(id)
	if el == nil {
		return nil, false
	}
	return el, true
}

// MountPoints implements [floradex.Page].
func (d *Document) MountPoints() []floradex.MountPoint {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []floradex.MountPoint
	for _, el := range d.elements {
		if el.mount {
			out = append(out, el)
		}
	}
	return out
}

// ScriptAttributes implements [floradex.Page].
func (d *Document) ScriptAttributes() floradex.Attributes {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return copyAttrs(d.script)
}

// View returns the view last rendered into the element with the given id.
func (d *Document) View(id string) (floradex.View, bool) {
	el := d.element(id)
	if el == nil {
		return floradex.View{}, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if el.view == nil {
		return floradex.View{}, false
	}
	return *el.view, true
}

func (d *Document) element(id string) *Element {
	if id == "" {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, el := range d.elements {
		if el.id == id {
			return el
		}
	}
	return nil
}

// elementData is the template view of one element.
type elementData struct {
	ID         string
	Mount      bool
	InstanceID string
	View       *floradex.View
}

// WriteHTML renders the whole document, every element with its current view.
func (d *Document) WriteHTML(w io.Writer) error {
	d.mu.RLock()
	data := struct {
		Title    string
		Elements []elementData
	}{Title: d.title}
	for _, el := range d.elements {
		ed := elementData{ID: el.id, Mount: el.mount}
		if el.view != nil {
			v := *el.view
			ed.View = &v
			ed.InstanceID = v.InstanceID
		}
		data.Elements = append(data.Elements, ed)
	}
	d.mu.RUnlock()

	return d.tmpl.ExecuteTemplate(w, "host.html.tmpl", data)
}

// Element is one element of a [Document]. It implements both
// [floradex.Container] and [floradex.MountPoint].
type Element struct {
	doc      *Document
	id       string
	mount    bool
	attrs    floradex.Attributes
	view     *floradex.View
	detached bool
}

// ID returns the element id.
func (e *Element) ID() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.id
}

// AssignID sets the id of an element that has none.
func (e *Element) AssignID(id string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.id == "" {
		e.id = id
	}
}

// Attributes returns a copy of the element's declarative configuration.
func (e *Element) Attributes() floradex.Attributes {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return copyAttrs(e.attrs)
}

// Render stores v as the element's content.
func (e *Element) Render(v floradex.View) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.detached {
		return ErrDetached
	}
	e.view = &v
	return nil
}

// Clear removes the element's content.
func (e *Element) Clear() error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.detached {
		return ErrDetached
	}
	e.view = nil
	return nil
}

func copyAttrs(attrs floradex.Attributes) floradex.Attributes {
	if attrs == nil {
		return nil
	}
	out := make(floradex.Attributes, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
