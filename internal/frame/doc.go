// Package frame provides the default frame loader for floradex widgets.
//
// A browser signals an embedded frame's outcome with load and error events.
// Outside a browser, [Client] plays that role by fetching the dashboard
// target over HTTP: a 2xx document is a load, anything else is an error.
//
// Users of the floradex library should not need to interact with this
// package directly; [floradex.New] installs a Client unless another loader
// is supplied.
package frame
