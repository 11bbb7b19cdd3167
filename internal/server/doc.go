// Package server provides the HTTP surface of a floradex host.
//
// This package is internal to floradex and handles all HTTP concerns:
//
//   - Host page: the rendered page with every widget at "/"
//   - REST API: instance snapshots, projects and target previews under "/api"
//   - Actions: retry and destroy of instances by id
//   - Server-Sent Events: lifecycle events at "/api/events"
//
// Routing uses chi. The server supports graceful shutdown via context
// cancellation, with a 5-second timeout for in-flight requests.
//
// Users of the floradex library should not need to interact with this
// package directly. The server is started by [floradex.Host.Start].
package server
