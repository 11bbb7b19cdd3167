// Package store provides snapshot storage and pub/sub for widget instances.
//
// This package is internal to floradex. It mirrors the registry's live
// instance set as JSON-friendly records and fans lifecycle events out to
// subscribers such as the Server-Sent Events endpoint.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [InstanceRecord]: Storage representation of a widget instance
//   - [EventRecord]: Storage representation of a lifecycle event
//
// Subscribers receive events via channels with non-blocking sends (slow
// subscribers miss events rather than block widget transitions).
package store
