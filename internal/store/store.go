package store

import "time"

// InstanceRecord is the storage representation of one live widget, optimised
// for JSON serialisation by the REST API.
type InstanceRecord struct {
	// ID is the widget's instance id.
	ID string `json:"id"`

	// ContainerID is the page element the widget mounts into.
	ContainerID string `json:"container_id"`

	ProjectID string `json:"project_id"`
	Theme     string `json:"theme"`

	// State is the lifecycle state name (e.g. "loading", "ready").
	State string `json:"state"`

	Initialized bool `json:"initialized"`
	RetryCount  int  `json:"retry_count"`

	// Target is the dashboard URL of the latest attempt, if any.
	Target string `json:"target,omitempty"`

	// LastReason is the reason code of the latest error event, if any.
	LastReason string `json:"last_reason,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectRecord is the API representation of one known dashboard project.
type ProjectRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// EventRecord is the storage representation of a lifecycle event, streamed
// to subscribers.
type EventRecord struct {
	Type        string    `json:"type"`
	InstanceID  string    `json:"instance_id"`
	ProjectID   string    `json:"project_id"`
	ContainerID string    `json:"container_id"`
	Reason      string    `json:"reason,omitempty"`
	Target      string    `json:"target,omitempty"`
	RetryCount  int       `json:"retry_count"`
	Time        time.Time `json:"time"`
}

// Store holds instance snapshots and fans lifecycle events out to
// subscribers.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Put stores a record keyed by ID. A new ID is appended to the order;
	// an existing ID keeps its position.
	Put(rec InstanceRecord)

	// Remove deletes the record with the given ID. Unknown IDs are ignored.
	Remove(id string)

	// Get returns the record with the given ID.
	Get(id string) (InstanceRecord, bool)

	// GetAll returns all records in insertion order.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []InstanceRecord

	// Publish sends an event to every subscriber.
	Publish(ev EventRecord)

	// Subscribe returns a channel that receives published events.
	// The returned channel has a buffer; slow consumers may miss events.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan EventRecord

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan EventRecord)
}
