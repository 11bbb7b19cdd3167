package store

import (
	"sync"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Records are kept in insertion order so that snapshots follow page order.
// Subscribers receive events via buffered channels; if a subscriber's buffer
// is full the event is dropped for that subscriber rather than blocking the
// publisher.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]InstanceRecord
	order   []string

	subscribers map[chan EventRecord]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     make(map[string]InstanceRecord),
		subscribers: make(map[chan EventRecord]struct{}),
	}
}

// Put stores a record, replacing any previous record with the same ID.
func (m *MemoryStore) Put(rec InstanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.ID]; !exists {
		m.order = append(m.order, rec.ID)
	}
	m.records[rec.ID] = rec
}

// Remove deletes the record with the given ID.
func (m *MemoryStore) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[id]; !exists {
		return
	}
	delete(m.records, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Get returns the record with the given ID.
func (m *MemoryStore) Get(id string) (InstanceRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	return rec, ok
}

// GetAll returns a snapshot of all records in insertion order.
func (m *MemoryStore) GetAll() []InstanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]InstanceRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out
}

// Publish sends the event to all active subscribers without blocking.
func (m *MemoryStore) Publish(ev EventRecord) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the event
		}
	}
}

// Subscribe creates a new subscription with a buffer of 100 events.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan EventRecord {
	ch := make(chan EventRecord, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan EventRecord) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}
