// Package registry holds the most recent successful discovery result.
//
// The registry is the only shared mutable state in the daemon. It is
// written exactly once per completed discovery pass via an atomic snapshot
// swap; readers always observe either the empty initial state or one
// complete pass, never a mix of two.
package registry

import (
	"sync"

	"github.com/camrelay/camrelay/internal/device"
)

// Subscriber is notified with the new snapshot after every publish.
// Subscribers are called synchronously under no lock; slow subscribers
// should hand off to their own goroutine.
type Subscriber func(records []device.Record)

// Registry is a process-wide device snapshot with atomic replacement.
// The zero value is not usable; call New.
type Registry struct {
	mu      sync.RWMutex
	records []device.Record
	byID    map[string]device.Record

	subMu       sync.Mutex
	subscribers []Subscriber
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID: make(map[string]device.Record),
	}
}

// Publish atomically replaces the registry contents with the given pass
// result. The previous snapshot is discarded wholesale; publishes never
// merge. Subscribers are notified after the swap completes.
func (r *Registry) Publish(records []device.Record) {
	snapshot := make([]device.Record, len(records))
	copy(snapshot, records)

	byID := make(map[string]device.Record, len(snapshot))
	for _, rec := range snapshot {
		byID[rec.ID] = rec
	}

	r.mu.Lock()
	r.records = snapshot
	r.byID = byID
	r.mu.Unlock()

	r.subMu.Lock()
	subs := make([]Subscriber, len(r.subscribers))
	copy(subs, r.subscribers)
	r.subMu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

// Current returns the last published snapshot, or an empty slice before
// the first publish. Never blocks on a pass in progress. The returned
// slice is shared; callers must not modify it.
func (r *Registry) Current() []device.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.records == nil {
		return []device.Record{}
	}
	return r.records
}

// Lookup returns the record for a device id from the current snapshot.
func (r *Registry) Lookup(id string) (device.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	return rec, ok
}

// LookupByXAddr returns the record whose service endpoint matches the
// given URI. Useful for relay requests that identify a device by endpoint
// rather than id.
func (r *Registry) LookupByXAddr(xaddr string) (device.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.XAddr == xaddr {
			return rec, true
		}
	}
	return device.Record{}, false
}

// Subscribe registers a subscriber for future publishes. There is no
// unsubscribe; subscribers live as long as the process.
func (r *Registry) Subscribe(sub Subscriber) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subscribers = append(r.subscribers, sub)
}
