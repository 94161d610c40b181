// Package duty tracks which drivers are currently reachable for trip
// offers and owns the per-driver offer channel behind the duty stream.
package duty

import (
	"sync"
	"time"

	"drive-hub/internal/broadcast"
)

// Registry is the in-process source of truth for driver availability.
// A driver is on duty exactly while they hold a live offer subscription;
// re-registering replaces the previous subscription so a reconnecting
// socket never leaves a stale channel behind.
type Registry struct {
	mu      sync.Mutex
	b       *broadcast.Broadcaster
	entries map[string]*entry
}

type entry struct {
	sub       *broadcast.Subscription
	sessionID string
	since     time.Time
}

// NewRegistry creates a Registry whose offer channels buffer up to
// buffer events each.
func NewRegistry(buffer int) *Registry {
	return &Registry{
		b:       broadcast.New(buffer),
		entries: make(map[string]*entry),
	}
}

// Register puts the driver on duty and returns their offer subscription.
// If the driver is already registered the old subscription is cancelled
// first; its channel closes before the new one can receive anything.
func (r *Registry) Register(driverID, sessionID string) *broadcast.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[driverID]; ok {
		old.sub.Cancel()
	}
	sub := r.b.Subscribe(driverID)
	r.entries[driverID] = &entry{sub: sub, sessionID: sessionID, since: time.Now().UTC()}
	return sub
}

// Deregister takes the driver off duty and closes their offer channel.
// Passing the subscription guards against a reconnect race: a socket
// tearing down late cannot deregister the driver's newer registration.
// Returns whether this call removed the registration; a stale socket gets
// false and must not touch the shared duty session either.
func (r *Registry) Deregister(driverID string, sub *broadcast.Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.entries[driverID]
	if !ok {
		return false
	}
	if sub != nil && cur.sub != sub {
		return false
	}
	cur.sub.Cancel()
	delete(r.entries, driverID)
	return true
}

// Offer delivers a trip offer to the driver. Returns false when the
// driver is not on duty.
func (r *Registry) Offer(driverID string, ev broadcast.Event) bool {
	r.mu.Lock()
	_, ok := r.entries[driverID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.b.Publish(driverID, ev)
	return true
}

// Broadcast delivers the event to every on-duty driver the filter admits
// and returns how many drivers were addressed. A nil filter admits all.
func (r *Registry) Broadcast(ev broadcast.Event, eligible func(driverID string) bool) int {
	addressed := 0
	for _, id := range r.OnDuty() {
		if eligible != nil && !eligible(id) {
			continue
		}
		r.b.Publish(id, ev)
		addressed++
	}
	return addressed
}

// OnDuty returns a snapshot of on-duty driver ids.
func (r *Registry) OnDuty() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// IsOnDuty reports whether the driver currently holds a registration.
func (r *Registry) IsOnDuty(driverID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[driverID]
	return ok
}

// SessionID returns the duty session bound to the driver's registration.
func (r *Registry) SessionID(driverID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[driverID]
	if !ok {
		return "", false
	}
	return e.sessionID, true
}

// Count reports how many drivers are on duty.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
