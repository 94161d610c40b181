// Package tripstate holds the in-memory authority for live trip state.
// Postgres keeps the durable record, but every lifecycle decision that
// must be race-free (driver claims, the one-active-trip rule) is taken
// here under a single lock and only then written through.
package tripstate

import (
	"sync"

	"drive-hub/internal/domain/trip"
	"drive-hub/internal/pkg/errs"
)

// Registry indexes all non-terminal trips by id, passenger and driver.
// Trips are stored as private copies; callers always receive clones.
type Registry struct {
	mu          sync.Mutex
	trips       map[string]*trip.Trip
	byPassenger map[string]string
	byDriver    map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		trips:       make(map[string]*trip.Trip),
		byPassenger: make(map[string]string),
		byDriver:    make(map[string]string),
	}
}

// Add inserts a freshly created trip. Fails with a conflict when the
// passenger already has an active trip, which is checked and claimed in
// the same critical section.
func (r *Registry) Add(t *trip.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !t.Active() {
		return errs.InvalidRequest("cannot register a terminal trip")
	}
	if _, busy := r.byPassenger[t.PassengerID]; busy {
		return errs.Conflict("passenger already has an active trip")
	}
	if _, dup := r.trips[t.ID]; dup {
		return errs.Conflict("trip already registered")
	}

	cp := t.Clone()
	r.trips[cp.ID] = cp
	r.byPassenger[cp.PassengerID] = cp.ID
	if cp.DriverID != nil {
		r.byDriver[*cp.DriverID] = cp.ID
	}
	return nil
}

// Get returns a clone of the active trip, or a not-found error.
func (r *Registry) Get(tripID string) (*trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[tripID]
	if !ok {
		return nil, errs.NotFound("trip", tripID)
	}
	return t.Clone(), nil
}

// ActiveForPassenger returns a clone of the passenger's active trip.
func (r *Registry) ActiveForPassenger(passengerID string) (*trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPassenger[passengerID]
	if !ok {
		return nil, errs.NotFound("active trip for passenger", passengerID)
	}
	return r.trips[id].Clone(), nil
}

// ActiveForDriver returns a clone of the driver's active trip.
func (r *Registry) ActiveForDriver(driverID string) (*trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byDriver[driverID]
	if !ok {
		return nil, errs.NotFound("active trip for driver", driverID)
	}
	return r.trips[id].Clone(), nil
}

// Accept is the claim race arbiter. Exactly one of N concurrent calls
// for the same trip wins; the rest get a conflict. A driver who already
// carries an active trip also gets a conflict, atomically with the claim.
func (r *Registry) Accept(tripID, driverID string) (*trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[tripID]
	if !ok {
		return nil, errs.NotFound("trip", tripID)
	}
	if _, busy := r.byDriver[driverID]; busy {
		return nil, errs.Conflict("driver already has an active trip")
	}
	if err := t.Accept(driverID); err != nil {
		return nil, errs.ConflictCause(err)
	}
	r.byDriver[driverID] = tripID
	return t.Clone(), nil
}

// Release undoes a claim whose write-through failed. The trip reverts to
// CREATED and the driver slot is freed, but only while the claim is still
// exactly as Accept left it; any later transition wins over the release.
func (r *Registry) Release(tripID, driverID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[tripID]
	if !ok || t.Status != trip.StatusAccepted || t.DriverID == nil || *t.DriverID != driverID {
		return false
	}
	t.Status = trip.StatusCreated
	t.DriverID = nil
	t.AcceptedAt = nil
	delete(r.byDriver, driverID)
	return true
}

// Mutate applies fn to the stored trip under the registry lock. When fn
// leaves the trip terminal, the trip is dropped from all indices before
// the lock is released. The returned clone reflects the post-fn state.
func (r *Registry) Mutate(tripID string, fn func(*trip.Trip) error) (*trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[tripID]
	if !ok {
		return nil, errs.NotFound("trip", tripID)
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if !t.Active() {
		r.evictLocked(t)
	}
	return t.Clone(), nil
}

// Hydrate loads persisted active trips at boot. Rows that would violate
// the one-active-trip indices are skipped and reported back.
func (r *Registry) Hydrate(trips []*trip.Trip) (loaded int, skipped []string) {
	for _, t := range trips {
		if err := r.Add(t); err != nil {
			skipped = append(skipped, t.ID)
			continue
		}
		loaded++
	}
	return loaded, skipped
}

// Count reports how many active trips are registered.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trips)
}

func (r *Registry) evictLocked(t *trip.Trip) {
	delete(r.trips, t.ID)
	delete(r.byPassenger, t.PassengerID)
	if t.DriverID != nil {
		delete(r.byDriver, *t.DriverID)
	}
}
