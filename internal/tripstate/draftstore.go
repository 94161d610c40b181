package tripstate

import (
	"sync"
	"time"

	"drive-hub/internal/domain/trip"
	"drive-hub/internal/pkg/errs"
)

// DraftStore keeps priced drafts for their short validity window.
// Expired drafts are treated as absent on read and purged by Sweep.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[string]*trip.Draft
}

// NewDraftStore creates an empty DraftStore.
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]*trip.Draft)}
}

// Put stores the draft.
func (s *DraftStore) Put(d *trip.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = d.Clone()
}

// Get returns a clone of the draft when it exists, belongs to the
// passenger and has not expired. An expired draft is evicted on the spot.
func (s *DraftStore) Get(draftID, passengerID string, now time.Time) (*trip.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok || d.PassengerID != passengerID {
		return nil, errs.NotFound("trip draft", draftID)
	}
	if d.Expired(now) {
		delete(s.drafts, draftID)
		return nil, errs.NotFound("trip draft", draftID)
	}
	return d.Clone(), nil
}

// Consume atomically removes and returns the draft, enforcing ownership
// and expiry. A draft can be consumed exactly once.
func (s *DraftStore) Consume(draftID, passengerID string, now time.Time) (*trip.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok || d.PassengerID != passengerID {
		return nil, errs.NotFound("trip draft", draftID)
	}
	delete(s.drafts, draftID)
	if d.Expired(now) {
		return nil, errs.NotFound("trip draft", draftID)
	}
	return d, nil
}

// Remove drops the draft regardless of owner or expiry. Used to take back
// a quote whose audit row could not be written.
func (s *DraftStore) Remove(draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftID)
}

// Sweep purges every draft expired at instant now and reports how many
// were removed.
func (s *DraftStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, d := range s.drafts {
		if d.Expired(now) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}

// Len reports how many drafts are held, expired ones included.
func (s *DraftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}
