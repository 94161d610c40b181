package trip

import (
	"errors"
	"strings"
	"time"

	"drive-hub/internal/domain/geo"
)

// Draft is a priced, unconfirmed trip proposal with a short validity window.
// Immutable after creation; it either expires or is consumed into a Trip.
type Draft struct {
	ID          string
	PassengerID string
	Origin      geo.Location
	Destination geo.Location
	Price       float64
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

var (
	ErrSameOriginDestination = errors.New("origin and destination must differ")
	ErrDraftExpired          = errors.New("draft has expired")
)

// NewDraft validates the route, prices it, and stamps the expiry window.
func NewDraft(id, passengerID string, origin, destination geo.Location, ttl time.Duration) (*Draft, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, errors.New("draft id is required")
	}
	if passengerID = strings.TrimSpace(passengerID); passengerID == "" {
		return nil, ErrPassengerRequired
	}
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}
	if origin.SamePlace(destination) {
		return nil, ErrSameOriginDestination
	}

	now := time.Now().UTC()
	return &Draft{
		ID:          id,
		PassengerID: passengerID,
		Origin:      origin,
		Destination: destination,
		Price:       PriceFor(origin, destination),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}

// Expired reports whether the draft is past its validity window at instant now.
func (d *Draft) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// Clone returns a copy safe to hand out across goroutines.
func (d *Draft) Clone() *Draft {
	cp := *d
	return &cp
}
