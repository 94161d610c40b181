package trip

import (
	"errors"
	"strings"
	"time"

	"drive-hub/internal/domain/geo"
)

// Trip is the domain entity corresponding to the `trips` table.
type Trip struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Actors
	PassengerID string
	DriverID    *string // nil until a driver accepts

	// Route & price (frozen from the draft at creation time)
	Origin      geo.Location
	Destination geo.Location
	Price       float64
	SendPackage bool

	// Core state
	Status Status

	// Lifecycle timestamps
	AcceptedAt  *time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	CancelledAt *time.Time

	// Additional info
	CancellationReason *string
	LastDriverLocation *DriverLocation
}

// DriverLocation is the last position reported by the assigned driver.
type DriverLocation struct {
	Latitude   float64
	Longitude  float64
	ReportedAt time.Time
}

var (
	ErrPassengerRequired       = errors.New("passenger id is required")
	ErrDriverRequired          = errors.New("driver id is required")
	ErrInvalidStatusTransition = errors.New("invalid trip status transition")
	ErrAlreadyAssigned         = errors.New("driver already assigned")
	ErrNoDriverAssigned        = errors.New("no driver assigned")
	ErrInvalidPrice            = errors.New("price must be positive")
)

// NewTrip creates a trip in CREATED state from a consumed draft.
func NewTrip(id, passengerID string, origin, destination geo.Location, price float64, sendPackage bool) (*Trip, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, errors.New("trip id is required")
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
	if price <= 0 {
		return nil, ErrInvalidPrice
	}

	now := time.Now().UTC()
	return &Trip{
		ID:          id,
		CreatedAt:   now,
		UpdatedAt:   now,
		PassengerID: passengerID,
		Origin:      origin,
		Destination: destination,
		Price:       price,
		SendPackage: sendPackage,
		Status:      StatusCreated,
	}, nil
}

// Accept assigns the driver and moves CREATED -> ACCEPTED.
// The caller must hold whatever lock makes this a compare-and-set.
func (t *Trip) Accept(driverID string) error {
	if driverID = strings.TrimSpace(driverID); driverID == "" {
		return ErrDriverRequired
	}
	if t.DriverID != nil && *t.DriverID != "" {
		return ErrAlreadyAssigned
	}
	if t.Status != StatusCreated {
		return ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	t.DriverID = &driverID
	t.AcceptedAt = &now
	t.setStatus(StatusAccepted)
	return nil
}

// Start transitions ACCEPTED -> IN_PROGRESS.
func (t *Trip) Start() error {
	if t.DriverID == nil || *t.DriverID == "" {
		return ErrNoDriverAssigned
	}
	if t.Status != StatusAccepted {
		return ErrInvalidStatusTransition
	}
	now := time.Now().UTC()
	t.StartedAt = &now
	t.setStatus(StatusInProgress)
	return nil
}

// Finish transitions ACCEPTED or IN_PROGRESS -> FINISHED.
func (t *Trip) Finish() error {
	if t.DriverID == nil || *t.DriverID == "" {
		return ErrNoDriverAssigned
	}
	if !t.Status.CanTransitionTo(StatusFinished) {
		return ErrInvalidStatusTransition
	}
	now := time.Now().UTC()
	t.FinishedAt = &now
	t.setStatus(StatusFinished)
	return nil
}

// Cancel transitions to CANCELLED (if not terminal).
func (t *Trip) Cancel(reason string) error {
	if t.Status.Terminal() {
		return ErrInvalidStatusTransition
	}
	now := time.Now().UTC()
	t.CancelledAt = &now
	if rs := strings.TrimSpace(reason); rs != "" {
		t.CancellationReason = &rs
	}
	t.setStatus(StatusCancelled)
	return nil
}

// Active reports whether the trip is in a non-terminal state.
func (t *Trip) Active() bool {
	return !t.Status.Terminal()
}

// RecordDriverLocation caches the driver's last reported position.
func (t *Trip) RecordDriverLocation(lat, lng float64, at time.Time) {
	t.LastDriverLocation = &DriverLocation{Latitude: lat, Longitude: lng, ReportedAt: at.UTC()}
	t.touch()
}

// Clone returns a deep copy, safe to hand out across goroutines.
func (t *Trip) Clone() *Trip {
	cp := *t
	cp.DriverID = clonePtr(t.DriverID)
	cp.AcceptedAt = clonePtr(t.AcceptedAt)
	cp.StartedAt = clonePtr(t.StartedAt)
	cp.FinishedAt = clonePtr(t.FinishedAt)
	cp.CancelledAt = clonePtr(t.CancelledAt)
	cp.CancellationReason = clonePtr(t.CancellationReason)
	cp.LastDriverLocation = clonePtr(t.LastDriverLocation)
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ----- internal helpers -----

func (t *Trip) setStatus(status Status) {
	t.Status = status
	t.touch()
}

func (t *Trip) touch() {
	t.UpdatedAt = time.Now().UTC()
}
