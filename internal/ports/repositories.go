package ports

import (
	"context"
	"time"

	"drive-hub/internal/domain/duty"
	"drive-hub/internal/domain/trip"
	"drive-hub/internal/domain/user"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the methods for managing user data.
type UserRepository interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// TripRepository defines the methods for managing trip data.
type TripRepository interface {
	CreateTrip(ctx context.Context, t *trip.Trip) error
	GetByID(ctx context.Context, id string) (*trip.Trip, error)
	GetActiveForPassenger(ctx context.Context, passengerID string) (*trip.Trip, error)
	GetActiveForDriver(ctx context.Context, driverID string) (*trip.Trip, error)
	AssignDriver(ctx context.Context, tripID, driverID string, acceptedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status trip.Status, ts time.Time) error
	Cancel(ctx context.Context, tripID, reason string, cancelledAt time.Time) error
	SaveDriverLocation(ctx context.Context, tripID string, loc trip.DriverLocation) error
	ListActive(ctx context.Context) ([]*trip.Trip, error)
}

// TripDraftRepository defines the methods for persisting priced drafts.
// The in-memory store is authoritative for reads; persistence is for audit.
type TripDraftRepository interface {
	CreateDraft(ctx context.Context, d *trip.Draft) error
	MarkConsumed(ctx context.Context, draftID string, tripID string, at time.Time) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TripEventRepository defines the methods for the append-only trip event log.
type TripEventRepository interface {
	Append(ctx context.Context, e *trip.Event) error
	ListForTrip(ctx context.Context, tripID string) ([]*trip.Event, error)
}

// DutySessionRepository defines the methods for managing duty session data.
type DutySessionRepository interface {
	Start(ctx context.Context, driverID string) (sessionID string, err error)
	End(ctx context.Context, sessionID string, summary duty.Session) error
	GetActiveForDriver(ctx context.Context, driverID string) (*duty.Session, error)
	IncrementCounters(ctx context.Context, sessionID string, totalTrips int, totalEarnings float64) error
}
