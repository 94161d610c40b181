package duty

import (
	"errors"
	"strings"
	"time"
)

// Session is the domain entity corresponding to the `duty_sessions` table.
// One row per continuous on-duty stretch of a driver.
type Session struct {
	ID            string
	DriverID      string
	StartedAt     time.Time
	EndedAt       *time.Time
	TotalTrips    int
	TotalEarnings float64
}

var (
	ErrDriverIDRequired    = errors.New("driver id is required")
	ErrSessionAlreadyEnded = errors.New("duty session already ended")
	ErrNegativeEarnings    = errors.New("earnings cannot be negative")
)

// NewSession creates a duty session starting "now".
func NewSession(driverID string) (*Session, error) {
	if driverID = strings.TrimSpace(driverID); driverID == "" {
		return nil, ErrDriverIDRequired
	}

	return &Session{
		DriverID:  driverID,
		StartedAt: time.Now().UTC(),
	}, nil
}

// AddTrip records a finished trip against the session totals.
func (session *Session) AddTrip(earnings float64) error {
	if session.EndedAt != nil {
		return ErrSessionAlreadyEnded
	}
	if earnings < 0 {
		return ErrNegativeEarnings
	}

	session.TotalTrips++
	session.TotalEarnings += earnings
	return nil
}

// End marks the session ended "now". Returns an error on double end.
func (session *Session) End() error {
	if session.EndedAt != nil {
		return ErrSessionAlreadyEnded
	}
	now := time.Now().UTC()
	session.EndedAt = &now
	return nil
}

// Active reports whether the session is still open.
func (session *Session) Active() bool {
	return session.EndedAt == nil
}
