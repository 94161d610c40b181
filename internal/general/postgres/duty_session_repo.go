package postgres

import (
	"context"

	"drive-hub/internal/domain/duty"
	"drive-hub/internal/ports"

	"github.com/jackc/pgx/v5"
)

// DutySessionRepo persists duty session records using pgx and plain SQL.
type DutySessionRepo struct{}

// NewDutySessionRepo constructs a new DutySessionRepo.
func NewDutySessionRepo() ports.DutySessionRepository {
	return &DutySessionRepo{}
}

// Start creates a new duty session row and returns its generated session ID.
func (repo *DutySessionRepo) Start(ctx context.Context, driverID string) (string, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return "", err
	}

	session, err := duty.NewSession(driverID)
	if err != nil {
		return "", err
	}

	var sessionID string
	err = tx.QueryRow(ctx, `
		INSERT INTO duty_sessions (driver_id, started_at, total_trips, total_earnings)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		session.DriverID,
		session.StartedAt,
		session.TotalTrips,
		session.TotalEarnings,
	).Scan(&sessionID)
	if err != nil {
		return "", err
	}

	return sessionID, nil
}

// End updates an existing session with its summary and marks it ended.
func (repo *DutySessionRepo) End(ctx context.Context, sessionID string, summary duty.Session) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if summary.EndedAt == nil {
		if err := summary.End(); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE duty_sessions
		SET ended_at = $1,
		    total_trips = $2,
		    total_earnings = $3
		WHERE id = $4
	`, summary.EndedAt, summary.TotalTrips, summary.TotalEarnings, sessionID)

	return err
}

// GetActiveForDriver fetches the driver's open session, if any.
func (repo *DutySessionRepo) GetActiveForDriver(ctx context.Context, driverID string) (*duty.Session, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var session duty.Session

	err = tx.QueryRow(ctx, `
		SELECT
			id,
			driver_id,
			started_at,
			ended_at,
			total_trips,
			total_earnings
		FROM duty_sessions
		WHERE driver_id = $1 AND ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`, driverID).Scan(
		&session.ID,
		&session.DriverID,
		&session.StartedAt,
		&session.EndedAt,
		&session.TotalTrips,
		&session.TotalEarnings,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

// IncrementCounters updates aggregate counters for an active session.
func (repo *DutySessionRepo) IncrementCounters(ctx context.Context, sessionID string, totalTrips int, totalEarnings float64) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE duty_sessions
		SET total_trips = $1,
		    total_earnings = $2
		WHERE id = $3
	`, totalTrips, totalEarnings, sessionID)

	return err
}
