package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"drive-hub/internal/domain/trip"
	"drive-hub/internal/ports"

	"github.com/jackc/pgx/v5"
)

// TripRepo persists trips using pgx and plain SQL.
type TripRepo struct{}

// NewTripRepo constructs a new TripRepo.
func NewTripRepo() ports.TripRepository {
	return &TripRepo{}
}

const tripColumns = `
	id, created_at, updated_at, passenger_id, driver_id,
	origin_address, origin_lat, origin_lng,
	destination_address, destination_lat, destination_lng,
	price, send_package, status,
	accepted_at, started_at, finished_at, cancelled_at, cancellation_reason,
	last_driver_lat, last_driver_lng, last_driver_reported_at`

// CreateTrip inserts a new trip row and writes the initial TRIP_CREATED event.
func (repo *TripRepo) CreateTrip(ctx context.Context, t *trip.Trip) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trips (
			id, created_at, updated_at, passenger_id,
			origin_address, origin_lat, origin_lng,
			destination_address, destination_lat, destination_lng,
			price, send_package, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		t.ID, t.CreatedAt, t.UpdatedAt, t.PassengerID,
		t.Origin.Address, t.Origin.Latitude, t.Origin.Longitude,
		t.Destination.Address, t.Destination.Latitude, t.Destination.Longitude,
		t.Price, t.SendPackage, t.Status.String(),
	)
	if err != nil {
		return err
	}

	eventData := map[string]any{
		"new_status":   t.Status.String(),
		"price":        t.Price,
		"send_package": t.SendPackage,
	}
	return insertTripEvent(ctx, tx, t.ID, trip.EventTripCreated.String(), eventData)
}

// GetByID fetches a trip by primary key (uuid).
func (repo *TripRepo) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	out, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

// GetActiveForPassenger fetches the passenger's current non-terminal trip.
func (repo *TripRepo) GetActiveForPassenger(ctx context.Context, passengerID string) (*trip.Trip, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE passenger_id = $1
		  AND status IN ('CREATED', 'ACCEPTED', 'IN_PROGRESS')
		ORDER BY created_at DESC
		LIMIT 1
	`, passengerID)
	out, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

// GetActiveForDriver fetches the driver's current non-terminal trip.
func (repo *TripRepo) GetActiveForDriver(ctx context.Context, driverID string) (*trip.Trip, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE driver_id = $1
		  AND status IN ('ACCEPTED', 'IN_PROGRESS')
		ORDER BY created_at DESC
		LIMIT 1
	`, driverID)
	out, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

// AssignDriver sets driver_id, stamps accepted_at, moves status to ACCEPTED.
func (repo *TripRepo) AssignDriver(ctx context.Context, tripID, driverID string, acceptedAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var current string
	var existingDriver *string
	err = tx.QueryRow(ctx, `
		SELECT status, driver_id
		FROM trips
		WHERE id = $1
		FOR UPDATE
	`, tripID).Scan(&current, &existingDriver)
	if err != nil {
		return err
	}

	// idempotent success if already assigned to the same driver
	if current == "ACCEPTED" && existingDriver != nil && *existingDriver == driverID {
		return nil
	}

	// only allow from CREATED -> ACCEPTED
	if current != "CREATED" {
		return errors.New("can only assign driver when trip is in CREATED state")
	}

	_, err = tx.Exec(ctx, `
		UPDATE trips
		SET driver_id = $1,
		    status = 'ACCEPTED',
		    accepted_at = $2,
		    updated_at = now()
		WHERE id = $3
	`, driverID, acceptedAt, tripID)
	if err != nil {
		return err
	}

	eventData := map[string]any{
		"old_status":  current,
		"new_status":  "ACCEPTED",
		"driver_id":   driverID,
		"accepted_at": acceptedAt.UTC().Format(time.RFC3339),
	}
	return insertTripEvent(ctx, tx, tripID, trip.EventDriverAccepted.String(), eventData)
}

// UpdateStatus sets the trip status and stamps the corresponding timeline column.
func (repo *TripRepo) UpdateStatus(ctx context.Context, id string, status trip.Status, updatedAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	// lock the row and read current status to enforce transitions
	var current string
	err = tx.QueryRow(ctx, `
		SELECT status
		FROM trips
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&current)
	if err != nil {
		return err
	}

	// idempotent success
	if current == status.String() {
		return nil
	}

	if !status.Valid() {
		return errors.New("invalid trip status")
	}
	if !trip.Status(current).CanTransitionTo(status) {
		return fmt.Errorf("cannot transition from %s to %s", current, status)
	}

	timelineColumn := timelineColumnFor(status)

	query := `
	UPDATE trips
	SET status = $1,
	    updated_at = now()
	`
	if timelineColumn != "updated_at" {
		query += `, ` + timelineColumn + ` = $2
		WHERE id = $3`
	} else {
		// don't assign updated_at twice
		query += `
		WHERE id = $3`
	}

	if _, err = tx.Exec(ctx, query, status.String(), updatedAt, id); err != nil {
		return err
	}

	eventData := map[string]any{
		"old_status": current,
		"new_status": status.String(),
		"timestamp":  updatedAt.UTC().Format(time.RFC3339),
	}
	return insertTripEvent(ctx, tx, id, trip.EventTypeFor(status).String(), eventData)
}

// Cancel sets cancellation_reason, stamps cancelled_at, and moves to CANCELLED.
func (repo *TripRepo) Cancel(ctx context.Context, tripID, reason string, cancelledAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	var current string
	err = tx.QueryRow(ctx, `
		SELECT status
		FROM trips
		WHERE id = $1
		FOR UPDATE
	`, tripID).Scan(&current)
	if err != nil {
		return err
	}

	// idempotent success
	if current == "CANCELLED" {
		return nil
	}
	if current == "FINISHED" {
		return errors.New("cannot cancel a finished trip")
	}

	_, err = tx.Exec(ctx, `
		UPDATE trips
		SET status = 'CANCELLED',
		    cancellation_reason = $1,
		    cancelled_at = $2,
		    updated_at = now()
		WHERE id = $3
	`, reason, cancelledAt, tripID)
	if err != nil {
		return err
	}

	eventData := map[string]any{
		"old_status":   current,
		"new_status":   "CANCELLED",
		"reason":       reason,
		"cancelled_at": cancelledAt.UTC().Format(time.RFC3339),
	}
	return insertTripEvent(ctx, tx, tripID, trip.EventTripCancelled.String(), eventData)
}

// SaveDriverLocation stores the driver's last reported position on the trip row.
func (repo *TripRepo) SaveDriverLocation(ctx context.Context, tripID string, loc trip.DriverLocation) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE trips
		SET last_driver_lat = $1,
		    last_driver_lng = $2,
		    last_driver_reported_at = $3,
		    updated_at = now()
		WHERE id = $4
		  AND status IN ('ACCEPTED', 'IN_PROGRESS')
	`, loc.Latitude, loc.Longitude, loc.ReportedAt, tripID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("trip is not active")
	}
	return nil
}

// ListActive returns every non-terminal trip, oldest first. Used to
// rebuild the in-memory registry at boot.
func (repo *TripRepo) ListActive(ctx context.Context) ([]*trip.Trip, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("get transaction from context: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE status IN ('CREATED', 'ACCEPTED', 'IN_PROGRESS')
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query active trips: %w", err)
	}
	defer rows.Close()

	var trips []*trip.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return trips, nil
}

// --- helpers ---

// scanTrip reads one trips row in tripColumns order.
func scanTrip(row pgx.Row) (*trip.Trip, error) {
	var out trip.Trip
	var status string
	var lastLat, lastLng *float64
	var lastReportedAt *time.Time

	err := row.Scan(
		&out.ID, &out.CreatedAt, &out.UpdatedAt, &out.PassengerID, &out.DriverID,
		&out.Origin.Address, &out.Origin.Latitude, &out.Origin.Longitude,
		&out.Destination.Address, &out.Destination.Latitude, &out.Destination.Longitude,
		&out.Price, &out.SendPackage, &status,
		&out.AcceptedAt, &out.StartedAt, &out.FinishedAt, &out.CancelledAt, &out.CancellationReason,
		&lastLat, &lastLng, &lastReportedAt,
	)
	if err != nil {
		return nil, err
	}

	out.Status = trip.Status(status)
	if lastLat != nil && lastLng != nil && lastReportedAt != nil {
		out.LastDriverLocation = &trip.DriverLocation{
			Latitude:   *lastLat,
			Longitude:  *lastLng,
			ReportedAt: *lastReportedAt,
		}
	}
	return &out, nil
}

// insertTripEvent writes a row into trip_events with encoded event_data.
func insertTripEvent(ctx context.Context, tx pgx.Tx, tripID, eventType string, eventData any) error {
	body, err := json.Marshal(eventData)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trip_events (trip_id, event_type, event_data)
		VALUES ($1, $2, $3::jsonb)
	`, tripID, eventType, string(body))
	return err
}

// timelineColumnFor maps a status to the timeline column that must be stamped.
func timelineColumnFor(status trip.Status) string {
	switch status {
	case trip.StatusAccepted:
		return "accepted_at"
	case trip.StatusInProgress:
		return "started_at"
	case trip.StatusFinished:
		return "finished_at"
	case trip.StatusCancelled:
		return "cancelled_at"
	default:
		return "updated_at"
	}
}
