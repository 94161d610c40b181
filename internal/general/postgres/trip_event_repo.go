package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"drive-hub/internal/domain/trip"
	"drive-hub/internal/ports"
)

// TripEventRepo persists trip events using pgx and plain SQL.
type TripEventRepo struct{}

// NewTripEventRepo constructs a new TripEventRepo.
func NewTripEventRepo() ports.TripEventRepository {
	return &TripEventRepo{}
}

// Append inserts a new trip_events row.
func (repo *TripEventRepo) Append(ctx context.Context, event *trip.Event) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if !event.Type.Valid() {
		return trip.ErrInvalidEventType
	}

	data, err := event.DataJSON()
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO trip_events (trip_id, event_type, event_data)
		VALUES ($1, $2, $3::jsonb)
		RETURNING id, created_at
	`,
		event.TripID,
		event.Type.String(),
		string(data),
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return err
	}

	return nil
}

// ListForTrip returns the trip's events, oldest first.
func (repo *TripEventRepo) ListForTrip(ctx context.Context, tripID string) ([]*trip.Event, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, created_at, trip_id, event_type, event_data
		FROM trip_events
		WHERE trip_id = $1
		ORDER BY created_at ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("query trip events: %w", err)
	}
	defer rows.Close()

	var events []*trip.Event
	for rows.Next() {
		var ev trip.Event
		var eventType string
		var raw []byte
		if err := rows.Scan(&ev.ID, &ev.CreatedAt, &ev.TripID, &eventType, &raw); err != nil {
			return nil, fmt.Errorf("scan trip event: %w", err)
		}
		ev.Type = trip.EventType(eventType)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &ev.Data); err != nil {
				return nil, fmt.Errorf("decode event data: %w", err)
			}
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return events, nil
}
