package postgres

import (
	"context"
	"time"

	"drive-hub/internal/domain/trip"
	"drive-hub/internal/ports"
)

// DraftRepo persists trip drafts for audit; the in-memory store stays
// authoritative for reads.
type DraftRepo struct{}

// NewDraftRepo constructs a new DraftRepo.
func NewDraftRepo() ports.TripDraftRepository {
	return &DraftRepo{}
}

// CreateDraft inserts a draft row.
func (repo *DraftRepo) CreateDraft(ctx context.Context, d *trip.Draft) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trip_drafts (
			id, passenger_id,
			origin_address, origin_lat, origin_lng,
			destination_address, destination_lat, destination_lng,
			price, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		d.ID, d.PassengerID,
		d.Origin.Address, d.Origin.Latitude, d.Origin.Longitude,
		d.Destination.Address, d.Destination.Latitude, d.Destination.Longitude,
		d.Price, d.CreatedAt, d.ExpiresAt,
	)
	return err
}

// MarkConsumed records which trip a draft turned into.
func (repo *DraftRepo) MarkConsumed(ctx context.Context, draftID string, tripID string, at time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE trip_drafts
		SET consumed_by_trip_id = $1,
		    consumed_at = $2
		WHERE id = $3
	`, tripID, at, draftID)
	return err
}

// DeleteExpiredBefore purges unconsumed drafts that expired before cutoff.
func (repo *DraftRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM trip_drafts
		WHERE expires_at < $1
		  AND consumed_by_trip_id IS NULL
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
