package service

import (
	"context"
	"time"

	"drive-hub/internal/domain/geo"
	"drive-hub/internal/domain/trip"
	"drive-hub/internal/pkg/errs"
	"drive-hub/internal/ports"

	"github.com/google/uuid"
)

// CreateDraft validates and prices a route, stores the quote for its
// validity window and writes an audit row. The quote is frozen: the trip
// created from it keeps this price even if tariffs change in between.
func (service *tripService) CreateDraft(ctx context.Context, in ports.CreateDraftInput) (ports.DraftResult, error) {
	correlationID := generateCorrelationID()

	origin, err := geo.NewLocation(in.OriginAddress, in.OriginLatitude, in.OriginLongitude)
	if err != nil {
		return ports.DraftResult{}, errs.InvalidRequestCause(err)
	}
	destination, err := geo.NewLocation(in.DestinationAddress, in.DestinationLatitude, in.DestinationLongitude)
	if err != nil {
		return ports.DraftResult{}, errs.InvalidRequestCause(err)
	}

	draft, err := trip.NewDraft(uuid.NewString(), in.PassengerID, origin, destination, service.cfg.DraftTTL)
	if err != nil {
		return ports.DraftResult{}, errs.InvalidRequestCause(err)
	}

	// memory first: the store answers all reads within the TTL window
	service.drafts.Put(draft)

	// the quote must be durable before the passenger can act on it
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.draftRepo.CreateDraft(txCtx, draft)
	})
	if err != nil {
		service.drafts.Remove(draft.ID)
		service.logger.Error(ctx, "draft_persist_failed", "Failed to persist trip draft", err, map[string]any{
			"draft_id":   draft.ID,
			"request_id": correlationID,
		})
		return ports.DraftResult{}, errs.Internal("persist trip draft", err)
	}

	service.logger.Info(ctx, "draft_created", "Trip draft priced", map[string]any{
		"draft_id":     draft.ID,
		"passenger_id": in.PassengerID,
		"price":        draft.Price,
		"expires_at":   draft.ExpiresAt,
		"request_id":   correlationID,
	})

	return draftResult(draft), nil
}

// FindDraft returns a still-valid draft owned by the passenger.
func (service *tripService) FindDraft(ctx context.Context, draftID, passengerID string) (ports.DraftResult, error) {
	draft, err := service.drafts.Get(draftID, passengerID, time.Now().UTC())
	if err != nil {
		return ports.DraftResult{}, err
	}
	return draftResult(draft), nil
}

// draftResult maps a domain draft to the boundary view, quoting both the
// trip price and the package variant.
func draftResult(d *trip.Draft) ports.DraftResult {
	dst := geo.HaversineKM(d.Origin.Latitude, d.Origin.Longitude, d.Destination.Latitude, d.Destination.Longitude)
	return ports.DraftResult{
		DraftID:                  d.ID,
		Price:                    d.Price,
		PackagePrice:             trip.PackagePrice(d.Price),
		EstimatedDistanceKM:      dst,
		EstimatedDurationMinutes: trip.EstimateDurationMinutes(dst),
		ExpiresAt:                d.ExpiresAt,
	}
}
