package service

import (
	"context"
	"time"

	"drive-hub/internal/domain/trip"
	"drive-hub/internal/pkg/errs"
	"drive-hub/internal/ports"
)

// AcceptTrip arbitrates the driver claim race. The registry takes the
// decision under its lock: exactly one of N concurrent claims wins, every
// other driver gets a conflict. Only the winner's claim is written through.
func (service *tripService) AcceptTrip(ctx context.Context, in ports.AcceptTripInput) (ports.TripResult, error) {
	correlationID := generateCorrelationID()

	claimed, err := service.registry.Accept(in.TripID, in.DriverID)
	if err != nil {
		return ports.TripResult{}, err
	}

	// write through: driver assignment + DRIVER_ACCEPTED event
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		acceptedAt := time.Now().UTC()
		if claimed.AcceptedAt != nil {
			acceptedAt = *claimed.AcceptedAt
		}
		if err := service.tripRepo.AssignDriver(txCtx, claimed.ID, in.DriverID, acceptedAt); err != nil {
			return err
		}

		event, err := trip.NewEvent(claimed.ID, trip.EventDriverAccepted, map[string]any{
			"driver_id": in.DriverID,
		})
		if err != nil {
			return err
		}
		return service.eventRepo.Append(txCtx, event)
	})
	if err != nil {
		// the claim must be durable before the driver hears about it;
		// release the slot so the trip stays claimable
		service.registry.Release(claimed.ID, in.DriverID)
		service.logger.Error(ctx, "accept_persist_failed", "Failed to persist driver assignment", err, map[string]any{
			"trip_id":    claimed.ID,
			"driver_id":  in.DriverID,
			"request_id": correlationID,
		})
		return ports.TripResult{}, errs.Internal("persist driver assignment", err)
	}

	service.dispatchTripStatus(ctx, claimed, correlationID)

	service.logger.Info(ctx, "trip_accepted", "Driver claimed the trip", map[string]any{
		"trip_id":    claimed.ID,
		"driver_id":  in.DriverID,
		"request_id": correlationID,
	})

	return toTripResult(claimed), nil
}
