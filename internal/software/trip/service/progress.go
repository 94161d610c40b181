package service

import (
	"context"
	"time"

	"drive-hub/internal/domain/trip"
	"drive-hub/internal/pkg/errs"
	"drive-hub/internal/ports"
)

// StartTrip moves the driver's accepted trip to IN_PROGRESS.
func (service *tripService) StartTrip(ctx context.Context, driverID string) (ports.TripResult, error) {
	correlationID := generateCorrelationID()

	active, err := service.registry.ActiveForDriver(driverID)
	if err != nil {
		return ports.TripResult{}, err
	}

	started, err := service.registry.Mutate(active.ID, func(t *trip.Trip) error {
		if err := t.Start(); err != nil {
			return errs.ConflictCause(err)
		}
		return nil
	})
	if err != nil {
		return ports.TripResult{}, err
	}

	if err := service.persistTransition(ctx, started, correlationID); err != nil {
		// revert to ACCEPTED; the driver retries once the store recovers
		_, _ = service.registry.Mutate(started.ID, func(t *trip.Trip) error {
			if t.Status != trip.StatusInProgress {
				return errSkipCancel
			}
			t.Status = trip.StatusAccepted
			t.StartedAt = nil
			return nil
		})
		return ports.TripResult{}, errs.Internal("persist trip start", err)
	}
	service.dispatchTripStatus(ctx, started, correlationID)

	service.logger.Info(ctx, "trip_started", "Trip moved to IN_PROGRESS", map[string]any{
		"trip_id":    started.ID,
		"driver_id":  driverID,
		"request_id": correlationID,
	})

	return toTripResult(started), nil
}

// FinishTrip ends the driver's active trip. A plain finish settles the
// trip and credits the driver's duty session; Cancel aborts instead, the
// trip then pays nothing.
func (service *tripService) FinishTrip(ctx context.Context, in ports.FinishTripInput) (ports.FinishTripResult, error) {
	correlationID := generateCorrelationID()

	active, err := service.registry.ActiveForDriver(in.DriverID)
	if err != nil {
		return ports.FinishTripResult{}, err
	}

	if in.Cancel {
		reason := in.Reason
		if reason == "" {
			reason = "CANCELLED_BY_DRIVER"
		}
		cancelled, err := service.cancelActive(ctx, active, reason, correlationID)
		if err != nil {
			return ports.FinishTripResult{}, err
		}

		service.logger.Info(ctx, "trip_cancelled_by_driver", "Driver aborted the trip", map[string]any{
			"trip_id":    cancelled.ID,
			"driver_id":  in.DriverID,
			"reason":     reason,
			"request_id": correlationID,
		})

		return ports.FinishTripResult{
			TripID:     cancelled.ID,
			Status:     cancelled.Status.String(),
			FinishedAt: *cancelled.CancelledAt,
			Earnings:   0,
			Message:    "Trip cancelled",
		}, nil
	}

	finished, err := service.registry.Mutate(active.ID, func(t *trip.Trip) error {
		if err := t.Finish(); err != nil {
			return errs.ConflictCause(err)
		}
		return nil
	})
	if err != nil {
		return ports.FinishTripResult{}, err
	}

	if err := service.persistTransition(ctx, finished, correlationID); err != nil {
		service.reinstate(ctx, active, correlationID)
		return ports.FinishTripResult{}, errs.Internal("persist trip finish", err)
	}
	service.dispatchTripStatus(ctx, finished, correlationID)

	if err := service.publishSettlement(ctx, finished, correlationID); err != nil {
		service.logger.Error(ctx, "settlement_publish_failed", "Failed to publish trip settlement", err, map[string]any{
			"trip_id":    finished.ID,
			"request_id": correlationID,
		})
	}

	// credit the driver's open duty session with the fare
	if err := service.dutySvc.CreditTrip(ctx, in.DriverID, finished.Price); err != nil {
		service.logger.Error(ctx, "duty_credit_failed", "Failed to credit duty session", err, map[string]any{
			"trip_id":    finished.ID,
			"driver_id":  in.DriverID,
			"request_id": correlationID,
		})
	}

	service.logger.Info(ctx, "trip_finished", "Trip finished", map[string]any{
		"trip_id":    finished.ID,
		"driver_id":  in.DriverID,
		"earnings":   finished.Price,
		"request_id": correlationID,
	})

	return ports.FinishTripResult{
		TripID:     finished.ID,
		Status:     finished.Status.String(),
		FinishedAt: *finished.FinishedAt,
		Earnings:   finished.Price,
		Message:    "Trip finished",
	}, nil
}

// CancelTrip cancels the passenger's active trip from any non-terminal state.
func (service *tripService) CancelTrip(ctx context.Context, passengerID, reason string) (ports.CancelTripResult, error) {
	correlationID := generateCorrelationID()

	active, err := service.registry.ActiveForPassenger(passengerID)
	if err != nil {
		return ports.CancelTripResult{}, err
	}

	if reason == "" {
		reason = "CANCELLED_BY_PASSENGER"
	}
	cancelled, err := service.cancelActive(ctx, active, reason, correlationID)
	if err != nil {
		return ports.CancelTripResult{}, err
	}

	service.logger.Info(ctx, "trip_cancelled", "Passenger cancelled the trip", map[string]any{
		"trip_id":      cancelled.ID,
		"passenger_id": passengerID,
		"reason":       reason,
		"request_id":   correlationID,
	})

	return ports.CancelTripResult{
		TripID:      cancelled.ID,
		Status:      cancelled.Status.String(),
		CancelledAt: *cancelled.CancelledAt,
		Message:     "Trip cancelled",
	}, nil
}

// FindActiveForPassenger returns the passenger's non-terminal trip.
func (service *tripService) FindActiveForPassenger(ctx context.Context, passengerID string) (ports.TripResult, error) {
	active, err := service.registry.ActiveForPassenger(passengerID)
	if err != nil {
		return ports.TripResult{}, err
	}
	return toTripResult(active), nil
}

// FindActiveForDriver returns the driver's non-terminal trip.
func (service *tripService) FindActiveForDriver(ctx context.Context, driverID string) (ports.TripResult, error) {
	active, err := service.registry.ActiveForDriver(driverID)
	if err != nil {
		return ports.TripResult{}, err
	}
	return toTripResult(active), nil
}

// cancelActive runs the shared cancellation path: registry mutation with
// terminal eviction, durable write-through, status dispatch. prior is the
// caller's pre-cancel clone, reinstated when the write-through fails.
func (service *tripService) cancelActive(ctx context.Context, prior *trip.Trip, reason, correlationID string) (*trip.Trip, error) {
	cancelled, err := service.registry.Mutate(prior.ID, func(t *trip.Trip) error {
		if err := t.Cancel(reason); err != nil {
			return errs.ConflictCause(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.tripRepo.Cancel(txCtx, prior.ID, reason, *cancelled.CancelledAt)
	})
	if err != nil {
		service.logger.Error(ctx, "cancel_persist_failed", "Failed to persist cancellation", err, map[string]any{
			"trip_id":    prior.ID,
			"request_id": correlationID,
		})
		service.reinstate(ctx, prior, correlationID)
		return nil, errs.Internal("persist cancellation", err)
	}

	service.dispatchTripStatus(ctx, cancelled, correlationID)
	return cancelled, nil
}

// persistTransition writes a status change through to Postgres. The caller
// rolls the in-memory transition back when this fails; success is only
// reported on top of a durable row.
func (service *tripService) persistTransition(ctx context.Context, t *trip.Trip, correlationID string) error {
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.tripRepo.UpdateStatus(txCtx, t.ID, t.Status, time.Now().UTC())
	})
	if err != nil {
		service.logger.Error(ctx, "transition_persist_failed", "Failed to persist status transition", err, map[string]any{
			"trip_id":    t.ID,
			"status":     t.Status.String(),
			"request_id": correlationID,
		})
	}
	return err
}

// reinstate puts a pre-terminal clone back after a failed terminal
// write-through. Eviction freed the party slots, so re-adding can lose a
// race with a brand-new trip; that leftover is surfaced in the log.
func (service *tripService) reinstate(ctx context.Context, prior *trip.Trip, correlationID string) {
	if err := service.registry.Add(prior); err != nil {
		service.logger.Error(ctx, "trip_reinstate_failed", "Failed to reinstate trip after persistence failure", err, map[string]any{
			"trip_id":    prior.ID,
			"request_id": correlationID,
		})
	}
}
