package service

import (
	"context"
	"fmt"
	"time"

	"drive-hub/internal/domain/trip"
	"drive-hub/internal/ports"

	"github.com/google/uuid"
)

// CreateTrip consumes a priced draft into a live CREATED trip. The
// one-active-trip-per-passenger rule is claimed in the registry before
// anything is persisted; the draft is burned either way, a passenger who
// wants to retry prices a new one.
func (service *tripService) CreateTrip(ctx context.Context, in ports.CreateTripInput) (ports.TripResult, error) {
	correlationID := generateCorrelationID()

	// consume-once: the draft leaves the store even if creation fails later
	draft, err := service.drafts.Consume(in.DraftID, in.PassengerID, time.Now().UTC())
	if err != nil {
		return ports.TripResult{}, err
	}

	price := draft.Price
	if in.SendPackage {
		price = trip.PackagePrice(price)
	}

	t, err := trip.NewTrip(uuid.NewString(), in.PassengerID, draft.Origin, draft.Destination, price, in.SendPackage)
	if err != nil {
		return ports.TripResult{}, err
	}

	// claim the passenger's active slot atomically
	if err := service.registry.Add(t); err != nil {
		return ports.TripResult{}, err
	}

	// write through to Postgres: trip row + TRIP_CREATED event + draft consumption
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		if err := service.tripRepo.CreateTrip(txCtx, t); err != nil {
			return err
		}
		return service.draftRepo.MarkConsumed(txCtx, draft.ID, t.ID, time.Now().UTC())
	})
	if err != nil {
		// release the passenger's slot; the trip never existed for anyone
		_, _ = service.registry.Mutate(t.ID, func(mt *trip.Trip) error {
			return mt.Cancel("PERSISTENCE_FAILED")
		})
		service.logger.Error(ctx, "trip_create_failed", "Failed to persist trip", err, map[string]any{
			"trip_id":      t.ID,
			"passenger_id": in.PassengerID,
			"request_id":   correlationID,
		})
		return ports.TripResult{}, err
	}

	// announce CREATED and put the trip in front of every on-duty driver
	service.dispatchTripStatus(ctx, t, correlationID)
	service.offerToDrivers(ctx, t, correlationID)

	// start the match window; an unclaimed trip cancels itself
	go service.superviseMatch(context.Background(), t.ID, correlationID)

	service.logger.Info(ctx, "trip_created", fmt.Sprintf("Trip %s created", t.ID), map[string]any{
		"trip_id":      t.ID,
		"passenger_id": in.PassengerID,
		"price":        t.Price,
		"send_package": t.SendPackage,
		"request_id":   correlationID,
	})

	return toTripResult(t), nil
}

// superviseMatch cancels the trip when no driver claims it within the
// match window. The registry check and the cancel are one Mutate, so a
// claim landing at the deadline still wins.
func (service *tripService) superviseMatch(ctx context.Context, tripID, correlationID string) {
	timer := time.NewTimer(service.cfg.MatchTimeout)
	defer timer.Stop()

	<-timer.C

	cancelled, err := service.registry.Mutate(tripID, func(t *trip.Trip) error {
		if t.Status != trip.StatusCreated {
			return errSkipCancel
		}
		return t.Cancel("NO_MATCH_TIMEOUT")
	})
	if err != nil {
		// already claimed, finished or gone; nothing to do
		return
	}

	service.logger.Info(ctx, "match_timeout", "No driver accepted within the match window", map[string]any{
		"trip_id":    tripID,
		"request_id": correlationID,
	})

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.tripRepo.Cancel(txCtx, tripID, "No driver accepted the trip in time", time.Now().UTC())
	})
	if err != nil {
		service.logger.Error(ctx, "match_timeout_cancel_failed", "Failed to persist timeout cancellation", err, map[string]any{
			"trip_id":    tripID,
			"request_id": correlationID,
		})
	}

	service.dispatchTripStatus(ctx, cancelled, correlationID)
}

// errSkipCancel aborts the timeout Mutate when the trip moved past CREATED.
var errSkipCancel = fmt.Errorf("trip already progressed")
