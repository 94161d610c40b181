package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"drive-hub/internal/broadcast"
	"drive-hub/internal/general/contracts"
	"drive-hub/internal/pkg/errs"
	"drive-hub/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RunBackgroundConsumers rebuilds the live registry from Postgres, then
// starts the queue consumers that feed the trip lifecycle: driver claims
// and fanned-out location updates.
func (service *tripService) RunBackgroundConsumers(ctx context.Context) {
	service.hydrateRegistry(ctx)
	service.startAcceptConsumer(ctx)
	service.startLocationUpdatesConsumer(ctx)
}

// hydrateRegistry loads every persisted non-terminal trip into memory so
// a restart does not orphan live trips. Rows that violate the
// one-active-trip indices are left to their database record.
func (service *tripService) hydrateRegistry(ctx context.Context) {
	var loaded int
	var skipped []string

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		trips, err := service.tripRepo.ListActive(txCtx)
		if err != nil {
			return err
		}
		loaded, skipped = service.registry.Hydrate(trips)
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "registry_hydrate_failed", "Failed to load active trips at startup", err, nil)
		return
	}

	service.logger.Info(ctx, "registry_hydrated", "Active trips loaded into registry", map[string]any{
		"loaded":  loaded,
		"skipped": len(skipped),
	})
	if len(skipped) > 0 {
		service.logger.Error(ctx, "registry_hydrate_skipped",
			"Some persisted trips violate the active-trip indices", nil,
			map[string]any{"trip_ids": skipped})
	}
}

// startAcceptConsumer serializes driver claims through the accepts queue.
// The registry still arbitrates; the queue just gives claims a durable,
// ordered path from the duty sockets to the arbiter.
func (service *tripService) startAcceptConsumer(ctx context.Context) {
	go func() {
		err := service.rabbitmq.Consume(
			ctx,
			contracts.QueueTripAccepts,
			"trip-accepts",
			10,
			func(msgCtx context.Context, d amqp.Delivery) error {
				var msg contracts.TripAcceptMessage
				if err := json.Unmarshal(d.Body, &msg); err != nil {
					service.logger.Error(msgCtx, "trip_accept_decode_failed",
						"Failed to decode trip accept message", err,
						map[string]any{"size": len(d.Body)})
					return fmt.Errorf("decode: %w", err)
				}
				if msg.TripID == "" || msg.DriverID == "" {
					return nil
				}

				_, err := service.AcceptTrip(msgCtx, ports.AcceptTripInput{
					TripID:   msg.TripID,
					DriverID: msg.DriverID,
				})
				if err != nil {
					// a lost race or vanished trip is the normal outcome for
					// all but one claimant; ack and move on
					if errs.IsConflict(err) || errs.IsNotFound(err) {
						service.logger.Info(msgCtx, "trip_accept_rejected", "Driver claim rejected", map[string]any{
							"trip_id":   msg.TripID,
							"driver_id": msg.DriverID,
							"reason":    err.Error(),
						})
						return nil
					}
					return err
				}
				return nil
			},
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			service.logger.Error(ctx, "trip_accepts_consume_failed",
				"Failed to consume trip accept messages", err,
				map[string]any{"queue": contracts.QueueTripAccepts})
		}
	}()
}

// startLocationUpdatesConsumer forwards fanned-out driver positions to
// the trip's passenger-facing location stream.
func (service *tripService) startLocationUpdatesConsumer(ctx context.Context) {
	go func() {
		err := service.rabbitmq.Consume(
			ctx,
			contracts.QueueLocationUpdatesTrip,
			"trip-service-locations",
			50,
			func(msgCtx context.Context, d amqp.Delivery) error {
				var msg contracts.LocationUpdateMessage
				if err := json.Unmarshal(d.Body, &msg); err != nil {
					service.logger.Error(msgCtx, "location_decode_failed",
						"Failed to decode location update", err,
						map[string]any{"size": len(d.Body)})
					return fmt.Errorf("decode: %w", err)
				}
				if msg.TripID == "" {
					return nil
				}

				wsMsg := contracts.WSLocationUpdate{
					Type:      "driver_location_update",
					TripID:    msg.TripID,
					Location:  msg.Location,
					Timestamp: msg.Timestamp,
					Envelope: contracts.Envelope{
						Producer: "trip-service",
						SentAt:   time.Now().UTC(),
					},
				}
				service.streams.Publish(contracts.TripLocationSubject(msg.TripID), broadcast.Event{
					Type:    wsMsg.Type,
					Payload: wsMsg,
					At:      time.Now().UTC(),
				})
				return nil
			},
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			service.logger.Error(ctx, "location_consume_failed",
				"Failed to consume location updates", err,
				map[string]any{"queue": contracts.QueueLocationUpdatesTrip})
		}
	}()
}
