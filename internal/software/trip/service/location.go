package service

import (
	"context"
	"encoding/json"
	"time"

	"drive-hub/internal/domain/trip"
	"drive-hub/internal/general/contracts"
	"drive-hub/internal/ports"
)

// RecordDriverLocation caches a driver position report on their active
// trip, writes it through and fans it out on the location exchange. The
// passenger-facing stream is fed by the fanout consumer, not here.
func (service *tripService) RecordDriverLocation(ctx context.Context, in ports.LocationUpdateInput) error {
	active, err := service.registry.ActiveForDriver(in.DriverID)
	if err != nil {
		return err
	}

	reportedAt := time.Now().UTC()
	updated, err := service.registry.Mutate(active.ID, func(t *trip.Trip) error {
		t.RecordDriverLocation(in.Latitude, in.Longitude, reportedAt)
		return nil
	})
	if err != nil {
		return err
	}

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.tripRepo.SaveDriverLocation(txCtx, updated.ID, trip.DriverLocation{
			Latitude:   in.Latitude,
			Longitude:  in.Longitude,
			ReportedAt: reportedAt,
		})
	})
	if err != nil {
		service.logger.Error(ctx, "location_persist_failed", "Failed to persist driver location", err, map[string]any{
			"trip_id":   updated.ID,
			"driver_id": in.DriverID,
		})
	}

	msg := contracts.LocationUpdateMessage{
		DriverID: in.DriverID,
		TripID:   updated.ID,
		Location: contracts.GeoPoint{
			Lat: in.Latitude,
			Lng: in.Longitude,
		},
		Timestamp: reportedAt,
		Envelope: contracts.Envelope{
			Producer: "trip-service",
			SentAt:   time.Now().UTC(),
		},
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	// fanout exchange, routing key unused
	if err := service.pub.Publish(contracts.ExchangeLocationFanout, "", body); err != nil {
		service.logger.Error(ctx, "location_publish_failed", "Failed to publish location update", err, map[string]any{
			"trip_id":   updated.ID,
			"driver_id": in.DriverID,
		})
	}

	return nil
}
