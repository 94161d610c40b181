package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"drive-hub/internal/broadcast"
	"drive-hub/internal/domain/trip"
	"drive-hub/internal/general/contracts"
)

// dispatchTripStatus publishes a status transition on the trip topic
// exchange and mirrors it onto the in-process status stream so connected
// passengers see it immediately. A terminal status closes the trip's
// stream subjects after the final frame is delivered.
func (service *tripService) dispatchTripStatus(ctx context.Context, t *trip.Trip, correlationID string) {
	statusMsg := contracts.TripStatusMessage{
		TripID:    t.ID,
		Status:    t.Status.String(),
		Timestamp: time.Now().UTC(),
		Price:     &t.Price,
		Envelope: contracts.Envelope{
			CorrelationID: correlationID,
			Producer:      "trip-service",
		},
	}
	if t.DriverID != nil {
		statusMsg.DriverID = *t.DriverID
	}
	if t.CancellationReason != nil {
		statusMsg.Reason = *t.CancellationReason
	}
	if err := service.publishTripStatus(ctx, statusMsg); err != nil {
		service.logger.Error(ctx, "trip_status_publish_failed", "Failed to publish trip status to RabbitMQ", err, map[string]any{
			"trip_id":    t.ID,
			"status":     t.Status.String(),
			"request_id": correlationID,
		})
	}

	wsMsg := contracts.WSTripStatus{
		Type:   "trip_status_update",
		TripID: t.ID,
		Status: t.Status.String(),
		Price:  &t.Price,
		Envelope: contracts.Envelope{
			CorrelationID: correlationID,
			Producer:      "trip-service",
			SentAt:        time.Now().UTC(),
		},
	}
	if t.DriverID != nil {
		wsMsg.DriverInfo = &contracts.DriverBrief{DriverID: *t.DriverID}
	}

	ev := broadcast.Event{Type: wsMsg.Type, Payload: wsMsg, At: time.Now().UTC()}
	if t.Status.Terminal() {
		// deliver the final frame, then close both trip streams
		service.streams.Terminate(contracts.TripStatusSubject(t.ID), &ev)
		service.streams.Terminate(contracts.TripLocationSubject(t.ID), nil)
		return
	}
	service.streams.Publish(contracts.TripStatusSubject(t.ID), ev)
}

// publishTripStatus sends a trip status update to the trip topic exchange using routing key
// trip.status.{status}, e.g., trip.status.accepted.
func (service *tripService) publishTripStatus(ctx context.Context, msg contracts.TripStatusMessage) error {
	routingKey := contracts.RouteTripStatusPrefix + strings.ToLower(msg.Status)

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := service.pub.Publish(contracts.ExchangeTripTopic, routingKey, body); err != nil {
		return err
	}

	service.logger.Info(ctx, "trip_status_published", "Published trip status to RabbitMQ", map[string]any{
		"routing_key": routingKey,
	})

	return nil
}

// publishSettlement hands a finished trip to the billing side using routing
// key trip.settle.{trip_id}.
func (service *tripService) publishSettlement(ctx context.Context, t *trip.Trip, correlationID string) error {
	msg := contracts.TripSettlementMessage{
		TripID:      t.ID,
		PassengerID: t.PassengerID,
		Price:       t.Price,
		SendPackage: t.SendPackage,
		Envelope: contracts.Envelope{
			CorrelationID: correlationID,
			Producer:      "trip-service",
			SentAt:        time.Now().UTC(),
		},
	}
	if t.DriverID != nil {
		msg.DriverID = *t.DriverID
	}
	if t.FinishedAt != nil {
		msg.FinishedAt = *t.FinishedAt
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := service.pub.Publish(contracts.ExchangeTripTopic, contracts.RouteTripSettlePrefix+t.ID, body); err != nil {
		return err
	}

	service.logger.Info(ctx, "trip_settlement_published", "Published trip settlement to RabbitMQ", map[string]any{
		"trip_id": t.ID,
		"price":   t.Price,
	})

	return nil
}

// offerToDrivers pushes a trip offer to every idle on-duty driver's offer
// channel. Drivers already carrying a trip are skipped; delivery is
// best-effort, off-duty drivers simply never see it.
func (service *tripService) offerToDrivers(ctx context.Context, t *trip.Trip, correlationID string) {
	offer := contracts.WSTripOffer{
		Type:   "trip_offer",
		TripID: t.ID,
		Origin: contracts.GeoPoint{
			Lat:     t.Origin.Latitude,
			Lng:     t.Origin.Longitude,
			Address: t.Origin.Address,
		},
		Destination: contracts.GeoPoint{
			Lat:     t.Destination.Latitude,
			Lng:     t.Destination.Longitude,
			Address: t.Destination.Address,
		},
		Price:            t.Price,
		SendPackage:      t.SendPackage,
		EstimatedTripMin: trip.EstimateDurationMinutes(tripDistanceKM(t)),
		Envelope: contracts.Envelope{
			CorrelationID: correlationID,
			Producer:      "trip-service",
			SentAt:        time.Now().UTC(),
		},
	}

	addressed := service.dutyReg.Broadcast(broadcast.Event{
		Type:    offer.Type,
		Payload: offer,
		At:      time.Now().UTC(),
	}, func(driverID string) bool {
		_, err := service.registry.ActiveForDriver(driverID)
		return err != nil // only drivers without an active trip
	})

	service.logger.Info(ctx, "trip_offer_broadcast", "Trip offered to on-duty drivers", map[string]any{
		"trip_id":    t.ID,
		"drivers":    addressed,
		"request_id": correlationID,
	})
}
