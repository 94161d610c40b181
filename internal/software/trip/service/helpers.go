package service

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"drive-hub/internal/domain/geo"
	"drive-hub/internal/domain/trip"
	"drive-hub/internal/ports"
)

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405") // e.g., 20251028T184523
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}

// tripDistanceKM is the great-circle length of the trip's route.
func tripDistanceKM(t *trip.Trip) float64 {
	return geo.HaversineKM(
		t.Origin.Latitude, t.Origin.Longitude,
		t.Destination.Latitude, t.Destination.Longitude,
	)
}

// toTripResult maps a domain trip to the boundary view shared by both parties.
func toTripResult(t *trip.Trip) ports.TripResult {
	res := ports.TripResult{
		TripID:             t.ID,
		Status:             t.Status.String(),
		PassengerID:        t.PassengerID,
		DriverID:           t.DriverID,
		OriginAddress:      t.Origin.Address,
		DestinationAddress: t.Destination.Address,
		Origin: ports.GeoPoint{
			Latitude:  t.Origin.Latitude,
			Longitude: t.Origin.Longitude,
		},
		Destination: ports.GeoPoint{
			Latitude:  t.Destination.Latitude,
			Longitude: t.Destination.Longitude,
		},
		Price:       t.Price,
		SendPackage: t.SendPackage,
		CreatedAt:   t.CreatedAt,
		AcceptedAt:  t.AcceptedAt,
		StartedAt:   t.StartedAt,
	}
	if t.LastDriverLocation != nil {
		res.DriverLocation = &ports.GeoPoint{
			Latitude:  t.LastDriverLocation.Latitude,
			Longitude: t.LastDriverLocation.Longitude,
		}
	}
	return res
}
