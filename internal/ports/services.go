package ports

import (
	"context"
	"time"
)

// ----- DTOs for Trip Service -----

// GeoPoint represents a simple latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreateDraftInput is the validated input required to price a trip draft.
type CreateDraftInput struct {
	PassengerID          string
	OriginLatitude       float64
	OriginLongitude      float64
	OriginAddress        string
	DestinationLatitude  float64
	DestinationLongitude float64
	DestinationAddress   string
}

// DraftResult is returned by CreateDraft and FindDraft.
type DraftResult struct {
	DraftID                  string    `json:"draft_id"`
	Price                    float64   `json:"price"`
	PackagePrice             float64   `json:"package_price"`
	EstimatedDistanceKM      float64   `json:"estimated_distance_km"`
	EstimatedDurationMinutes int       `json:"estimated_duration_minutes"`
	ExpiresAt                time.Time `json:"expires_at"`
}

// CreateTripInput consumes a priced draft into a live trip.
type CreateTripInput struct {
	DraftID     string
	PassengerID string
	SendPackage bool // ship a package instead of riding along
}

// TripResult is the common view of a trip returned to both parties.
type TripResult struct {
	TripID             string     `json:"trip_id"`
	Status             string     `json:"status"`
	PassengerID        string     `json:"passenger_id"`
	DriverID           *string    `json:"driver_id,omitempty"`
	OriginAddress      string     `json:"origin_address"`
	DestinationAddress string     `json:"destination_address"`
	Origin             GeoPoint   `json:"origin"`
	Destination        GeoPoint   `json:"destination"`
	Price              float64    `json:"price"`
	SendPackage        bool       `json:"send_package"`
	CreatedAt          time.Time  `json:"created_at"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	DriverLocation     *GeoPoint  `json:"driver_location,omitempty"`
}

// AcceptTripInput is the driver's claim on an open trip.
type AcceptTripInput struct {
	TripID   string
	DriverID string
}

// CancelTripResult matches the API response for a passenger cancellation.
type CancelTripResult struct {
	TripID      string    `json:"trip_id"`
	Status      string    `json:"status"`
	CancelledAt time.Time `json:"cancelled_at"`
	Message     string    `json:"message"`
}

// FinishTripInput ends the driver's active trip. Cancel aborts instead of
// completing; the trip then pays nothing.
type FinishTripInput struct {
	DriverID string
	Cancel   bool
	Reason   string
}

// FinishTripResult matches the API response for finishing a trip.
type FinishTripResult struct {
	TripID     string    `json:"trip_id"`
	Status     string    `json:"status"`
	FinishedAt time.Time `json:"finished_at"`
	Earnings   float64   `json:"earnings"`
	Message    string    `json:"message"`
}

// LocationUpdateInput is a driver position report for their active trip.
type LocationUpdateInput struct {
	DriverID  string
	Latitude  float64
	Longitude float64
}

// MessagePublisher abstracts the broker publish side so services can be
// exercised without a live connection.
type MessagePublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// ----- Trip Service Interface -----

// TripService exposes the boundary for trip lifecycle operations.
type TripService interface {
	CreateDraft(ctx context.Context, in CreateDraftInput) (DraftResult, error)
	FindDraft(ctx context.Context, draftID, passengerID string) (DraftResult, error)
	CreateTrip(ctx context.Context, in CreateTripInput) (TripResult, error)
	AcceptTrip(ctx context.Context, in AcceptTripInput) (TripResult, error)
	StartTrip(ctx context.Context, driverID string) (TripResult, error)
	FinishTrip(ctx context.Context, in FinishTripInput) (FinishTripResult, error)
	CancelTrip(ctx context.Context, passengerID, reason string) (CancelTripResult, error)
	FindActiveForPassenger(ctx context.Context, passengerID string) (TripResult, error)
	FindActiveForDriver(ctx context.Context, driverID string) (TripResult, error)
	RecordDriverLocation(ctx context.Context, in LocationUpdateInput) error
	RunBackgroundConsumers(ctx context.Context)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for Duty Service -----

// GoOnDutyResult matches the API response for going on duty.
type GoOnDutyResult struct {
	Status    string `json:"status"` // "ON_DUTY"
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// DutySummary summarizes an ended duty session.
type DutySummary struct {
	DurationHours  float64 `json:"duration_hours"`
	TripsCompleted int     `json:"trips_completed"`
	Earnings       float64 `json:"earnings"`
}

// GoOffDutyResult matches the API response for going off duty.
type GoOffDutyResult struct {
	Status      string      `json:"status"` // "OFF_DUTY"
	SessionID   string      `json:"session_id"`
	DutySummary DutySummary `json:"duty_summary"`
	Message     string      `json:"message"`
}

// ----- Duty Service Interface -----

// DutyService manages driver availability sessions.
type DutyService interface {
	GoOnDuty(ctx context.Context, driverID string) (GoOnDutyResult, error)
	GoOffDuty(ctx context.Context, driverID string) (GoOffDutyResult, error)
	CreditTrip(ctx context.Context, driverID string, earnings float64) error
}
