package contracts

// Exchanges
const (
	ExchangeTripTopic      = "trip_topic"
	ExchangeLocationFanout = "location_fanout"
)

// Queues
const (
	QueueTripStatus          = "trip_status"
	QueueTripAccepts         = "trip_accepts"
	QueueTripSettlement      = "trip_settlement"
	QueueLocationUpdatesTrip = "location_updates_trip"
)

// Routing patterns
const (
	RouteTripStatusPrefix = "trip.status." // {status}
	RouteTripAcceptPrefix = "trip.accept." // {trip_id}
	RouteTripSettlePrefix = "trip.settle." // {trip_id}
)
