package trip

import (
	"errors"
	"strings"
)

// EventType corresponds to the values in the `trip_event_type` table.
type EventType string

const (
	EventTripCreated     EventType = "TRIP_CREATED"
	EventDriverAccepted  EventType = "DRIVER_ACCEPTED"
	EventTripStarted     EventType = "TRIP_STARTED"
	EventTripFinished    EventType = "TRIP_FINISHED"
	EventTripCancelled   EventType = "TRIP_CANCELLED"
	EventStatusChanged   EventType = "STATUS_CHANGED"
	EventLocationUpdated EventType = "LOCATION_UPDATED"
)

var ErrInvalidEventType = errors.New("invalid trip event type")

// ParseEventType normalizes (uppercases+trims) and validates an event type string.
func ParseEventType(input string) (EventType, error) {
	eventType := EventType(strings.ToUpper(strings.TrimSpace(input)))
	if eventType.Valid() {
		return eventType, nil
	}
	return "", ErrInvalidEventType
}

// Valid reports whether eventType is one of the allowed event type constants.
func (eventType EventType) Valid() bool {
	switch eventType {
	case EventTripCreated,
		EventDriverAccepted,
		EventTripStarted,
		EventTripFinished,
		EventTripCancelled,
		EventStatusChanged,
		EventLocationUpdated:
		return true
	default:
		return false
	}
}

// String returns the string representation of the EventType.
func (eventType EventType) String() string {
	return string(eventType)
}

// EventTypeFor returns the event name written to the log for a transition.
func EventTypeFor(status Status) EventType {
	switch status {
	case StatusCreated:
		return EventTripCreated
	case StatusAccepted:
		return EventDriverAccepted
	case StatusInProgress:
		return EventTripStarted
	case StatusFinished:
		return EventTripFinished
	case StatusCancelled:
		return EventTripCancelled
	default:
		return EventStatusChanged
	}
}
