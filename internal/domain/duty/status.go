package duty

import (
	"errors"
	"strings"
)

// Status is a driver duty status as stored in the `duty_status` table.
type Status string

const (
	StatusOffDuty  Status = "OFF_DUTY"
	StatusOnDuty   Status = "ON_DUTY"
	StatusAssigned Status = "ASSIGNED"
)

var ErrInvalidStatus = errors.New("invalid duty status")

// ParseStatus normalizes (uppercases+trims) and validates a duty status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether the status is one of the allowed duty status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusOffDuty, StatusOnDuty, StatusAssigned:
		return true
	default:
		return false
	}
}

// Working indicates whether the driver is reachable for dispatch or assignment.
func (status Status) Working() bool {
	return status == StatusOnDuty || status == StatusAssigned
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}
