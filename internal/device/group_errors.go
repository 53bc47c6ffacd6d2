package device

import "errors"

var (
	// ErrGroupNotFound is returned when a group id does not exist.
	ErrGroupNotFound = errors.New("device group: not found")

	// ErrInvalidGroup is returned when a group payload is not a JSON object
	// or its leds field is not a list of device ids.
	ErrInvalidGroup = errors.New("device group: invalid")
)
