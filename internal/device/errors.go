package device

import "errors"

// Domain errors for the device package.
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when no state is stored for a device id.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidState is returned when a stored or supplied state is neither
	// a valid simple state nor a complete blinking state.
	ErrInvalidState = errors.New("device: invalid state")

	// ErrInvalidIntent is returned when a control request is malformed.
	ErrInvalidIntent = errors.New("device: invalid control intent")

	// ErrInvalidReport is returned when an inbound report is missing
	// required fields or carries a partial blink shape.
	ErrInvalidReport = errors.New("device: invalid report")

	// ErrUnrecognisedMessage is returned for inbound topics whose final
	// segment is neither "state" nor "add".
	ErrUnrecognisedMessage = errors.New("device: message type not recognised")

	// ErrCommandNotDelivered is returned when the state was stored but the
	// outbound command could not be published. The stored state stays ahead
	// of the device until the next successful command or report.
	ErrCommandNotDelivered = errors.New("device: command not delivered")
)
