package node

import "errors"

// Sentinel errors for the control core.
var (
	// ErrInvalidReading indicates the sensor returned a non-numeric value.
	ErrInvalidReading = errors.New("node: invalid sensor reading")

	// ErrLinkUnavailable indicates startup was cancelled while waiting for the network link.
	ErrLinkUnavailable = errors.New("node: network link unavailable")
)
