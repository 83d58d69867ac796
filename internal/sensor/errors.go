package sensor

import "errors"

// Sentinel errors for sensor drivers.
var (
	// ErrUnknownDriver indicates sensor.driver names no known driver.
	ErrUnknownDriver = errors.New("sensor: unknown driver")

	// ErrReadFailed indicates a sample could not be taken.
	ErrReadFailed = errors.New("sensor: read failed")
)
