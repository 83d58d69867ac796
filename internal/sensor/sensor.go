package sensor

import (
	"context"
	"fmt"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

// Reader produces one humidity (%RH) and temperature (°C) sample.
type Reader interface {
	Read(ctx context.Context) (humidity, temperature float64, err error)
}

// New returns the driver selected by cfg.Driver.
func New(cfg config.SensorConfig) (Reader, error) {
	switch cfg.Driver {
	case config.SensorDriverSimulated:
		return NewSimulated(cfg.SimulatedFailureRate, nil), nil
	case config.SensorDriverIIO:
		return NewIIO(cfg.IIODevice)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
