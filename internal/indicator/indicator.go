// Package indicator drives the publish confirmation LED.
package indicator

import (
	"fmt"

	gpiod "github.com/warthog618/go-gpiocdev"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

// Indicator is a two-state visual signal.
type Indicator interface {
	On() error
	Off() error
	Close() error
}

// New returns a GPIO indicator when enabled, otherwise a no-op.
func New(cfg config.IndicatorConfig) (Indicator, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	g, err := OpenGPIO(cfg.Chip, cfg.Line, cfg.ActiveLow)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Noop discards every call.
type Noop struct{}

func (Noop) On() error    { return nil }
func (Noop) Off() error   { return nil }
func (Noop) Close() error { return nil }

// outputLine is the subset of *gpiod.Line the indicator uses.
type outputLine interface {
	SetValue(value int) error
	Close() error
}

// GPIO is an LED on a GPIO character device line.
type GPIO struct {
	line outputLine
}

// OpenGPIO requests line on chip as an output, initially off.
//
// With activeLow set, "on" drives the pin low, as for the common
// on-board LED wired to the supply rail.
func OpenGPIO(chip string, line int, activeLow bool) (*GPIO, error) {
	opts := []gpiod.LineReqOption{gpiod.AsOutput(0), gpiod.WithConsumer("climatenode")}
	if activeLow {
		opts = append(opts, gpiod.AsActiveLow)
	}

	l, err := gpiod.RequestLine(chip, line, opts...)
	if err != nil {
		return nil, fmt.Errorf("requesting %s line %d: %w", chip, line, err)
	}
	return &GPIO{line: l}, nil
}

// On lights the LED.
func (g *GPIO) On() error {
	return g.line.SetValue(1)
}

// Off turns the LED off.
func (g *GPIO) Off() error {
	return g.line.SetValue(0)
}

// Close turns the LED off and releases the line.
func (g *GPIO) Close() error {
	offErr := g.line.SetValue(0)
	if err := g.line.Close(); err != nil {
		return fmt.Errorf("releasing indicator line: %w", err)
	}
	return offErr
}
