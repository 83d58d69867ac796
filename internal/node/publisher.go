package node

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// Reading is one validated sample as published on the bus.
type Reading struct {
	Time        string  `json:"time"`
	Humidity    float64 `json:"humidity"`
	Temperature float64 `json:"temperature"`
}

// Outcome is the result of one publisher cycle.
type Outcome int

// Publisher cycle outcomes.
const (
	// OutcomeInvalid means the sensor returned no usable reading.
	OutcomeInvalid Outcome = iota
	// OutcomeOffline means the reading was valid but the bus was down.
	OutcomeOffline
	// OutcomePublishFailed means the bus rejected the publish.
	OutcomePublishFailed
	// OutcomePublished means the reading reached the bus.
	OutcomePublished
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeOffline:
		return "offline"
	case OutcomePublishFailed:
		return "publish_failed"
	case OutcomePublished:
		return "published"
	default:
		return "invalid"
	}
}

// PublisherConfig holds publisher settings.
type PublisherConfig struct {
	// DeviceID tags mirrored readings.
	DeviceID string

	// Topic receives reading payloads.
	Topic string

	// Interval is the hold after a valid reading.
	Interval time.Duration

	// Cooldown is the hold after an invalid reading.
	Cooldown time.Duration

	// Pulse is how long the indicator stays on after a publish.
	Pulse time.Duration
}

// Publisher samples the sensor and publishes one reading per cycle.
type Publisher struct {
	sensor    Sensor
	bus       BusPublisher
	conn      Connectivity
	cfg       PublisherConfig
	indicator Indicator
	clock     Clock
	mirror    Mirror
	out       Output
	logger    Logger
	metrics   Metrics
	sleep     SleepFunc

	last atomic.Pointer[Reading]
}

// NewPublisher creates a sensor publisher.
//
// Parameters:
//   - sensor: Humidity/temperature source
//   - bus: Publisher for reading payloads
//   - conn: Bus state gating each publish
//   - cfg: Topic and hold intervals
//   - logger: Logger instance (may be nil)
func NewPublisher(sensor Sensor, bus BusPublisher, conn Connectivity, cfg PublisherConfig, logger Logger) *Publisher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Publisher{
		sensor:  sensor,
		bus:     bus,
		conn:    conn,
		cfg:     cfg,
		clock:   systemClock{},
		out:     discardOutput{},
		logger:  logger,
		metrics: noopMetrics{},
		sleep:   Sleep,
	}
}

// SetIndicator sets the confirmation pulse driver.
func (p *Publisher) SetIndicator(ind Indicator) { p.indicator = ind }

// SetClock sets the timestamp source.
func (p *Publisher) SetClock(c Clock) {
	if c != nil {
		p.clock = c
	}
}

// SetMirror sets the telemetry mirror for valid readings.
func (p *Publisher) SetMirror(m Mirror) { p.mirror = m }

// SetOutput sets the console sink for reading echoes.
func (p *Publisher) SetOutput(out Output) {
	if out != nil {
		p.out = out
	}
}

// SetMetrics sets the metrics recorder.
func (p *Publisher) SetMetrics(m Metrics) {
	if m != nil {
		p.metrics = m
	}
}

// SetSleep overrides the hold function (tests).
func (p *Publisher) SetSleep(sleep SleepFunc) { p.sleep = sleep }

// Last returns the most recent valid reading, or nil before the first one.
func (p *Publisher) Last() *Reading {
	return p.last.Load()
}

// RunOnce performs one sample/publish cycle including its holds.
//
// An invalid sample is logged and followed by the cooldown hold; nothing is
// published and the indicator stays off. A valid sample is echoed to the
// console, mirrored, published when the bus is connected (followed by the
// indicator pulse), and followed by the publish interval hold.
//
// The only error returned is ctx's, when a hold is cut short by shutdown.
func (p *Publisher) RunOnce(ctx context.Context) (Outcome, error) {
	humidity, temperature, err := p.sensor.Read(ctx)
	if err == nil && (!validValue(humidity) || !validValue(temperature)) {
		err = ErrInvalidReading
	}
	if err != nil {
		p.metrics.SensorFailure()
		p.logger.Warn("sensor read failed", "error", err)
		p.out.WriteLine("Failed to read from sensor!")
		return OutcomeInvalid, p.sleep(ctx, p.cfg.Cooldown)
	}

	ts := p.clock.Now()
	reading := Reading{
		Time:        ts.Format(time.RFC3339),
		Humidity:    humidity,
		Temperature: temperature,
	}
	p.last.Store(&reading)

	p.out.WriteLine(EchoLine(reading))
	if p.mirror != nil {
		p.mirror.WriteReading(p.cfg.DeviceID, humidity, temperature, ts)
	}

	outcome := p.publish(ctx, reading)
	if err := ctx.Err(); err != nil {
		return outcome, err
	}

	return outcome, p.sleep(ctx, p.cfg.Interval)
}

// publish sends the reading if the bus is connected and pulses the indicator
// on success.
func (p *Publisher) publish(ctx context.Context, reading Reading) Outcome {
	if !p.conn.BusConnected() {
		p.logger.Debug("bus disconnected, reading not published")
		return OutcomeOffline
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		// Unreachable for validated finite values.
		p.logger.Error("encoding reading failed", "error", err)
		return OutcomePublishFailed
	}

	if err := p.bus.Publish(p.cfg.Topic, payload); err != nil {
		p.logger.Warn("publishing reading failed", "topic", p.cfg.Topic, "error", err)
		return OutcomePublishFailed
	}

	p.metrics.ReadingPublished()
	p.logger.Debug("reading published",
		"humidity", reading.Humidity,
		"temperature", reading.Temperature,
	)
	p.pulse(ctx)
	return OutcomePublished
}

// pulse turns the indicator on, holds, and always turns it off again.
func (p *Publisher) pulse(ctx context.Context) {
	if p.indicator == nil {
		return
	}
	if err := p.indicator.On(); err != nil {
		p.logger.Warn("indicator on failed", "error", err)
		return
	}
	_ = p.sleep(ctx, p.cfg.Pulse)
	if err := p.indicator.Off(); err != nil {
		p.logger.Warn("indicator off failed", "error", err)
	}
}

// EchoLine formats a reading for the console.
func EchoLine(r Reading) string {
	return fmt.Sprintf("%s - Humidity: %.2f%%  - Temperature: %.2f°C", r.Time, r.Humidity, r.Temperature)
}

func validValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
