package node

import (
	"context"
	"time"
)

// Logger is the structured logger the core writes diagnostics to.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Output is the human-readable local text sink (the console).
//
// It is separate from Logger: operators read Output, tooling reads logs.
type Output interface {
	WriteLine(line string)
}

type discardOutput struct{}

func (discardOutput) WriteLine(string) {}

// ConnectAttempt is an in-flight bus connection attempt.
type ConnectAttempt interface {
	// Done is closed when the attempt has finished.
	Done() <-chan struct{}

	// Error reports why a finished attempt failed, or nil on success.
	Error() error
}

// BusPublisher sends payloads on a topic.
type BusPublisher interface {
	Publish(topic string, payload []byte) error
}

// Bus is the message bus capability required by the supervisor.
type Bus interface {
	BusPublisher

	// Connect starts one connection attempt without blocking.
	Connect() ConnectAttempt

	// IsConnected reports whether the bus connection is live.
	IsConnected() bool

	// Subscribe registers handler for messages on topic. Subscribing to the
	// same topic again replaces the previous registration.
	Subscribe(topic string, handler func(topic string, payload []byte)) error

	// PublishRetained sends a payload the broker keeps for new subscribers.
	PublishRetained(topic string, payload []byte) error
}

// LinkChecker reports whether the network link is up.
type LinkChecker interface {
	LinkUp() bool
}

// Connectivity is the read-only view of link and bus state.
type Connectivity interface {
	LinkUp() bool
	BusConnected() bool
}

// Sensor produces one humidity/temperature sample.
//
// A failed sample is reported either as an error or as NaN in either value.
type Sensor interface {
	Read(ctx context.Context) (humidity, temperature float64, err error)
}

// Indicator drives the visual confirmation pulse after a publish.
type Indicator interface {
	On() error
	Off() error
}

// Clock supplies reading timestamps.
type Clock interface {
	Now() time.Time
}

// Mirror receives a copy of every valid reading (telemetry store).
type Mirror interface {
	WriteReading(deviceID string, humidity, temperature float64, ts time.Time)
}

// Metrics records core activity.
type Metrics interface {
	ReadingPublished()
	SensorFailure()
	CommandDispatched(source, verb string)
	ConnectAttempt(success bool)
	SetActive(active bool)
	SetLinkUp(up bool)
	SetBusConnected(connected bool)
}

type noopMetrics struct{}

func (noopMetrics) ReadingPublished()                {}
func (noopMetrics) SensorFailure()                   {}
func (noopMetrics) CommandDispatched(string, string) {}
func (noopMetrics) ConnectAttempt(bool)              {}
func (noopMetrics) SetActive(bool)                   {}
func (noopMetrics) SetLinkUp(bool)                   {}
func (noopMetrics) SetBusConnected(bool)             {}

// SleepFunc holds for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
