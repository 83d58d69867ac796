package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the node.
const (
	measurementClimate = "climate"
	measurementCommand = "command"
)

// WriteReading mirrors one valid sensor reading to InfluxDB.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Calls on a nil or closed client are dropped.
//
// Parameters:
//   - deviceID: Node identifier, stored as the device_id tag
//   - humidity: Relative humidity in percent
//   - temperature: Temperature in degrees Celsius
//   - ts: Time the reading was taken
//
// Example:
//
//	client.WriteReading("greenhouse-01", 48.2, 21.7, time.Now())
func (c *Client) WriteReading(deviceID string, humidity, temperature float64, ts time.Time) {
	c.write(readingPoint(deviceID, humidity, temperature, ts))
}

// WriteCommand records an accepted control command and where it came from.
//
// Parameters:
//   - deviceID: Node identifier
//   - verb: Normalised command (start, stop, status, help, unknown)
//   - source: Command origin (console or mqtt)
//   - ts: Time the command was dispatched
func (c *Client) WriteCommand(deviceID, verb, source string, ts time.Time) {
	c.write(commandPoint(deviceID, verb, source, ts))
}

// readingPoint builds the climate point for one reading.
func readingPoint(deviceID string, humidity, temperature float64, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementClimate,
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"humidity":    humidity,
			"temperature": temperature,
		},
		ts,
	)
}

// commandPoint builds the command point. The verb is a tag because the
// set of verbs is small and fixed.
func commandPoint(deviceID, verb, source string, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementCommand,
		map[string]string{
			"device_id": deviceID,
			"verb":      verb,
			"source":    source,
		},
		map[string]interface{}{
			"count": 1,
		},
		ts,
	)
}
