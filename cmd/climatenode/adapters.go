package main

import (
	"time"

	"github.com/nerrad567/climate-node/internal/infrastructure/influxdb"
	"github.com/nerrad567/climate-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/climate-node/internal/node"
)

// busAdapter presents the MQTT client as the node's Bus.
type busAdapter struct {
	client *mqtt.Client
	qos    byte
}

func newBusAdapter(client *mqtt.Client, qos byte) *busAdapter {
	return &busAdapter{client: client, qos: qos}
}

func (b *busAdapter) Connect() node.ConnectAttempt {
	return b.client.StartConnect()
}

func (b *busAdapter) IsConnected() bool {
	return b.client.IsConnected()
}

func (b *busAdapter) Publish(topic string, payload []byte) error {
	return b.client.PublishDefault(topic, payload)
}

func (b *busAdapter) PublishRetained(topic string, payload []byte) error {
	return b.client.PublishRetained(topic, payload)
}

func (b *busAdapter) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	return b.client.Subscribe(topic, b.qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// commandMetrics records dispatched commands in Prometheus and, when the
// telemetry mirror is connected, as InfluxDB points.
type commandMetrics struct {
	node.Metrics
	influx   *influxdb.Client
	deviceID string
	clock    interface{ Now() time.Time }
}

func (m commandMetrics) CommandDispatched(source, verb string) {
	m.Metrics.CommandDispatched(source, verb)
	m.influx.WriteCommand(m.deviceID, verb, source, m.clock.Now())
}
