package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration that needs no running broker.
// Port 1 on loopback refuses connections immediately.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host: "127.0.0.1",
			Port: 1,
		},
		QoS: 0,
		Reconnect: config.MQTTReconnectConfig{
			Interval:       time.Second,
			ConnectTimeout: 2 * time.Second,
		},
		Topics: config.MQTTTopicsConfig{
			Publish:      "climate-node/pub",
			Subscribe:    "climate-node/sub",
			Availability: "climate-node/status",
		},
	}
}

// mockLogger records handler errors and panics.
type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (m *mockLogger) Error(msg string, _ ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) Warn(msg string, _ ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

// fakeMessage implements pahomqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// =============================================================================
// Option Tests
// =============================================================================

func TestClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "node"
	cfg.Auth.Password = "secret"

	opts := clientOptions(cfg, "greenhouse-01")

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1", opts.Servers)
	}
	if opts.ClientID != "greenhouse-01" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "greenhouse-01")
	}
	if opts.Username != "node" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if opts.AutoReconnect || opts.ConnectRetry {
		t.Error("paho reconnection must be disabled; the supervisor owns retries")
	}
	if opts.ProtocolVersion != 4 {
		t.Errorf("ProtocolVersion = %d, want 4 (MQTT 3.1.1)", opts.ProtocolVersion)
	}
	if opts.ConnectTimeout != 2*time.Second {
		t.Errorf("ConnectTimeout = %v, want 2s", opts.ConnectTimeout)
	}
}

func TestClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := clientOptions(cfg, "node")

	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config missing or below minimum version")
	}
}

func TestConnectTimeout_Default(t *testing.T) {
	cfg := testConfig()
	cfg.Reconnect.ConnectTimeout = 0

	if got := connectTimeout(cfg); got != defaultConnectTimeout {
		t.Errorf("connectTimeout() = %v, want %v", got, defaultConnectTimeout)
	}
}

func TestClientOptions_Will(t *testing.T) {
	c := New(testConfig(), "greenhouse-01")

	if !c.options.WillEnabled {
		t.Fatal("WillEnabled = false, want true when availability topic is set")
	}
	if c.options.WillTopic != "climate-node/status" {
		t.Errorf("WillTopic = %q, want %q", c.options.WillTopic, "climate-node/status")
	}
	if !c.options.WillRetained {
		t.Error("WillRetained = false, want true")
	}

	var will map[string]string
	if err := json.Unmarshal(c.options.WillPayload, &will); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if will["status"] != "offline" || will["client_id"] != "greenhouse-01" {
		t.Errorf("will payload = %v", will)
	}
}

func TestClientOptions_NoWill(t *testing.T) {
	cfg := testConfig()
	cfg.Topics.Availability = ""

	c := New(cfg, "node")
	if c.options.WillEnabled {
		t.Error("WillEnabled = true, want false without availability topic")
	}
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    []byte
		wantStatus string
		wantReason string
	}{
		{name: "online", payload: availabilityPayload("online", "node", "", time.Now()), wantStatus: "online"},
		{name: "offline", payload: availabilityPayload("offline", "node", "graceful_shutdown", time.Now()), wantStatus: "offline", wantReason: "graceful_shutdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			if err := json.Unmarshal(tt.payload, &got); err != nil {
				t.Fatalf("payload is not JSON: %v", err)
			}
			if got["status"] != tt.wantStatus || got["reason"] != tt.wantReason {
				t.Errorf("status/reason = %q/%q, want %q/%q", got["status"], got["reason"], tt.wantStatus, tt.wantReason)
			}
			if _, err := time.Parse(time.RFC3339, got["timestamp"]); err != nil {
				t.Errorf("timestamp %q is not RFC3339: %v", got["timestamp"], err)
			}
		})
	}
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestNew_Disconnected(t *testing.T) {
	c := New(testConfig(), "node")

	if c.IsConnected() {
		t.Error("IsConnected() = true before any connect attempt")
	}
	if subs := c.Subscriptions(); len(subs) != 0 {
		t.Errorf("Subscriptions() = %v, want none", subs)
	}
}

func TestStartConnect_Refused(t *testing.T) {
	c := New(testConfig(), "node")

	attempt := c.StartConnect()
	select {
	case <-attempt.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connect attempt did not complete")
	}

	if !errors.Is(attempt.Error(), ErrConnectionFailed) {
		t.Errorf("attempt.Error() = %v, want ErrConnectionFailed", attempt.Error())
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after refused connect")
	}
}

func TestConnect_BrokerRefused(t *testing.T) {
	_, err := Connect(testConfig(), "node")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnectAttempt_ErrorBeforeDone(t *testing.T) {
	attempt := &ConnectAttempt{done: make(chan struct{}), err: errors.New("late")}
	if attempt.Error() != nil {
		t.Error("Error() must be nil while the attempt is pending")
	}
	close(attempt.done)
	if attempt.Error() == nil {
		t.Error("Error() = nil after Done, want stored error")
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

// =============================================================================
// Validation Tests (no broker needed)
// =============================================================================

func TestPublishValidation(t *testing.T) {
	c := New(testConfig(), "node")

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{name: "empty topic", topic: "", payload: []byte("x"), qos: 0, want: ErrInvalidTopic},
		{name: "invalid qos", topic: "t", payload: []byte("x"), qos: 3, want: ErrInvalidQoS},
		{name: "oversized payload", topic: "t", payload: make([]byte, maxPayloadSize+1), qos: 0, want: ErrPayloadTooLarge},
		{name: "disconnected", topic: "t", payload: []byte("x"), qos: 0, want: ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := New(testConfig(), "node")
	handler := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 0, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("t", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("t", 0, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := c.Subscribe("t", 0, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe(disconnected) error = %v, want ErrNotConnected", err)
	}
	if subs := c.Subscriptions(); len(subs) != 0 {
		t.Errorf("failed subscription tracked: %v", subs)
	}
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestWrapHandler_Error(t *testing.T) {
	c := New(testConfig(), "node")
	logger := &mockLogger{}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		return errors.New("bad command")
	})
	wrapped(nil, fakeMessage{topic: "climate-node/sub", payload: []byte("start")})

	if len(logger.warns) != 1 {
		t.Errorf("warn count = %d, want 1", len(logger.warns))
	}
}

func TestWrapHandler_PanicRecovered(t *testing.T) {
	c := New(testConfig(), "node")
	logger := &mockLogger{}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})
	wrapped(nil, fakeMessage{topic: "climate-node/sub"})

	if len(logger.errors) != 1 || !strings.Contains(logger.errors[0], "panic") {
		t.Errorf("errors = %v, want one panic entry", logger.errors)
	}
}

func TestWrapHandler_NoLogger(t *testing.T) {
	c := New(testConfig(), "node")

	var got string
	wrapped := c.wrapHandler(func(_ string, p []byte) error {
		got = string(p)
		return errors.New("ignored")
	})
	wrapped(nil, fakeMessage{topic: "t", payload: []byte("status")})

	if got != "status" {
		t.Errorf("payload = %q, want %q", got, "status")
	}
}

func TestCallbacks(t *testing.T) {
	c := New(testConfig(), "node")

	var connects, disconnects int
	c.SetOnConnect(func() { connects++ })
	c.SetOnDisconnect(func(error) { disconnects++ })

	c.handleDisconnect(errors.New("link lost"))
	if disconnects != 1 {
		t.Errorf("disconnect callbacks = %d, want 1", disconnects)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after handleDisconnect")
	}
	if connects != 0 {
		t.Errorf("connect callbacks = %d, want 0", connects)
	}
}

// =============================================================================
// Topic & Discovery Tests
// =============================================================================

func TestTopics_Discovery(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{name: "explicit prefix", prefix: "ha", expected: "ha/sensor/node-1/humidity/config"},
		{name: "default prefix", prefix: "", expected: "homeassistant/sensor/node-1/humidity/config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Topics{}.Discovery(tt.prefix, "sensor", "node-1", "humidity")
			if got != tt.expected {
				t.Errorf("Discovery() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDiscoveryMessages(t *testing.T) {
	msgs, err := DiscoveryMessages(DiscoveryOptions{
		Prefix:            "homeassistant",
		DeviceID:          "greenhouse-01",
		DeviceName:        "Greenhouse",
		Version:           "1.2.3",
		StateTopic:        "greenhouse/pub",
		AvailabilityTopic: "greenhouse/status",
	})
	if err != nil {
		t.Fatalf("DiscoveryMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}

	wantTopics := []string{
		"homeassistant/sensor/greenhouse-01/humidity/config",
		"homeassistant/sensor/greenhouse-01/temperature/config",
	}
	for i, msg := range msgs {
		if msg.Topic != wantTopics[i] {
			t.Errorf("msgs[%d].Topic = %q, want %q", i, msg.Topic, wantTopics[i])
		}

		var cfg SensorConfig
		if err := json.Unmarshal(msg.Payload, &cfg); err != nil {
			t.Fatalf("msgs[%d] payload: %v", i, err)
		}
		if cfg.StateTopic != "greenhouse/pub" {
			t.Errorf("StateTopic = %q, want greenhouse/pub", cfg.StateTopic)
		}
		if cfg.Device.Identifiers[0] != "greenhouse-01" || cfg.Device.SWVersion != "1.2.3" {
			t.Errorf("Device = %+v", cfg.Device)
		}
		if cfg.AvailabilityTemplate == "" {
			t.Error("AvailabilityTemplate empty with availability topic set")
		}
	}
}

func TestDiscoveryMessages_NoAvailability(t *testing.T) {
	msgs, err := DiscoveryMessages(DiscoveryOptions{DeviceID: "n", StateTopic: "s"})
	if err != nil {
		t.Fatalf("DiscoveryMessages() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(msgs[0].Payload, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["availability_topic"]; ok {
		t.Error("availability_topic should be omitted when unset")
	}
}
