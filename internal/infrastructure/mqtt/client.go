package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

// Client is the node's MQTT connection.
//
// Reconnection is driven by the caller rather than by paho: StartConnect
// begins one attempt and returns a handle that can be polled without
// blocking, so the node supervisor owns the connect/retry schedule.
// Tracked subscriptions are restored on every successful connect.
//
// All methods are safe for concurrent use.
type Client struct {
	client   pahomqtt.Client
	options  *pahomqtt.ClientOptions
	cfg      config.MQTTConfig
	clientID string

	connected atomic.Bool

	subMu         sync.RWMutex
	subscriptions map[string]subscription

	hookMu       sync.RWMutex
	onConnect    func()
	onDisconnect func(err error)
	logger       Logger
}

// Logger is the subset of logging.Logger the client uses.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler receives one message. It runs on the paho router
// goroutine and should not block. A returned error is logged.
type MessageHandler func(topic string, payload []byte) error

// New creates a disconnected client for the configured broker.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//   - clientID: Identifier presented to the broker
func New(cfg config.MQTTConfig, clientID string) *Client {
	c := &Client{
		cfg:           cfg,
		clientID:      clientID,
		options:       clientOptions(cfg, clientID),
		subscriptions: make(map[string]subscription),
	}

	c.options.
		SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() }).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleDisconnect(err) })

	c.client = pahomqtt.NewClient(c.options)
	return c
}

// ConnectAttempt is one in-flight connection attempt started by StartConnect.
//
// Done is closed once the attempt has finished and the client's connected
// state reflects the outcome, so IsConnected is reliable as soon as Done fires.
type ConnectAttempt struct {
	done chan struct{}
	err  error
}

// Done returns a channel closed when the attempt completes.
func (a *ConnectAttempt) Done() <-chan struct{} {
	return a.done
}

// Error returns the attempt's failure, or nil. Only valid after Done.
func (a *ConnectAttempt) Error() error {
	select {
	case <-a.done:
		return a.err
	default:
		return nil
	}
}

// StartConnect begins a single connection attempt and returns immediately.
//
// The attempt completes when paho reports success, failure, or the
// configured connect timeout.
func (c *Client) StartConnect() *ConnectAttempt {
	attempt := &ConnectAttempt{done: make(chan struct{})}
	token := c.client.Connect()

	go func() {
		defer close(attempt.done)
		<-token.Done()
		if err := token.Error(); err != nil {
			attempt.err = fmt.Errorf("%w: %w", ErrConnectionFailed, err)
			return
		}
		// The OnConnect handler runs on its own goroutine and may lag.
		c.connected.Store(true)
	}()

	return attempt
}

// Connect creates a client and blocks until its first attempt completes.
func Connect(cfg config.MQTTConfig, clientID string) (*Client, error) {
	c := New(cfg, clientID)
	timeout := connectTimeout(cfg)

	attempt := c.StartConnect()
	select {
	case <-attempt.Done():
	case <-time.After(timeout + time.Second):
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, timeout)
	}
	if err := attempt.Error(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) handleConnect() {
	c.connected.Store(true)

	c.subMu.RLock()
	for _, sub := range c.subscriptions {
		// A failed restore surfaces as a missing subscription; the caller
		// resubscribes after its next connect.
		c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	}
	c.subMu.RUnlock()

	if topic := c.cfg.Topics.Availability; topic != "" {
		c.client.Publish(topic, byte(c.cfg.QoS), true, availabilityPayload("online", c.clientID, "", time.Now()))
	}

	c.hookMu.RLock()
	callback := c.onConnect
	c.hookMu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (c *Client) handleDisconnect(err error) {
	c.connected.Store(false)

	c.hookMu.RLock()
	callback := c.onDisconnect
	c.hookMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// Close publishes a retained graceful "offline" status (when connected and
// an availability topic is configured) and disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if topic := c.cfg.Topics.Availability; topic != "" && c.IsConnected() {
		payload := availabilityPayload("offline", c.clientID, "graceful_shutdown", time.Now())
		c.client.Publish(topic, byte(c.cfg.QoS), true, payload).WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// HealthCheck returns ErrNotConnected unless the connection is live.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether the connection is live.
//
// Both the tracked flag and paho's own view must agree, so a connection
// that paho has already dropped reports false before the lost-handler runs.
func (c *Client) IsConnected() bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.connected.Load() && c.client.IsConnected()
}

// SetOnConnect sets a callback run after every successful connect.
func (c *Client) SetOnConnect(callback func()) {
	c.hookMu.Lock()
	c.onConnect = callback
	c.hookMu.Unlock()
}

// SetOnDisconnect sets a callback run when the connection is lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.hookMu.Lock()
	c.onDisconnect = callback
	c.hookMu.Unlock()
}

// SetLogger sets the logger for handler errors and panics.
// Without one they are dropped.
func (c *Client) SetLogger(logger Logger) {
	c.hookMu.Lock()
	c.logger = logger
	c.hookMu.Unlock()
}

func (c *Client) currentLogger() Logger {
	c.hookMu.RLock()
	defer c.hookMu.RUnlock()
	return c.logger
}

// wrapHandler adapts a MessageHandler to paho, recovering panics and
// logging returned errors.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		logger := c.currentLogger()
		defer func() {
			if r := recover(); r != nil && logger != nil {
				logger.Error("MQTT handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil && logger != nil {
			logger.Warn("MQTT handler returned error", "topic", msg.Topic(), "error", err)
		}
	}
}
