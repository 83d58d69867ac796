package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

const (
	// defaultConnectTimeout bounds one connection attempt when config leaves it unset.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout bounds waits for publish and subscribe acknowledgments.
	defaultPublishTimeout = 5 * time.Second

	defaultDisconnectQuiesce = 250 // milliseconds
	defaultKeepAlive         = 15 * time.Second

	maxQoS        = 2
	tlsMinVersion = tls.VersionTLS12

	// mqttV311 is the paho protocol version number for MQTT 3.1.1.
	mqttV311 = 4
)

// clientOptions translates node config into paho options.
//
// Paho's own reconnect and connect-retry loops are disabled: the node
// supervisor decides when to try again. When an availability topic is
// configured, a retained "offline" will is registered on it.
func clientOptions(cfg config.MQTTConfig, clientID string) *pahomqtt.ClientOptions {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)).
		SetClientID(clientID).
		SetProtocolVersion(mqttV311).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(connectTimeout(cfg)).
		SetKeepAlive(defaultKeepAlive)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username).SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}
	if topic := cfg.Topics.Availability; topic != "" {
		will := availabilityPayload("offline", clientID, "unexpected_disconnect", time.Now())
		opts.SetBinaryWill(topic, will, 1, true)
	}

	return opts
}

// connectTimeout returns the configured per-attempt timeout or the default.
func connectTimeout(cfg config.MQTTConfig) time.Duration {
	if cfg.Reconnect.ConnectTimeout > 0 {
		return cfg.Reconnect.ConnectTimeout
	}
	return defaultConnectTimeout
}

// availability is the retained payload on the availability topic.
type availability struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

func availabilityPayload(status, clientID, reason string, at time.Time) []byte {
	// Marshal cannot fail for a struct of strings.
	b, _ := json.Marshal(availability{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
	return b
}
