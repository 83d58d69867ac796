package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sensor driver identifiers accepted in sensor.driver.
const (
	SensorDriverSimulated = "simulated"
	SensorDriverIIO       = "iio"
)

// Config is the root configuration structure for the climate node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device        DeviceConfig        `yaml:"device"`
	Network       NetworkConfig       `yaml:"network"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	Sensor        SensorConfig        `yaml:"sensor"`
	Indicator     IndicatorConfig     `yaml:"indicator"`
	TimeSync      TimeSyncConfig      `yaml:"timesync"`
	Console       ConsoleConfig       `yaml:"console"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	InfluxDB      InfluxDBConfig      `yaml:"influxdb"`
	API           APIConfig           `yaml:"api"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// DeviceConfig identifies this node.
type DeviceConfig struct {
	// ID is the stable identifier (thing name) used as MQTT client ID fallback
	// and as the device tag on telemetry.
	ID string `yaml:"id"`

	// Name is the human-readable name shown in Home Assistant.
	Name string `yaml:"name"`

	// Timezone is an IANA zone name used for reading timestamps (e.g. "Europe/Rome").
	Timezone string `yaml:"timezone"`
}

// NetworkConfig controls the network link check.
type NetworkConfig struct {
	// Interface is the network interface that must be up (e.g. "wlan0").
	// If empty, any non-loopback interface with an address counts.
	Interface string `yaml:"interface"`

	// RetryInterval is the delay between link checks while waiting at startup.
	// Default: 1s
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
	Topics    MQTTTopicsConfig    `yaml:"topics"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	// Interval is the fixed delay between connection attempts.
	// Default: 1s
	Interval time.Duration `yaml:"interval"`

	// ConnectTimeout bounds a single connection attempt.
	// Default: 10s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// MQTTTopicsConfig names the topics the node publishes and listens on.
type MQTTTopicsConfig struct {
	// Publish receives readings and command replies.
	Publish string `yaml:"publish"`

	// Subscribe carries plain-text commands.
	Subscribe string `yaml:"subscribe"`

	// Availability receives retained online/offline status and the LWT.
	Availability string `yaml:"availability"`
}

// SensorConfig contains sampling settings.
type SensorConfig struct {
	// Driver selects the sensor backend: "simulated" or "iio".
	Driver string `yaml:"driver"`

	// IIODevice is the sysfs directory of an IIO humidity/temperature device,
	// e.g. /sys/bus/iio/devices/iio:device0 (DHT11/DHT22 kernel driver).
	IIODevice string `yaml:"iio_device"`

	// SimulatedFailureRate is the fraction of simulated samples that fail
	// (0 disables dropouts).
	SimulatedFailureRate float64 `yaml:"simulated_failure_rate"`

	// PublishInterval is the hold after a successful publish.
	// Default: 10s
	PublishInterval time.Duration `yaml:"publish_interval"`

	// FailureCooldown is the hold after an invalid reading.
	// Default: 2s
	FailureCooldown time.Duration `yaml:"failure_cooldown"`

	// IdleInterval is the hold per tick while readings are stopped.
	// Default: 100ms
	IdleInterval time.Duration `yaml:"idle_interval"`
}

// IndicatorConfig configures the publish confirmation LED.
type IndicatorConfig struct {
	Enabled bool `yaml:"enabled"`

	// Chip is the GPIO character device (e.g. "gpiochip0").
	Chip string `yaml:"chip"`

	// Line is the GPIO line offset driving the LED.
	Line int `yaml:"line"`

	// ActiveLow inverts the output (LOW lights the LED).
	ActiveLow bool `yaml:"active_low"`

	// Pulse is how long the LED stays lit after a publish.
	// Default: 1s
	Pulse time.Duration `yaml:"pulse"`
}

// TimeSyncConfig configures the one-shot NTP synchronisation at startup.
type TimeSyncConfig struct {
	Enabled bool   `yaml:"enabled"`
	Server  string `yaml:"server"`

	// Timeout bounds the query. Default: 3s
	Timeout time.Duration `yaml:"timeout"`
}

// ConsoleConfig controls the local text command console.
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// HomeAssistantConfig controls MQTT discovery announcements.
type HomeAssistantConfig struct {
	Discovery bool   `yaml:"discovery"`
	Prefix    string `yaml:"prefix"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: CLIMATENODE_SECTION_KEY
// For example: CLIMATENODE_MQTT_HOST, CLIMATENODE_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:       "climate-node",
			Name:     "Climate Node",
			Timezone: "UTC",
		},
		Network: NetworkConfig{
			RetryInterval: time.Second,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				Interval:       time.Second,
				ConnectTimeout: 10 * time.Second,
			},
			Topics: MQTTTopicsConfig{
				Publish:      "climate-node/pub",
				Subscribe:    "climate-node/sub",
				Availability: "climate-node/status",
			},
		},
		Sensor: SensorConfig{
			Driver:          SensorDriverSimulated,
			PublishInterval: 10 * time.Second,
			FailureCooldown: 2 * time.Second,
			IdleInterval:    100 * time.Millisecond,
		},
		Indicator: IndicatorConfig{
			Chip:      "gpiochip0",
			ActiveLow: true,
			Pulse:     time.Second,
		},
		TimeSync: TimeSyncConfig{
			Enabled: true,
			Server:  "ntp.ubuntu.com",
			Timeout: 3 * time.Second,
		},
		Console: ConsoleConfig{
			Enabled: true,
		},
		HomeAssistant: HomeAssistantConfig{
			Prefix: "homeassistant",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: CLIMATENODE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLIMATENODE_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("CLIMATENODE_NETWORK_INTERFACE"); v != "" {
		cfg.Network.Interface = v
	}

	// MQTT
	if v := os.Getenv("CLIMATENODE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("CLIMATENODE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("CLIMATENODE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("CLIMATENODE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}
	if _, err := time.LoadLocation(c.Device.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("device.timezone %q is not a known zone", c.Device.Timezone))
	}

	if c.Network.RetryInterval <= 0 {
		errs = append(errs, "network.retry_interval must be positive")
	}

	// MQTT
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Reconnect.Interval <= 0 {
		errs = append(errs, "mqtt.reconnect.interval must be positive")
	}
	if c.MQTT.Topics.Publish == "" {
		errs = append(errs, "mqtt.topics.publish is required")
	}
	if c.MQTT.Topics.Subscribe == "" {
		errs = append(errs, "mqtt.topics.subscribe is required")
	}

	// Sensor
	switch c.Sensor.Driver {
	case SensorDriverSimulated:
	case SensorDriverIIO:
		if c.Sensor.IIODevice == "" {
			errs = append(errs, "sensor.iio_device is required for the iio driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("sensor.driver %q must be %q or %q", c.Sensor.Driver, SensorDriverSimulated, SensorDriverIIO))
	}
	if c.Sensor.SimulatedFailureRate < 0 || c.Sensor.SimulatedFailureRate > 1 {
		errs = append(errs, "sensor.simulated_failure_rate must be between 0 and 1")
	}
	if c.Sensor.PublishInterval <= 0 {
		errs = append(errs, "sensor.publish_interval must be positive")
	}
	if c.Sensor.FailureCooldown < 0 || c.Sensor.IdleInterval < 0 {
		errs = append(errs, "sensor hold intervals cannot be negative")
	}

	if c.Indicator.Enabled && c.Indicator.Line < 0 {
		errs = append(errs, "indicator.line cannot be negative")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ClientID returns the MQTT client identifier, falling back to the device ID.
func (c *Config) ClientID() string {
	if c.MQTT.Broker.ClientID != "" {
		return c.MQTT.Broker.ClientID
	}
	return c.Device.ID
}

// Location returns the configured timezone, or UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Device.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ReadTimeout returns the read timeout as a Duration.
func (t APITimeoutConfig) ReadTimeout() time.Duration {
	return time.Duration(t.Read) * time.Second
}

// WriteTimeout returns the write timeout as a Duration.
func (t APITimeoutConfig) WriteTimeout() time.Duration {
	return time.Duration(t.Write) * time.Second
}

// IdleTimeout returns the keep-alive idle timeout as a Duration.
func (t APITimeoutConfig) IdleTimeout() time.Duration {
	return time.Duration(t.Idle) * time.Second
}
