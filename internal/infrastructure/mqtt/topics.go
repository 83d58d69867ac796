package mqtt

import "fmt"

// DefaultDiscoveryPrefix is the Home Assistant discovery root.
const DefaultDiscoveryPrefix = "homeassistant"

// Topics provides builders for derived MQTT topics.
// Telemetry and command topics come from config; only the discovery
// hierarchy is computed.
//
//	topics := mqtt.Topics{}
//	cfgTopic := topics.Discovery("homeassistant", "sensor", "greenhouse-01", "humidity")
//	// Returns: "homeassistant/sensor/greenhouse-01/humidity/config"
type Topics struct{}

// Discovery returns the Home Assistant discovery config topic for one entity.
//
// Example: homeassistant/sensor/greenhouse-01/temperature/config
func (Topics) Discovery(prefix, component, nodeID, objectID string) string {
	if prefix == "" {
		prefix = DefaultDiscoveryPrefix
	}
	return fmt.Sprintf("%s/%s/%s/%s/config", prefix, component, nodeID, objectID)
}
