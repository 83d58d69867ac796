package mqtt

import (
	"encoding/json"
	"fmt"
)

// DeviceInfo holds the Home Assistant device registry fields shared by
// every discovery payload this node publishes, so HA groups the humidity
// and temperature entities under one device.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version"`
}

// SensorConfig is the JSON payload for an HA MQTT sensor discovery message.
type SensorConfig struct {
	Name                 string     `json:"name"`
	UniqueID             string     `json:"unique_id"`
	StateTopic           string     `json:"state_topic"`
	AvailabilityTopic    string     `json:"availability_topic,omitempty"`
	AvailabilityTemplate string     `json:"availability_template,omitempty"`
	Device               DeviceInfo `json:"device"`
	DeviceClass          string     `json:"device_class"`
	UnitOfMeasurement    string     `json:"unit_of_measurement"`
	StateClass           string     `json:"state_class"`
	ValueTemplate        string     `json:"value_template"`
}

// RetainedMessage is a topic/payload pair to be published with the retain flag.
type RetainedMessage struct {
	Topic   string
	Payload []byte
}

// DiscoveryOptions describes the node for discovery announcements.
type DiscoveryOptions struct {
	Prefix            string
	DeviceID          string
	DeviceName        string
	Version           string
	StateTopic        string
	AvailabilityTopic string
}

// DiscoveryMessages builds the retained discovery configs for the
// humidity and temperature entities.
//
// State payloads carry both values in one JSON object, so each entity
// extracts its field with a value template. Non-reading payloads on the
// same topic (command acknowledgements) lack the field and are ignored by HA.
func DiscoveryMessages(opts DiscoveryOptions) ([]RetainedMessage, error) {
	device := DeviceInfo{
		Identifiers:  []string{opts.DeviceID},
		Name:         opts.DeviceName,
		Manufacturer: "Climate Node",
		Model:        "Humidity/Temperature Node",
		SWVersion:    opts.Version,
	}

	availTemplate := ""
	if opts.AvailabilityTopic != "" {
		availTemplate = "{{ value_json.status }}"
	}

	entities := []struct {
		objectID string
		name     string
		class    string
		unit     string
	}{
		{objectID: "humidity", name: "Humidity", class: "humidity", unit: "%"},
		{objectID: "temperature", name: "Temperature", class: "temperature", unit: "°C"},
	}

	msgs := make([]RetainedMessage, 0, len(entities))
	for _, e := range entities {
		payload, err := json.Marshal(SensorConfig{
			Name:                 fmt.Sprintf("%s %s", opts.DeviceName, e.name),
			UniqueID:             opts.DeviceID + "_" + e.objectID,
			StateTopic:           opts.StateTopic,
			AvailabilityTopic:    opts.AvailabilityTopic,
			AvailabilityTemplate: availTemplate,
			Device:               device,
			DeviceClass:          e.class,
			UnitOfMeasurement:    e.unit,
			StateClass:           "measurement",
			ValueTemplate:        fmt.Sprintf("{{ value_json.%s | default(this.state) }}", e.objectID),
		})
		if err != nil {
			return nil, fmt.Errorf("encoding %s discovery config: %w", e.objectID, err)
		}
		msgs = append(msgs, RetainedMessage{
			Topic:   Topics{}.Discovery(opts.Prefix, "sensor", opts.DeviceID, e.objectID),
			Payload: payload,
		})
	}

	return msgs, nil
}
