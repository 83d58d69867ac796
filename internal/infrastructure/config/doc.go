// Package config loads the climate node's YAML configuration.
//
// Load reads the file, fills unset fields from defaults, applies a small
// set of CLIMATENODE_* environment overrides and validates the result.
// Durations are written in Go syntax ("5s", "300ms").
//
// Overrides cover the values that differ per deployment or must stay out
// of the file: device ID, network interface, broker host, MQTT credentials
// and the InfluxDB token.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return fmt.Errorf("loading config: %w", err)
//	}
//	topic := cfg.MQTT.Topics.Publish
package config
