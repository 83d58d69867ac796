// Package mqtt provides MQTT client connectivity for the climate node.
//
// This package manages:
//   - Non-blocking connection attempts polled by the node supervisor
//   - Message publishing with QoS validation
//   - Topic subscriptions restored after every reconnect
//   - Last Will and Testament (LWT) on the availability topic
//   - Home Assistant discovery payloads
//
// # Connection Model
//
// paho's automatic reconnection is disabled. The caller starts one attempt
// with StartConnect and inspects the returned attempt on its own schedule:
//
//	client := mqtt.New(cfg.MQTT, cfg.ClientID())
//	attempt := client.StartConnect()
//	select {
//	case <-attempt.Done():
//	    if err := attempt.Error(); err != nil {
//	        // retry after the configured interval
//	    }
//	default:
//	    // still connecting
//	}
//
// Connect is the blocking variant, used by tools and integration tests.
//
// # Security Considerations
//
//   - TLS 1.2+ is used when cfg.Broker.TLS is set
//   - Credentials should be supplied via CLIMATENODE_MQTT_USERNAME/PASSWORD
package mqtt
