// Package influxdb mirrors climate readings and command events to InfluxDB.
//
// The mirror is optional. MQTT stays the primary telemetry path and the node
// runs normally with InfluxDB disabled or unreachable.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    // run without the mirror
//	}
//	defer client.Close()
//
//	client.WriteReading("greenhouse-01", 48.2, 21.7, time.Now())
//
// Points are written to two measurements:
//
//	climate  tags: device_id               fields: humidity, temperature
//	command  tags: device_id, verb, source fields: count=1
package influxdb
