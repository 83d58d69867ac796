// Package sensor provides humidity/temperature drivers for the climate node.
//
// Two drivers are available:
//   - simulated: a bounded random walk, for development without hardware
//   - iio: the Linux Industrial I/O sysfs interface, as exposed by the
//     kernel dht11 driver (which also handles DHT22/AM2302)
//
// A failed sample is returned as an error. The node treats it exactly like
// a not-a-number reading: no publish, then the failure cooldown.
package sensor
