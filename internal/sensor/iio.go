package sensor

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IIO channel attribute files, in milli units.
const (
	iioHumidityFile    = "in_humidityrelative_input"
	iioTemperatureFile = "in_temp_input"
)

// IIO reads a humidity/temperature device through Linux IIO sysfs.
//
// The kernel dht11 driver exposes milli-percent humidity and milli-degree
// temperature. A read that times out or fails its checksum returns EIO,
// which surfaces as ErrReadFailed.
type IIO struct {
	dir string
}

// NewIIO opens the IIO device directory, e.g. /sys/bus/iio/devices/iio:device0.
func NewIIO(dir string) (*IIO, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening iio device: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening iio device: %s is not a directory", dir)
	}
	return &IIO{dir: dir}, nil
}

// Read samples humidity then temperature.
func (d *IIO) Read(ctx context.Context) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	humidity, err := d.readMilli(iioHumidityFile)
	if err != nil {
		return 0, 0, err
	}
	temperature, err := d.readMilli(iioTemperatureFile)
	if err != nil {
		return 0, 0, err
	}
	return humidity, temperature, nil
}

// readMilli reads one channel and converts milli units to units.
func (d *IIO) readMilli(name string) (float64, error) {
	data, err := os.ReadFile(filepath.Join(d.dir, name))
	if err != nil {
		return math.NaN(), fmt.Errorf("%w: %s: %w", ErrReadFailed, name, err)
	}

	raw, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("%w: %s: %w", ErrReadFailed, name, err)
	}
	return float64(raw) / 1000, nil
}
