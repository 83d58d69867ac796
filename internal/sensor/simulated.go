package sensor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Simulated value ranges.
const (
	minHumidity    = 30.0
	maxHumidity    = 70.0
	minTemperature = 18.0
	maxTemperature = 28.0

	// Maximum change per sample.
	humidityStep    = 1.5
	temperatureStep = 0.3
)

// Simulated produces plausible readings that drift slowly within
// 30-70 %RH and 18-28 °C.
//
// With a non-zero failure rate, that fraction of samples fails the way a
// real DHT sensor occasionally does.
type Simulated struct {
	mu          sync.Mutex
	rng         *rand.Rand
	failureRate float64
	humidity    float64
	temperature float64
}

// NewSimulated creates a simulated sensor starting mid-range.
//
// Parameters:
//   - failureRate: Fraction of reads that fail, 0..1
//   - rng: Random source (nil seeds from the clock)
func NewSimulated(failureRate float64, rng *rand.Rand) *Simulated {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // simulation only
	}
	return &Simulated{
		rng:         rng,
		failureRate: failureRate,
		humidity:    (minHumidity + maxHumidity) / 2,
		temperature: (minTemperature + maxTemperature) / 2,
	}
}

// Read returns the next simulated sample.
func (s *Simulated) Read(ctx context.Context) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failureRate > 0 && s.rng.Float64() < s.failureRate {
		return 0, 0, fmt.Errorf("%w: simulated dropout", ErrReadFailed)
	}

	s.humidity = clamp(s.humidity+(s.rng.Float64()*2-1)*humidityStep, minHumidity, maxHumidity)
	s.temperature = clamp(s.temperature+(s.rng.Float64()*2-1)*temperatureStep, minTemperature, maxTemperature)

	return round1(s.humidity), round1(s.temperature), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round1 rounds to the sensor's 0.1 resolution.
func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
