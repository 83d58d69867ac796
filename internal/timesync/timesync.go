// Package timesync performs the startup clock synchronisation.
//
// A single NTP query measures the offset between the local clock and the
// server. Reading timestamps are taken from a Clock that applies that
// offset and the configured timezone. Sync failure is non-fatal: the Clock
// keeps a zero offset and readings carry local time.
package timesync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

// ErrDisabled indicates time sync is disabled in configuration.
var ErrDisabled = errors.New("timesync: disabled in configuration")

// defaultTimeout bounds the NTP query when config leaves it unset.
const defaultTimeout = 3 * time.Second

// Clock is the node's reading clock.
type Clock struct {
	loc    *time.Location
	offset atomic.Int64
	synced atomic.Bool
}

// NewClock returns an unsynchronised clock in loc (UTC when nil).
func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc}
}

// Now returns the corrected time in the clock's location.
func (c *Clock) Now() time.Time {
	return time.Now().Add(time.Duration(c.offset.Load())).In(c.loc)
}

// Offset returns the applied correction.
func (c *Clock) Offset() time.Duration {
	return time.Duration(c.offset.Load())
}

// Synced reports whether a sync has succeeded.
func (c *Clock) Synced() bool {
	return c.synced.Load()
}

func (c *Clock) apply(offset time.Duration) {
	c.offset.Store(int64(offset))
	c.synced.Store(true)
}

// queryFunc matches ntp.QueryWithOptions.
type queryFunc func(host string, opts ntp.QueryOptions) (*ntp.Response, error)

// Syncer queries an NTP server and corrects a Clock.
type Syncer struct {
	cfg   config.TimeSyncConfig
	clock *Clock
	query queryFunc
}

// NewSyncer creates a syncer for clock.
func NewSyncer(cfg config.TimeSyncConfig, clock *Clock) *Syncer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Syncer{cfg: cfg, clock: clock, query: ntp.QueryWithOptions}
}

// Sync runs one NTP query and applies the measured offset.
//
// It returns early if ctx is cancelled; the query itself is bounded by the
// configured timeout.
func (s *Syncer) Sync(ctx context.Context) (time.Duration, error) {
	if !s.cfg.Enabled {
		return 0, ErrDisabled
	}

	type result struct {
		resp *ntp.Response
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := s.query(s.cfg.Server, ntp.QueryOptions{Timeout: s.cfg.Timeout})
		ch <- result{resp: resp, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("ntp query %s: %w", s.cfg.Server, ctx.Err())
	case r = <-ch:
	}

	if r.err != nil {
		return 0, fmt.Errorf("ntp query %s: %w", s.cfg.Server, r.err)
	}
	if err := r.resp.Validate(); err != nil {
		return 0, fmt.Errorf("ntp response from %s: %w", s.cfg.Server, err)
	}

	s.clock.apply(r.resp.ClockOffset)
	return r.resp.ClockOffset, nil
}
