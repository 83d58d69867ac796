package node

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// BusState is the bus connection lifecycle state.
type BusState int

// Bus connection states.
const (
	BusDisconnected BusState = iota
	BusConnecting
	BusConnected
)

// String returns the state name.
func (s BusState) String() string {
	switch s {
	case BusConnecting:
		return "connecting"
	case BusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// defaultInboxSize bounds bus commands queued between ticks.
const defaultInboxSize = 16

// Inbound is a command received on the bus, queued for the next tick.
type Inbound struct {
	Topic string
	Text  string
}

// Retained is a message published with the retain flag after every connect.
type Retained struct {
	Topic   string
	Payload []byte
}

// SupervisorConfig holds connectivity settings.
type SupervisorConfig struct {
	// CommandTopic is subscribed after every successful connect.
	CommandTopic string

	// LinkRetry is the wait between link checks at startup.
	LinkRetry time.Duration

	// BusRetry is the wait after a failed connection attempt.
	BusRetry time.Duration

	// Announcements are published retained after every connect
	// (Home Assistant discovery).
	Announcements []Retained
}

// Supervisor owns the network link and bus connection lifecycle.
//
// EnsureLink blocks at startup until the link is up. After that, Poll is
// called once per tick and never blocks: it starts a connection attempt when
// the bus is down and the retry interval has elapsed, and checks a pending
// attempt for completion.
//
// Thread Safety: state accessors are safe for concurrent use. Poll and
// DrainInbox must be called from the tick goroutine.
type Supervisor struct {
	link    LinkChecker
	bus     Bus
	cfg     SupervisorConfig
	logger  Logger
	metrics Metrics
	now     func() time.Time
	sleep   SleepFunc

	inbox   chan Inbound
	dropped atomic.Int64

	mu          sync.RWMutex
	linkUp      bool
	state       BusState
	subscribed  bool
	attempt     ConnectAttempt
	nextAttempt time.Time
	connects    int
}

// NewSupervisor creates a connection supervisor.
//
// Parameters:
//   - link: Network link probe
//   - bus: Message bus client
//   - cfg: Topics and retry intervals
//   - logger: Logger instance (may be nil)
func NewSupervisor(link LinkChecker, bus Bus, cfg SupervisorConfig, logger Logger) *Supervisor {
	if logger == nil {
		logger = noopLogger{}
	}
	if cfg.LinkRetry <= 0 {
		cfg.LinkRetry = time.Second
	}
	if cfg.BusRetry <= 0 {
		cfg.BusRetry = time.Second
	}
	return &Supervisor{
		link:    link,
		bus:     bus,
		cfg:     cfg,
		logger:  logger,
		metrics: noopMetrics{},
		now:     time.Now,
		sleep:   Sleep,
		inbox:   make(chan Inbound, defaultInboxSize),
	}
}

// SetMetrics sets the metrics recorder.
func (s *Supervisor) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	s.metrics = m
}

// SetClock overrides the time source used for retry scheduling (tests).
func (s *Supervisor) SetClock(now func() time.Time) {
	s.now = now
}

// SetSleep overrides the hold used while waiting for the link (tests).
func (s *Supervisor) SetSleep(sleep SleepFunc) {
	s.sleep = sleep
}

// EnsureLink blocks until the network link is up, checking every
// LinkRetry. There is no timeout; only ctx cancellation (shutdown) ends the
// wait early.
func (s *Supervisor) EnsureLink(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		if s.link.LinkUp() {
			s.setLinkUp(true)
			s.logger.Info("network link up", "checks", attempt)
			return nil
		}

		if attempt == 1 {
			s.logger.Info("waiting for network link")
		} else {
			s.logger.Debug("network link still down", "checks", attempt)
		}

		if err := s.sleep(ctx, s.cfg.LinkRetry); err != nil {
			return fmt.Errorf("%w: %w", ErrLinkUnavailable, err)
		}
	}
}

// Poll advances the connectivity state machine by one step.
//
// It refreshes the link state, detects a dropped bus connection, starts a
// new attempt when due, and completes a pending attempt if it has finished.
// No connection attempt is started while the link is down.
func (s *Supervisor) Poll() {
	linkUp := s.link.LinkUp()
	if linkUp != s.LinkUp() {
		if linkUp {
			s.logger.Info("network link restored")
		} else {
			s.logger.Warn("network link lost")
		}
	}
	s.setLinkUp(linkUp)

	s.mu.Lock()
	if s.state == BusConnected && !s.bus.IsConnected() {
		s.logger.Warn("bus connection lost")
		s.state = BusDisconnected
		s.subscribed = false
		s.nextAttempt = time.Time{}
		s.metrics.SetBusConnected(false)
	}

	if s.state == BusDisconnected && linkUp && !s.now().Before(s.nextAttempt) {
		s.logger.Debug("connecting to bus")
		s.attempt = s.bus.Connect()
		s.state = BusConnecting
	}

	justConnected := false
	if s.state == BusConnecting {
		justConnected = s.checkAttemptLocked()
	}
	needSubscribe := s.state == BusConnected && !s.subscribed
	s.mu.Unlock()

	// Subscribe and announce wait for broker acks, so they run unlocked.
	if needSubscribe {
		s.subscribe()
	}
	if justConnected {
		s.announce()
	}
}

// checkAttemptLocked completes a finished connection attempt and reports
// whether it just connected.
func (s *Supervisor) checkAttemptLocked() bool {
	select {
	case <-s.attempt.Done():
	default:
		return false
	}

	err := s.attempt.Error()
	s.attempt = nil
	s.metrics.ConnectAttempt(err == nil)

	if err != nil {
		s.state = BusDisconnected
		s.nextAttempt = s.now().Add(s.cfg.BusRetry)
		s.logger.Warn("bus connection attempt failed",
			"error", err,
			"retry_in", s.cfg.BusRetry,
		)
		return false
	}

	s.state = BusConnected
	s.connects++
	s.metrics.SetBusConnected(true)
	s.logger.Info("bus connected", "connects", s.connects)
	return true
}

// subscribe (re)subscribes to the command topic. A failure leaves
// subscribed false so the next Poll retries.
func (s *Supervisor) subscribe() {
	if err := s.bus.Subscribe(s.cfg.CommandTopic, s.enqueue); err != nil {
		s.logger.Warn("subscribing to command topic failed",
			"topic", s.cfg.CommandTopic,
			"error", err,
		)
		return
	}
	s.mu.Lock()
	s.subscribed = true
	s.mu.Unlock()
	s.logger.Debug("subscribed to command topic", "topic", s.cfg.CommandTopic)
}

// announce publishes the retained announcements.
func (s *Supervisor) announce() {
	for _, msg := range s.cfg.Announcements {
		if err := s.bus.PublishRetained(msg.Topic, msg.Payload); err != nil {
			s.logger.Warn("publishing announcement failed",
				"topic", msg.Topic,
				"error", err,
			)
		}
	}
}

// enqueue runs on the bus client's goroutine. Commands that do not fit in
// the inbox are dropped rather than blocking message delivery.
func (s *Supervisor) enqueue(topic string, payload []byte) {
	select {
	case s.inbox <- Inbound{Topic: topic, Text: string(payload)}:
	default:
		s.dropped.Add(1)
		s.logger.Warn("command inbox full, dropping bus command", "topic", topic)
	}
}

// DrainInbox returns every bus command queued since the last call.
func (s *Supervisor) DrainInbox() []Inbound {
	var msgs []Inbound
	for {
		select {
		case msg := <-s.inbox:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

// Dropped returns the number of bus commands discarded because the inbox was full.
func (s *Supervisor) Dropped() int64 {
	return s.dropped.Load()
}

// LinkUp reports the last observed network link state.
func (s *Supervisor) LinkUp() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.linkUp
}

// BusConnected reports whether the bus is connected right now.
func (s *Supervisor) BusConnected() bool {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	return state == BusConnected && s.bus.IsConnected()
}

// State returns the bus connection state as last computed by Poll.
func (s *Supervisor) State() BusState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Connects returns the number of successful bus connections.
func (s *Supervisor) Connects() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connects
}

func (s *Supervisor) setLinkUp(up bool) {
	s.mu.Lock()
	s.linkUp = up
	s.mu.Unlock()
	s.metrics.SetLinkUp(up)
}
