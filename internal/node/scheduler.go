package node

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is a point-in-time view of the node for the status API.
type Status struct {
	Active       bool
	LinkUp       bool
	BusConnected bool
	BusState     string
	Connects     int
	LastReading  *Reading
}

// Scheduler runs the cooperative tick loop.
//
// Every tick runs the same steps in the same order:
//  1. dispatch all pending console commands
//  2. poll the connection supervisor
//  3. dispatch queued bus commands, if connected
//  4. run one publisher cycle if active, otherwise hold for the idle interval
type Scheduler struct {
	control    *ControlState
	supervisor *Supervisor
	dispatcher *Dispatcher
	publisher  *Publisher
	local      <-chan string
	idle       time.Duration
	out        Output
	logger     Logger
	sleep      SleepFunc
}

// NewScheduler wires the core components into a tick loop.
//
// Parameters:
//   - control: Shared publish/suspend toggle
//   - supervisor: Connectivity owner
//   - dispatcher: Command handler for both sources
//   - publisher: Sensor sample/publish cycle
//   - local: Console lines (may be nil when the console is disabled)
//   - idle: Hold per tick while inactive
//   - out: Console text sink (may be nil)
//   - logger: Logger instance (may be nil)
func NewScheduler(control *ControlState, supervisor *Supervisor, dispatcher *Dispatcher, publisher *Publisher,
	local <-chan string, idle time.Duration, out Output, logger Logger) *Scheduler {
	if out == nil {
		out = discardOutput{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Scheduler{
		control:    control,
		supervisor: supervisor,
		dispatcher: dispatcher,
		publisher:  publisher,
		local:      local,
		idle:       idle,
		out:        out,
		logger:     logger,
		sleep:      Sleep,
	}
}

// SetSleep overrides the idle hold (tests).
func (s *Scheduler) SetSleep(sleep SleepFunc) { s.sleep = sleep }

// Run ticks until ctx is cancelled. It returns nil on shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "active", s.control.Active())
	for {
		if err := s.Tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Info("scheduler stopped")
				return nil
			}
			return err
		}
	}
}

// Tick runs one iteration of the loop. The only error it returns is ctx's.
func (s *Scheduler) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.drainLocal()

	s.supervisor.Poll()
	if s.supervisor.BusConnected() {
		for _, msg := range s.supervisor.DrainInbox() {
			cmd, ok := ParseCommand(msg.Text)
			if !ok {
				continue
			}
			s.out.WriteLine(fmt.Sprintf("Received MQTT [%s]: %s", msg.Topic, cmd.Raw))
			s.dispatcher.Dispatch(cmd.Raw, SourceBus)
		}
	}

	if s.control.Active() {
		_, err := s.publisher.RunOnce(ctx)
		return err
	}
	return s.sleep(ctx, s.idle)
}

// drainLocal dispatches every console line already waiting, without blocking.
func (s *Scheduler) drainLocal() {
	for s.local != nil {
		select {
		case line, ok := <-s.local:
			if !ok {
				s.logger.Warn("console input closed, local commands unavailable")
				s.local = nil
				return
			}
			s.dispatcher.Dispatch(line, SourceLocal)
		default:
			return
		}
	}
}

// Status returns the current node state. Safe to call from any goroutine.
func (s *Scheduler) Status() Status {
	return Status{
		Active:       s.control.Active(),
		LinkUp:       s.supervisor.LinkUp(),
		BusConnected: s.supervisor.BusConnected(),
		BusState:     s.supervisor.State().String(),
		Connects:     s.supervisor.Connects(),
		LastReading:  s.publisher.Last(),
	}
}
