package node

// Response describes what a dispatched command did.
type Response struct {
	Command Command
	Source  Source

	// Lines is the console text written for the command.
	Lines []string

	// Reply is the structured bus reply, nil for help.
	Reply []byte

	// Published reports whether Reply was sent on the bus.
	Published bool
}

// Dispatcher applies operator commands to the control state.
//
// Both command sources share one vocabulary. Only bus-sourced commands get a
// structured reply, and only while the bus is connected; console-sourced
// commands produce console text only.
type Dispatcher struct {
	control *ControlState
	conn    Connectivity
	bus     BusPublisher
	topic   string
	out     Output
	logger  Logger
	metrics Metrics
}

// NewDispatcher creates a command dispatcher.
//
// Parameters:
//   - control: Shared publish/suspend toggle
//   - conn: Link and bus state for status reports and reply gating
//   - bus: Publisher for structured replies
//   - topic: Topic replies are published on
//   - out: Console text sink (may be nil)
//   - logger: Logger instance (may be nil)
func NewDispatcher(control *ControlState, conn Connectivity, bus BusPublisher, topic string, out Output, logger Logger) *Dispatcher {
	if out == nil {
		out = discardOutput{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		control: control,
		conn:    conn,
		bus:     bus,
		topic:   topic,
		out:     out,
		logger:  logger,
		metrics: noopMetrics{},
	}
}

// SetMetrics sets the metrics recorder.
func (d *Dispatcher) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	d.metrics = m
	d.metrics.SetActive(d.control.Active())
}

// Dispatch normalises text and applies it as a command from source.
//
// Empty input is ignored entirely: ok is false and nothing is written,
// logged, or changed. Dispatch never blocks on the bus beyond the publish
// call itself and never returns an error; publish failures are logged.
func (d *Dispatcher) Dispatch(text string, source Source) (resp Response, ok bool) {
	cmd, ok := ParseCommand(text)
	if !ok {
		return Response{}, false
	}

	switch cmd.Verb {
	case VerbStop:
		d.control.setActive(false)
		d.metrics.SetActive(false)
	case VerbStart:
		d.control.setActive(true)
		d.metrics.SetActive(true)
	}

	snap := d.snapshot()
	resp = Response{
		Command: cmd,
		Source:  source,
		Lines:   LocalLines(cmd, source, snap),
		Reply:   BuildReply(cmd.Verb, snap),
	}

	for _, line := range resp.Lines {
		d.out.WriteLine(line)
	}

	d.logger.Info("command dispatched",
		"verb", cmd.Verb.String(),
		"source", source.String(),
		"active", snap.Active,
	)
	d.metrics.CommandDispatched(source.String(), cmd.Verb.String())

	if source == SourceBus && resp.Reply != nil && snap.BusConnected {
		if err := d.bus.Publish(d.topic, resp.Reply); err != nil {
			d.logger.Warn("publishing command reply failed",
				"verb", cmd.Verb.String(),
				"error", err,
			)
		} else {
			resp.Published = true
		}
	}

	return resp, true
}

func (d *Dispatcher) snapshot() Snapshot {
	return Snapshot{
		Active:       d.control.Active(),
		LinkUp:       d.conn.LinkUp(),
		BusConnected: d.conn.BusConnected(),
	}
}
