package node

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeAttempt is a controllable ConnectAttempt.
type fakeAttempt struct {
	done chan struct{}
	err  error
}

func newFakeAttempt() *fakeAttempt {
	return &fakeAttempt{done: make(chan struct{})}
}

func (a *fakeAttempt) Done() <-chan struct{} { return a.done }
func (a *fakeAttempt) Error() error          { return a.err }

func (a *fakeAttempt) succeed() { close(a.done) }

func (a *fakeAttempt) fail(err error) {
	a.err = err
	close(a.done)
}

type published struct {
	topic    string
	payload  string
	retained bool
}

// mockBus records bus traffic. Connect hands out attempts from the
// attempts queue; the test resolves them.
type mockBus struct {
	mu           sync.Mutex
	connected    bool
	publishErr   error
	subErr       error
	published    []published
	subscribes   []string
	handler      func(topic string, payload []byte)
	connectsMade int
	attempts     []*fakeAttempt

	// autoConnect resolves every attempt immediately and marks connected.
	autoConnect bool

	// subEntered and subRelease, when set, hold Subscribe until released.
	subEntered chan struct{}
	subRelease chan struct{}
}

func (b *mockBus) Connect() ConnectAttempt {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connectsMade++
	a := newFakeAttempt()
	if b.autoConnect {
		b.connected = true
		a.succeed()
	}
	b.attempts = append(b.attempts, a)
	return a
}

func (b *mockBus) lastAttempt() *fakeAttempt {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts[len(b.attempts)-1]
}

func (b *mockBus) setConnected(v bool) {
	b.mu.Lock()
	b.connected = v
	b.mu.Unlock()
}

func (b *mockBus) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *mockBus) Publish(topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, published{topic: topic, payload: string(payload)})
	return nil
}

func (b *mockBus) PublishRetained(topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, published{topic: topic, payload: string(payload), retained: true})
	return nil
}

func (b *mockBus) Subscribe(topic string, handler func(string, []byte)) error {
	if b.subRelease != nil {
		close(b.subEntered)
		<-b.subRelease
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subErr != nil {
		return b.subErr
	}
	b.subscribes = append(b.subscribes, topic)
	b.handler = handler
	return nil
}

func (b *mockBus) deliver(topic, payload string) {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	h(topic, []byte(payload))
}

func (b *mockBus) publishes() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]published, len(b.published))
	copy(out, b.published)
	return out
}

// mockLink reports a settable link state, or walks a scripted sequence.
type mockLink struct {
	mu     sync.Mutex
	up     bool
	script []bool
	checks int
}

func (l *mockLink) LinkUp() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.checks++
	if len(l.script) > 0 {
		v := l.script[0]
		l.script = l.script[1:]
		l.up = v
	}
	return l.up
}

// staticConn is a fixed Connectivity.
type staticConn struct {
	link bool
	bus  bool
}

func (c staticConn) LinkUp() bool       { return c.link }
func (c staticConn) BusConnected() bool { return c.bus }

type sample struct {
	h, t float64
	err  error
}

// mockSensor returns queued samples, repeating the last one.
type mockSensor struct {
	samples []sample
	reads   int
}

func (s *mockSensor) Read(context.Context) (float64, float64, error) {
	s.reads++
	if len(s.samples) == 0 {
		return 0, 0, errors.New("no samples")
	}
	v := s.samples[0]
	if len(s.samples) > 1 {
		s.samples = s.samples[1:]
	}
	return v.h, v.t, v.err
}

// mockIndicator records on/off transitions.
type mockIndicator struct {
	events []string
	onErr  error
}

func (i *mockIndicator) On() error {
	if i.onErr != nil {
		return i.onErr
	}
	i.events = append(i.events, "on")
	return nil
}

func (i *mockIndicator) Off() error {
	i.events = append(i.events, "off")
	return nil
}

// recordingOutput captures console lines.
type recordingOutput struct {
	mu    sync.Mutex
	lines []string
}

func (o *recordingOutput) WriteLine(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, line)
}

func (o *recordingOutput) all() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.lines))
	copy(out, o.lines)
	return out
}

// recordingLogger counts log calls by level.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record(msg) }

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// fixedClock always returns t.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// recordingSleep records requested holds without waiting.
type recordingSleep struct {
	holds []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.holds = append(r.holds, d)
	return ctx.Err()
}

// recordingMirror captures mirrored readings.
type recordingMirror struct {
	readings []Reading
}

func (m *recordingMirror) WriteReading(deviceID string, h, t float64, ts time.Time) {
	m.readings = append(m.readings, Reading{Time: deviceID + "@" + ts.Format(time.RFC3339), Humidity: h, Temperature: t})
}

// countingMetrics counts metric events.
type countingMetrics struct {
	noopMetrics
	published int
	failures  int
	commands  map[string]int
	attempts  map[bool]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{commands: map[string]int{}, attempts: map[bool]int{}}
}

func (m *countingMetrics) ReadingPublished() { m.published++ }
func (m *countingMetrics) SensorFailure()    { m.failures++ }
func (m *countingMetrics) CommandDispatched(source, verb string) {
	m.commands[source+"/"+verb]++
}
func (m *countingMetrics) ConnectAttempt(ok bool) { m.attempts[ok]++ }
