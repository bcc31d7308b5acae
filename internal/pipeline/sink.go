package pipeline

import "sync"

// Sink receives progress events. The streaming HTTP adapter and the
// synchronous buffering adapter both implement it, so the orchestrator
// serves both external contracts with one code path. Emit returning an
// error means the transport is gone; the orchestrator stops emitting
// but still finishes the extraction.
type Sink interface {
	Emit(Event) error
	Close() error
}

// BufferSink records events in memory for synchronous callers and
// tests.
type BufferSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) Emit(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *BufferSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Events returns a copy of everything emitted so far.
func (s *BufferSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Final returns the terminal event, if one was emitted.
func (s *BufferSink) Final() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Terminal() {
			return s.events[i], true
		}
	}
	return Event{}, false
}

var _ Sink = (*BufferSink)(nil)

// emitter wraps a sink with the per-run emission rules: monotonic
// progress, exactly one terminal event, and silence after a sink
// failure. The heartbeat goroutine shares it with the run goroutine,
// hence the lock.
type emitter struct {
	mu       sync.Mutex
	sink     Sink
	last     int
	failed   bool
	finished bool
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failed || e.finished {
		return
	}
	if ev.Stage != StageError && ev.Progress < e.last {
		ev.Progress = e.last
	}
	if err := e.sink.Emit(ev); err != nil {
		e.failed = true
		return
	}
	if ev.Stage != StageError {
		e.last = ev.Progress
	}
	if ev.Terminal() {
		e.finished = true
	}
}
