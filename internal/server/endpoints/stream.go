package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/planora/planora/internal/pipeline"
)

// ndjsonSink streams pipeline events as newline-delimited JSON over a
// chunked HTTP response, flushing after every line. Once a write
// fails the transport is considered gone and every later Emit errors,
// which tells the orchestrator to stop emitting.
type ndjsonSink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	failed  bool
}

func newNDJSONSink(w http.ResponseWriter, flusher http.Flusher) *ndjsonSink {
	return &ndjsonSink{w: w, flusher: flusher}
}

func (s *ndjsonSink) Emit(ev pipeline.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return fmt.Errorf("stream closed")
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	line = append(line, '\n')

	if _, err := s.w.Write(line); err != nil {
		s.failed = true
		return fmt.Errorf("failed to write event: %w", err)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *ndjsonSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = true
	return nil
}

var _ pipeline.Sink = (*ndjsonSink)(nil)
