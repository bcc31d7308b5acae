package aiextract

import (
	"context"
	"sync"
	"time"

	"github.com/planora/planora/internal/plan"
)

// Mock is a test double implementing Provider. It records calls and
// returns a canned plan or error, optionally after a delay so tests
// can exercise cancellation and heartbeat behavior.
type Mock struct {
	ProviderName string
	Plan         *plan.Plan
	Err          error
	Delay        time.Duration

	mu    sync.Mutex
	calls []string
}

func (m *Mock) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *Mock) Configured() bool { return true }

func (m *Mock) Extract(ctx context.Context, text string) (*plan.Plan, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Plan, nil
}

// Calls returns the document texts Extract was invoked with.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Provider = (*Mock)(nil)
