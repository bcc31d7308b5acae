package aiextract

import (
	"context"

	"github.com/planora/planora/internal/plan"
)

// Noop is the provider used when no AI backend is configured. Extract
// returns (nil, nil) so callers go straight to the heuristic path.
type Noop struct{}

func (Noop) Name() string { return "none" }

func (Noop) Configured() bool { return false }

func (Noop) Extract(context.Context, string) (*plan.Plan, error) {
	return nil, nil
}

var _ Provider = Noop{}
