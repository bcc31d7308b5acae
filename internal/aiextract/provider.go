// Package aiextract is the AI-assisted extraction path. The backend is
// modeled as a capability interface: when credentials are present a
// real structured-completion client is injected, otherwise a no-op
// implementation that reports itself unconfigured. Callers treat the
// whole path as an optional enhancement — any failure here falls back
// to the heuristic parser, never to the user.
package aiextract

import (
	"context"
	"time"

	"github.com/planora/planora/internal/plan"
)

// Provider is a structured-completion backend able to turn raw
// document text into a tour plan.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai").
	Name() string

	// Configured reports whether the provider can actually be called.
	// Unconfigured providers must return (nil, nil) from Extract.
	Configured() bool

	// Extract runs the structured completion and returns a fully
	// normalized plan. A nil plan with nil error means "not
	// configured"; any error means the caller should fall back.
	Extract(ctx context.Context, text string) (*plan.Plan, error)
}

// Config selects and configures a provider. A zero value yields the
// no-op provider.
type Config struct {
	// Type is "openai" or "openrouter". Empty disables the AI path.
	Type string

	// APIKey authenticates against the provider. Empty disables the
	// AI path regardless of Type.
	APIKey string

	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration

	// PromptBudget caps the document characters sent to the provider.
	PromptBudget int

	// MaxRetries bounds transport-level retry attempts.
	MaxRetries int

	// Limits are the schema caps applied during normalization.
	Limits plan.Limits
}

func (c Config) withDefaults() Config {
	if c.PromptBudget <= 0 {
		c.PromptBudget = DefaultPromptBudget
	}
	if c.Timeout <= 0 {
		c.Timeout = 90 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.2
	}
	if c.Limits == (plan.Limits{}) {
		c.Limits = plan.DefaultLimits()
	}
	return c
}

// DefaultPromptBudget is the document-size cap (characters) applied
// before sending text to a provider, keeping requests under provider
// size limits.
const DefaultPromptBudget = 28000
