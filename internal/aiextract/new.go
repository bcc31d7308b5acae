package aiextract

import (
	"log/slog"
)

// New builds the provider selected by cfg. Unknown types and missing
// credentials degrade to the no-op provider rather than erroring so
// the pipeline stays usable without AI configuration.
func New(cfg Config, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return Noop{}
	}
	cfg = cfg.withDefaults()
	switch cfg.Type {
	case "openai":
		return newOpenAI(cfg, logger)
	case "openrouter":
		return newOpenRouter(cfg, logger)
	default:
		logger.Warn("unknown extraction provider type, AI path disabled", "type", cfg.Type)
		return Noop{}
	}
}
