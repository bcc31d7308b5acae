package config

// Config holds planora configuration.
// Loaded from ./config.yaml or ~/.planora/config.yaml.
type Config struct {
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
	Extraction ExtractionCfg `mapstructure:"extraction" yaml:"extraction"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// ExtractionCfg configures the extraction pipeline.
type ExtractionCfg struct {
	// Provider selects the AI-assisted extraction backend. Leaving it
	// unconfigured (no api_key) disables the AI path entirely; the
	// heuristic parser still runs.
	Provider ProviderCfg `mapstructure:"provider" yaml:"provider"`

	// CountryAliases maps lowercase aliases to canonical country
	// display names, merged over the built-in ES/EN table.
	CountryAliases map[string]string `mapstructure:"country_aliases" yaml:"country_aliases"`

	// PromptBudget caps document characters sent to the AI provider.
	PromptBudget int `mapstructure:"prompt_budget" yaml:"prompt_budget"`

	// MaxDayDescription caps each itinerary day description (runes).
	MaxDayDescription int `mapstructure:"max_day_description" yaml:"max_day_description"`

	// HeartbeatSeconds is the interval between progress heartbeats
	// while an AI call is in flight.
	HeartbeatSeconds int `mapstructure:"heartbeat_seconds" yaml:"heartbeat_seconds"`
}

// ProviderCfg configures an AI extraction provider.
type ProviderCfg struct {
	Type           string  `mapstructure:"type" yaml:"type"`     // "openai", "openrouter"
	Model          string  `mapstructure:"model" yaml:"model"`   // Model name
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries" yaml:"max_retries"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Extraction: ExtractionCfg{
			Provider: ProviderCfg{
				Type:           "openai",
				Model:          "gpt-4o-mini",
				APIKey:         "${OPENAI_API_KEY}",
				Temperature:    0.2,
				TimeoutSeconds: 90,
				MaxRetries:     3,
			},
			PromptBudget:      28000,
			MaxDayDescription: 3000,
			HeartbeatSeconds:  3,
		},
	}
}
