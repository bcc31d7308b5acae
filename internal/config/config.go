package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/planora/planora/internal/aiextract"
	"github.com/planora/planora/internal/heuristic"
	"github.com/planora/planora/internal/plan"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("server", defaults.Server)
	viper.SetDefault("extraction", defaults.Extraction)

	// Environment variables with PLANORA_ prefix
	viper.SetEnvPrefix("PLANORA")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.planora")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToExtractorConfig converts the config for aiextract.New. It resolves
// ${ENV_VAR} references in the API key; an unset variable yields an
// empty key and therefore the no-op provider.
func (c *Config) ToExtractorConfig() aiextract.Config {
	p := c.Extraction.Provider
	return aiextract.Config{
		Type:         p.Type,
		APIKey:       ResolveEnvVars(p.APIKey),
		Model:        p.Model,
		BaseURL:      p.BaseURL,
		Temperature:  p.Temperature,
		Timeout:      time.Duration(p.TimeoutSeconds) * time.Second,
		PromptBudget: c.Extraction.PromptBudget,
		MaxRetries:   p.MaxRetries,
		Limits:       c.PlanLimits(),
	}
}

// ToHeuristicOptions converts the config for the heuristic parser.
func (c *Config) ToHeuristicOptions() heuristic.Options {
	return heuristic.Options{
		CountryAliases:    c.Extraction.CountryAliases,
		MaxDayDescription: c.Extraction.MaxDayDescription,
	}
}

// PlanLimits returns the schema caps with config overrides applied.
func (c *Config) PlanLimits() plan.Limits {
	limits := plan.DefaultLimits()
	if c.Extraction.MaxDayDescription > 0 {
		limits.MaxDayDescription = c.Extraction.MaxDayDescription
	}
	return limits
}

// HeartbeatInterval returns the configured heartbeat interval.
func (c *Config) HeartbeatInterval() time.Duration {
	if c.Extraction.HeartbeatSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.Extraction.HeartbeatSeconds) * time.Second
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Planora configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENAI_API_KEY=xxx (or OPENROUTER_API_KEY=xxx)

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
