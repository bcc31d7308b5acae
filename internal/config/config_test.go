package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Extraction.Provider.APIKey != "${OPENAI_API_KEY}" {
		t.Error("expected openai API key placeholder")
	}
	if cfg.Extraction.PromptBudget != 28000 {
		t.Errorf("expected prompt budget 28000, got %d", cfg.Extraction.PromptBudget)
	}
	if cfg.Extraction.MaxDayDescription != 3000 {
		t.Errorf("expected day description cap 3000, got %d", cfg.Extraction.MaxDayDescription)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestToExtractorConfig(t *testing.T) {
	os.Setenv("TEST_PLANORA_KEY", "pk-123")
	defer os.Unsetenv("TEST_PLANORA_KEY")

	cfg := DefaultConfig()
	cfg.Extraction.Provider.APIKey = "${TEST_PLANORA_KEY}"
	cfg.Extraction.Provider.TimeoutSeconds = 30

	ec := cfg.ToExtractorConfig()
	if ec.APIKey != "pk-123" {
		t.Errorf("expected resolved key, got %s", ec.APIKey)
	}
	if ec.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", ec.Timeout)
	}
	if ec.Limits.MaxDayDescription != 3000 {
		t.Errorf("expected day description cap in limits, got %d", ec.Limits.MaxDayDescription)
	}
}

func TestToHeuristicOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extraction.CountryAliases = map[string]string{"holanda": "Países Bajos"}

	opts := cfg.ToHeuristicOptions()
	if opts.CountryAliases["holanda"] != "Países Bajos" {
		t.Errorf("aliases not carried over: %v", opts.CountryAliases)
	}
	if opts.MaxDayDescription != 3000 {
		t.Errorf("expected day description cap 3000, got %d", opts.MaxDayDescription)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")

		configContent := `
server:
  port: "9090"
extraction:
  prompt_budget: 10000
`
		if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Server.Port != "9090" {
			t.Errorf("expected port 9090, got %s", cfg.Server.Port)
		}
		if cfg.Extraction.PromptBudget != 10000 {
			t.Errorf("expected prompt budget 10000, got %d", cfg.Extraction.PromptBudget)
		}
	})
}

func TestManager_OnChange_Multiple(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("server:\n  port: \"8080\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_WatchConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("server:\n  port: \"8080\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	var lastPort atomic.Value

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastPort.Store(cfg.Server.Port)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("server:\n  port: \"9999\"\n"), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	// Wait for the watcher to detect the change (fsnotify is async)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Error("callback was not invoked after config file change")
	}

	if v := lastPort.Load(); v != "9999" {
		t.Errorf("callback received wrong port: expected 9999, got %v", v)
	}
}

func TestWriteDefault(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written config: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Planora configuration") {
		t.Error("written config missing header comment")
	}
	if !strings.Contains(content, "prompt_budget: 28000") {
		t.Errorf("written config missing extraction defaults:\n%s", content)
	}
}
