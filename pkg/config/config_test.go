package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"app": {"name": "sahayak", "workspace": "/tmp/ws"},
		"providers": {
			"openai": {"api_key": "sk-test", "model": "gpt-4", "enabled": true}
		},
		"agent": {"max_attempts": 5}
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig(path)

	if cfg.App.Workspace != "/tmp/ws" {
		t.Errorf("workspace = %q", cfg.App.Workspace)
	}
	if cfg.Agent.MaxAttempts != 5 {
		t.Errorf("max_attempts = %d", cfg.Agent.MaxAttempts)
	}
	// Unset fields get defaults
	if cfg.Agent.ApprovalTimeoutSeconds != 300 {
		t.Errorf("approval timeout = %d", cfg.Agent.ApprovalTimeoutSeconds)
	}
	if cfg.Memory.Path != ":memory:" {
		t.Errorf("memory path = %q", cfg.Memory.Path)
	}

	name, p := cfg.GetDefaultProvider()
	if name != "openai" || p.APIKey != "sk-test" {
		t.Errorf("default provider = %s %+v", name, p)
	}
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := LoadConfig(filepath.Join(t.TempDir(), "no-such-config.json"))

	name, p := cfg.GetDefaultProvider()
	if name != "openai" {
		t.Fatalf("provider = %q", name)
	}
	if p.APIKey != "sk-env" || !p.Enabled {
		t.Errorf("provider config = %+v", p)
	}
	if cfg.Agent.MaxAttempts != 3 {
		t.Errorf("default max_attempts = %d", cfg.Agent.MaxAttempts)
	}
}

func TestGetDefaultProvider_PriorityOrder(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"anthropic": {APIKey: "a", Enabled: true},
			"gemini":    {APIKey: "g", Enabled: true},
		},
	}
	name, _ := cfg.GetDefaultProvider()
	if name != "gemini" {
		t.Errorf("expected gemini first, got %s", name)
	}
}
