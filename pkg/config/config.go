package config

import (
	"encoding/json"
	"log"
	"os"
)

type Config struct {
	App       AppConfig                 `json:"app"`
	Providers map[string]ProviderConfig `json:"providers"`
	Agent     AgentConfig               `json:"agent"`
	Memory    MemoryConfig              `json:"memory"`
}

type AppConfig struct {
	Name      string `json:"name"`
	Workspace string `json:"workspace"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	Enabled bool   `json:"enabled"`
}

type AgentConfig struct {
	MaxAttempts            int `json:"max_attempts"`
	ApprovalTimeoutSeconds int `json:"approval_timeout_seconds"`
	CommandTimeoutSeconds  int `json:"command_timeout_seconds"`
}

type MemoryConfig struct {
	Path string `json:"path"`
}

// LoadConfig reads the config file at path. A missing file is not fatal:
// provider settings are then probed from the environment so the binary
// works with just an API key exported.
func LoadConfig(path string) *Config {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fromEnv()
		}
		log.Fatalf("failed to open config file: %v", err)
	}
	defer file.Close()

	var cfg Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config file: %v", err)
	}
	cfg.applyDefaults()

	return &cfg
}

// fromEnv builds a config from environment variables alone, probing
// providers in a fixed order and taking the first key found.
func fromEnv() *Config {
	cfg := &Config{
		App:       AppConfig{Name: "sahayak", Workspace: "."},
		Providers: map[string]ProviderConfig{},
	}

	probes := []struct {
		name   string
		envKey string
		model  string
	}{
		{"gemini", "GEMINI_API_KEY", "gemini-1.5-pro-latest"},
		{"openai", "OPENAI_API_KEY", "gpt-4"},
		{"anthropic", "ANTHROPIC_API_KEY", "claude-3-opus-20240229"},
	}
	for _, p := range probes {
		if key := os.Getenv(p.envKey); key != "" {
			cfg.Providers[p.name] = ProviderConfig{
				APIKey:  key,
				Model:   p.model,
				Enabled: true,
			}
			break
		}
	}

	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.App.Workspace == "" {
		c.App.Workspace = "."
	}
	if c.Agent.MaxAttempts <= 0 {
		c.Agent.MaxAttempts = 3
	}
	if c.Agent.ApprovalTimeoutSeconds <= 0 {
		c.Agent.ApprovalTimeoutSeconds = 300
	}
	if c.Agent.CommandTimeoutSeconds <= 0 {
		c.Agent.CommandTimeoutSeconds = 120
	}
	if c.Memory.Path == "" {
		// Nothing outlives the process unless the user points this at a file.
		c.Memory.Path = ":memory:"
	}
}

// GetDefaultProvider returns the first enabled provider in priority order.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	order := []string{"gemini", "openai", "openrouter", "anthropic"}
	for _, name := range order {
		if p, ok := c.Providers[name]; ok && p.Enabled {
			return name, p
		}
	}
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}
