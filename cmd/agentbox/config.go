// Package main is an interactive chat client for agent sandboxes. It wires
// the SDK's session facade to a terminal UI: messages stream into a
// conversation view, and /files, /read, /status map onto the session's
// inspection operations.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration, merged from ~/.agentbox/config.yml and
// the environment. Environment variables win.
type Config struct {
	BaseURL         string `yaml:"base_url"`
	APISecret       string `yaml:"api_secret"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GitHubToken     string `yaml:"github_token"`
	Repo            string `yaml:"repo"`
}

func configDir() string {
	return filepath.Join(os.Getenv("HOME"), ".agentbox")
}

// LoadConfig reads the optional config file, then overlays .env and
// environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(filepath.Join(configDir(), "config.yml"))
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config.yml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	godotenv.Load()

	if v := os.Getenv("AGENTBOX_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("AGENTBOX_API_SECRET"); v != "" {
		cfg.APISecret = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHubToken = v
	}
	if v := os.Getenv("AGENTBOX_REPO"); v != "" {
		cfg.Repo = v
	}

	return cfg, nil
}

// Save writes the config back to ~/.agentbox/config.yml with restrictive
// permissions, since it may hold tokens.
func (c *Config) Save() error {
	if err := os.MkdirAll(configDir(), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir(), "config.yml"), data, 0o600)
}
