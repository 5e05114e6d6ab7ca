package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	agentbox "agentbox-sdk"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := initLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: debug log unavailable: %v\n", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if cfg.BaseURL == "" || cfg.AnthropicAPIKey == "" {
		if err := runSetup(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	client, err := agentbox.NewClient(cfg.BaseURL, agentbox.WithAPISecret(cfg.APISecret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	debugLog.Info().Str("base_url", client.BaseURL()).Msg("client configured")

	p := tea.NewProgram(newChatModel(client, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runSetup collects the missing configuration interactively and persists it
// for the next run.
func runSetup(cfg *Config) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Provider base URL").
				Description("e.g. https://acme--agent-sandbox.modal.run").
				Value(&cfg.BaseURL),
			huh.NewInput().
				Title("Provider API secret (optional)").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.APISecret),
			huh.NewInput().
				Title("Anthropic API key").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.AnthropicAPIKey),
			huh.NewInput().
				Title("GitHub repository to clone (owner/repo, optional)").
				Value(&cfg.Repo),
			huh.NewInput().
				Title("GitHub token (optional)").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.GitHubToken),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	return cfg.Save()
}
