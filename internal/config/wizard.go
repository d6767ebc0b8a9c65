package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// wizardModels are offered by the interactive wizard. The configure
// command swaps in the live model list when an API key is available.
var wizardModels = []string{
	"claude-sonnet-4-5-20250929",
	"claude-haiku-4-5-20251001",
	"claude-opus-4-6",
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string, models []string) (*Config, error) {
	fmt.Println("Welcome to anthro! Let's configure your defaults.")
	fmt.Println()

	if len(models) == 0 {
		models = wizardModels
	}
	cfg := DefaultConfig()

	modelPrompt := promptui.Select{
		Label: "Default model",
		Items: models,
	}
	_, model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}
	cfg.Model = model

	maxTokensPrompt := promptui.Prompt{
		Label:   "Default max tokens",
		Default: strconv.Itoa(cfg.MaxTokens),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("enter a positive integer")
			}
			return nil
		},
	}
	maxTokensStr, err := maxTokensPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("max tokens: %w", err)
	}
	cfg.MaxTokens, _ = strconv.Atoi(maxTokensStr)

	systemPrompt := promptui.Prompt{
		Label:   "Default system prompt (blank for none)",
		Default: "",
	}
	system, err := systemPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("system prompt: %w", err)
	}
	cfg.System = system

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Printf("\nSaved configuration to %s\n", path)
	return cfg, nil
}
