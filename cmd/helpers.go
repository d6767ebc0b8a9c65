package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kadrlabs/anthropic-go/anthropic"
	"github.com/kadrlabs/anthropic-go/internal/config"
	"github.com/kadrlabs/anthropic-go/internal/history"
)

// loadConfig loads and validates the config, providing a friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `anthro configure` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// clientOptions converts config settings into client options.
func clientOptions(cfg *config.Config) []anthropic.Option {
	var opts []anthropic.Option
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, anthropic.WithAPIVersion(cfg.APIVersion))
	}
	if cfg.RequestsPerMinute > 0 {
		opts = append(opts, anthropic.WithRequestsPerMinute(cfg.RequestsPerMinute))
	}
	opts = append(opts, anthropic.WithMaxRetries(cfg.MaxRetries))
	return opts
}

// newClient builds an API client from ANTHROPIC_API_KEY and the config.
func newClient(cfg *config.Config) (*anthropic.Client, error) {
	return anthropic.NewClientFromEnv(clientOptions(cfg)...)
}

// newAdminClient builds a client using the organization admin key.
func newAdminClient(cfg *config.Config) (*anthropic.Client, error) {
	adminKey := os.Getenv("ANTHROPIC_ADMIN_KEY")
	if adminKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_ADMIN_KEY environment variable is required for admin commands")
	}
	return anthropic.NewClient(adminKey, clientOptions(cfg)...), nil
}

// openHistory opens the exchange ledger at the configured path, defaulting
// to ~/.anthro/history.db.
func openHistory(cfg *config.Config) (*history.Store, error) {
	path := cfg.HistoryPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		path = filepath.Join(home, ".anthro", "history.db")
	}
	return history.Open(path)
}
