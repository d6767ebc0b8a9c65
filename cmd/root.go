package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kadrlabs/anthropic-go/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "anthro",
	Short: "Command-line client for the Anthropic API",
	Long: `anthro talks to the Anthropic API from the terminal: send messages,
stream replies, count tokens, manage message batches, and administer
organization API keys.

The API key is read from ANTHROPIC_API_KEY (admin commands use
ANTHROPIC_ADMIN_KEY). Defaults like the model and max tokens live in
~/.anthro.yml; run "anthro configure" to set them up.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
