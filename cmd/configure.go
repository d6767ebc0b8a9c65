package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kadrlabs/anthropic-go/anthropic"
	"github.com/kadrlabs/anthropic-go/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactively set up the config file",
	Long: `Walks through the default model, max tokens, and system prompt, then
writes the config file. When ANTHROPIC_API_KEY is set, the model list
is fetched live; otherwise a built-in list is offered.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	var models []string
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		models = liveModels()
	}
	_, err := config.RunWizard(cfgFile, models)
	return err
}

// liveModels fetches the current model IDs. Failures fall back to the
// wizard's built-in list rather than aborting configuration.
func liveModels() []string {
	client, err := anthropic.NewClientFromEnv()
	if err != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	infos, err := client.AllModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: fetching model list: %v\n", err)
		return nil
	}
	models := make([]string, 0, len(infos))
	for _, m := range infos {
		models = append(models, m.ID)
	}
	return models
}
