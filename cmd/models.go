package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kadrlabs/anthropic-go/anthropic"
)

var (
	modelsLimit   int
	modelsAfterID string
	modelsAll     bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List and inspect available models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available models, newest first",
	RunE:  runModelsList,
}

var modelsGetCmd = &cobra.Command{
	Use:   "get <model-id>",
	Short: "Show one model by ID or alias",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsGet,
}

func init() {
	modelsListCmd.Flags().IntVar(&modelsLimit, "limit", 0, "page size (1-1000)")
	modelsListCmd.Flags().StringVar(&modelsAfterID, "after-id", "", "pagination cursor")
	modelsListCmd.Flags().BoolVar(&modelsAll, "all", false, "follow pagination to the end")
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsGetCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModelsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	var models []anthropic.ModelInfo
	hasMore := false
	if modelsAll {
		models, err = client.AllModels(ctx)
		if err != nil {
			return fmt.Errorf("listing models: %w", err)
		}
	} else {
		page, err := client.ListModels(ctx, &anthropic.ListModelsParams{
			Limit:   modelsLimit,
			AfterID: modelsAfterID,
		})
		if err != nil {
			return fmt.Errorf("listing models: %w", err)
		}
		models = page.Data
		hasMore = page.HasMore
	}

	for _, m := range models {
		fmt.Printf("%-40s %-24s %s\n", m.ID, m.DisplayName, m.CreatedAt.Format("2006-01-02"))
	}
	if hasMore && len(models) > 0 {
		fmt.Printf("\nMore available: rerun with --after-id %s\n", models[len(models)-1].ID)
	}
	return nil
}

func runModelsGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	model, err := client.GetModel(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("getting model: %w", err)
	}

	fmt.Printf("ID:           %s\n", model.ID)
	fmt.Printf("Display name: %s\n", model.DisplayName)
	fmt.Printf("Released:     %s\n", model.CreatedAt.Format("2006-01-02"))
	return nil
}
