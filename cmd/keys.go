package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kadrlabs/anthropic-go/anthropic"
)

var (
	keysLimit       int
	keysAfterID     string
	keysStatus      string
	keysWorkspaceID string
	keysCreatedBy   string
	keysNewName     string
	keysNewStatus   string
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Administer organization API keys",
	Long: `Lists, inspects, and updates the organization's API keys. These
commands need an organization admin key in ANTHROPIC_ADMIN_KEY; a
regular workspace key is not enough.`,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE:  runKeysList,
}

var keysGetCmd = &cobra.Command{
	Use:   "get <key-id>",
	Short: "Show one API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysGet,
}

var keysUpdateCmd = &cobra.Command{
	Use:   "update <key-id>",
	Short: "Rename an API key or change its status",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysUpdate,
}

func init() {
	keysListCmd.Flags().IntVar(&keysLimit, "limit", 0, "page size (1-1000)")
	keysListCmd.Flags().StringVar(&keysAfterID, "after-id", "", "pagination cursor")
	keysListCmd.Flags().StringVar(&keysStatus, "status", "", "filter by status (active, inactive, archived)")
	keysListCmd.Flags().StringVar(&keysWorkspaceID, "workspace-id", "", "filter by workspace")
	keysListCmd.Flags().StringVar(&keysCreatedBy, "created-by", "", "filter by creating user ID")

	keysUpdateCmd.Flags().StringVar(&keysNewName, "name", "", "new key name")
	keysUpdateCmd.Flags().StringVar(&keysNewStatus, "status", "", "new status (active, inactive, archived)")

	keysCmd.AddCommand(keysListCmd, keysGetCmd, keysUpdateCmd)
	rootCmd.AddCommand(keysCmd)
}

func runKeysList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newAdminClient(cfg)
	if err != nil {
		return err
	}

	page, err := client.ListAPIKeys(context.Background(), &anthropic.ListAPIKeysParams{
		Limit:           keysLimit,
		AfterID:         keysAfterID,
		Status:          keysStatus,
		WorkspaceID:     keysWorkspaceID,
		CreatedByUserID: keysCreatedBy,
	})
	if err != nil {
		return fmt.Errorf("listing API keys: %w", err)
	}

	for _, k := range page.Data {
		fmt.Printf("%-32s %-24s %-9s %s\n", k.ID, k.Name, k.Status, k.PartialKeyHint)
	}
	if page.HasMore {
		fmt.Printf("\nMore available: rerun with --after-id %s\n", page.LastID)
	}
	return nil
}

func runKeysGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newAdminClient(cfg)
	if err != nil {
		return err
	}

	key, err := client.GetAPIKey(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("getting API key: %w", err)
	}
	printAPIKey(key)
	return nil
}

func runKeysUpdate(cmd *cobra.Command, args []string) error {
	if keysNewName == "" && keysNewStatus == "" {
		return fmt.Errorf("nothing to update: pass --name and/or --status")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newAdminClient(cfg)
	if err != nil {
		return err
	}

	params := &anthropic.UpdateAPIKeyParams{}
	if keysNewName != "" {
		params.Name = &keysNewName
	}
	if keysNewStatus != "" {
		params.Status = &keysNewStatus
	}

	key, err := client.UpdateAPIKey(context.Background(), args[0], params)
	if err != nil {
		return fmt.Errorf("updating API key: %w", err)
	}
	printAPIKey(key)
	return nil
}

func printAPIKey(k *anthropic.APIKey) {
	fmt.Printf("ID:        %s\n", k.ID)
	fmt.Printf("Name:      %s\n", k.Name)
	fmt.Printf("Status:    %s\n", k.Status)
	fmt.Printf("Hint:      %s\n", k.PartialKeyHint)
	if k.WorkspaceID != "" {
		fmt.Printf("Workspace: %s\n", k.WorkspaceID)
	}
	fmt.Printf("Created:   %s by %s\n", k.CreatedAt.Format("2006-01-02"), k.CreatedBy.ID)
}
