package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kadrlabs/anthropic-go/anthropic"
)

var (
	batchesLimit    int
	batchesAfterID  string
	batchesBeforeID string
	batchesInterval time.Duration
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "Manage message batches",
	Long: `Message batches process up to 100,000 requests asynchronously at a
discount. Submit a JSONL file of requests, poll until the batch ends,
then fetch the per-request results.`,
}

var batchesCreateCmd = &cobra.Command{
	Use:   "create <requests.jsonl>",
	Short: "Submit a batch from a JSONL file of requests",
	Long: `Each line of the file is one request object:

  {"custom_id": "req-1", "params": {"model": "...", "max_tokens": 256, "messages": [...]}}

custom_id is optional; missing IDs are filled with generated UUIDs.
Model and max_tokens fall back to the configured defaults when omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatchesCreate,
}

var batchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List batches in the workspace",
	RunE:  runBatchesList,
}

var batchesGetCmd = &cobra.Command{
	Use:   "get <batch-id>",
	Short: "Show one batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchesGet,
}

var batchesResultsCmd = &cobra.Command{
	Use:   "results <batch-id>",
	Short: "Stream the results of an ended batch as JSONL",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchesResults,
}

var batchesCancelCmd = &cobra.Command{
	Use:   "cancel <batch-id>",
	Short: "Cancel an in-progress batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchesCancel,
}

var batchesDeleteCmd = &cobra.Command{
	Use:   "delete <batch-id>",
	Short: "Delete an ended batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchesDelete,
}

var batchesWaitCmd = &cobra.Command{
	Use:   "wait <batch-id>",
	Short: "Poll a batch until it ends, with a progress bar",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchesWait,
}

func init() {
	batchesListCmd.Flags().IntVar(&batchesLimit, "limit", 0, "page size (1-1000)")
	batchesListCmd.Flags().StringVar(&batchesAfterID, "after-id", "", "pagination cursor")
	batchesListCmd.Flags().StringVar(&batchesBeforeID, "before-id", "", "reverse pagination cursor")
	batchesWaitCmd.Flags().DurationVar(&batchesInterval, "interval", 5*time.Second, "poll interval")

	batchesCmd.AddCommand(batchesCreateCmd, batchesListCmd, batchesGetCmd,
		batchesResultsCmd, batchesCancelCmd, batchesDeleteCmd, batchesWaitCmd)
	rootCmd.AddCommand(batchesCmd)
}

func runBatchesCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening requests file: %w", err)
	}
	defer f.Close()

	var requests []anthropic.BatchRequest
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var req anthropic.BatchRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("%s:%d: %w", args[0], line, err)
		}
		if req.Params.Model == "" {
			req.Params.Model = cfg.Model
		}
		if req.Params.MaxTokens == 0 {
			req.Params.MaxTokens = cfg.MaxTokens
		}
		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	batch, err := client.CreateMessageBatch(context.Background(), &anthropic.CreateBatchParams{
		Requests: requests,
	})
	if err != nil {
		return fmt.Errorf("creating batch: %w", err)
	}
	fmt.Printf("Created %s with %d requests (%s)\n",
		batch.ID, batch.RequestCounts.Total(), batch.ProcessingStatus)
	fmt.Printf("Expires %s\n", batch.ExpiresAt.Format(time.RFC3339))
	return nil
}

func runBatchesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	page, err := client.ListMessageBatches(context.Background(), &anthropic.ListBatchesParams{
		Limit:    batchesLimit,
		AfterID:  batchesAfterID,
		BeforeID: batchesBeforeID,
	})
	if err != nil {
		return fmt.Errorf("listing batches: %w", err)
	}

	for _, b := range page.Data {
		fmt.Printf("%-34s %-12s %5d requests  created %s\n",
			b.ID, b.ProcessingStatus, b.RequestCounts.Total(),
			b.CreatedAt.Format("2006-01-02 15:04"))
	}
	if page.HasMore {
		fmt.Printf("\nMore available: rerun with --after-id %s\n", page.LastID)
	}
	return nil
}

func runBatchesGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	batch, err := client.GetMessageBatch(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("getting batch: %w", err)
	}
	printBatch(batch)
	return nil
}

func runBatchesResults(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	stream, err := client.MessageBatchResults(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("fetching results: %w", err)
	}
	defer stream.Close()

	enc := json.NewEncoder(os.Stdout)
	for {
		result, err := stream.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
	}
}

func runBatchesCancel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	batch, err := client.CancelMessageBatch(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("canceling batch: %w", err)
	}
	fmt.Printf("%s is now %s\n", batch.ID, batch.ProcessingStatus)
	return nil
}

func runBatchesDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	deleted, err := client.DeleteMessageBatch(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}
	fmt.Printf("Deleted %s\n", deleted.ID)
	return nil
}

func runBatchesWait(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	batch, err := client.WaitForBatch(context.Background(), args[0], batchesInterval,
		func(b *anthropic.MessageBatch) {
			if bar == nil {
				bar = progressbar.NewOptions(b.RequestCounts.Total(),
					progressbar.OptionSetDescription("Processing batch"),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(b.RequestCounts.Total() - b.RequestCounts.Processing)
		})
	if err != nil {
		return fmt.Errorf("waiting for batch: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	printBatch(batch)
	return nil
}

func printBatch(b *anthropic.MessageBatch) {
	fmt.Printf("ID:      %s\n", b.ID)
	fmt.Printf("Status:  %s\n", b.ProcessingStatus)
	fmt.Printf("Created: %s\n", b.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Expires: %s\n", b.ExpiresAt.Format(time.RFC3339))
	if b.EndedAt != nil {
		fmt.Printf("Ended:   %s\n", b.EndedAt.Format(time.RFC3339))
	}
	c := b.RequestCounts
	fmt.Printf("Counts:  %d processing, %d succeeded, %d errored, %d canceled, %d expired\n",
		c.Processing, c.Succeeded, c.Errored, c.Canceled, c.Expired)
}
