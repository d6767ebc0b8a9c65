package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/kadrlabs/anthropic-go/anthropic"
)

var (
	tokensModel  string
	tokensSystem string
	tokensGlobs  []string
)

var countTokensCmd = &cobra.Command{
	Use:   "count-tokens [prompt]",
	Short: "Count the tokens a prompt would consume",
	Long: `Counts input tokens without creating a message. The prompt comes from
the argument or stdin; with --glob, each matching file is counted
instead and a per-file breakdown is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCountTokens,
}

func init() {
	countTokensCmd.Flags().StringVar(&tokensModel, "model", "", "model ID (defaults to configured model)")
	countTokensCmd.Flags().StringVar(&tokensSystem, "system", "", "system prompt to include in the count")
	countTokensCmd.Flags().StringArrayVar(&tokensGlobs, "glob", nil, "count file contents matching this pattern (repeatable, ** supported)")
	rootCmd.AddCommand(countTokensCmd)
}

func runCountTokens(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	model := firstNonEmpty(tokensModel, cfg.Model)
	ctx := context.Background()

	if len(tokensGlobs) > 0 {
		return countFiles(ctx, client, model)
	}

	prompt, err := readPrompt(args)
	if err != nil {
		return err
	}
	count, err := client.CountTokens(ctx, &anthropic.CountTokensParams{
		Model:    model,
		System:   firstNonEmpty(tokensSystem, cfg.System),
		Messages: []anthropic.InputMessage{anthropic.NewUserMessage(prompt)},
	})
	if err != nil {
		return fmt.Errorf("counting tokens: %w", err)
	}
	fmt.Printf("%d input tokens (%s)\n", count.InputTokens, model)
	return nil
}

// countFiles expands the --glob patterns and counts each file separately so
// the breakdown shows where the tokens go.
func countFiles(ctx context.Context, client *anthropic.Client, model string) error {
	seen := map[string]bool{}
	var files []string
	for _, pattern := range tokensGlobs {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("bad glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() || seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no files matched %v", tokensGlobs)
	}
	sort.Strings(files)

	total := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		count, err := client.CountTokens(ctx, &anthropic.CountTokensParams{
			Model:    model,
			Messages: []anthropic.InputMessage{anthropic.NewUserMessage(string(data))},
		})
		if err != nil {
			return fmt.Errorf("counting %s: %w", path, err)
		}
		fmt.Printf("%8d  %s\n", count.InputTokens, path)
		total += count.InputTokens
	}
	fmt.Printf("%8d  total (%d files, %s)\n", total, len(files), model)
	return nil
}
