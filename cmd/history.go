package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent chat exchanges and usage totals",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of exchanges to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	exchanges, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}
	for _, ex := range exchanges {
		fmt.Printf("%s  %-36s %5d in / %5d out  $%.4f\n  %s\n",
			ex.CreatedAt.Format("2006-01-02 15:04"), ex.Model,
			ex.InputTokens, ex.OutputTokens, ex.CostUSD, oneLine(ex.Prompt, 72))
	}

	totals, err := store.Summary()
	if err != nil {
		return err
	}
	fmt.Printf("\n%d exchanges, %d input / %d output tokens, $%.4f estimated\n",
		totals.Exchanges, totals.InputTokens, totals.OutputTokens, totals.CostUSD)
	return nil
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
