package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kadrlabs/anthropic-go/anthropic"
)

var (
	msgModel     string
	msgMaxTokens int
	msgSystem    string
	msgStream    bool
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Send messages to a model",
}

var messagesCreateCmd = &cobra.Command{
	Use:   "create [prompt]",
	Short: "Send a single prompt and print the reply",
	Long: `Sends one user message and prints the model's reply. The prompt is
read from the argument, or from stdin when omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMessagesCreate,
}

func init() {
	messagesCreateCmd.Flags().StringVar(&msgModel, "model", "", "model ID (defaults to configured model)")
	messagesCreateCmd.Flags().IntVar(&msgMaxTokens, "max-tokens", 0, "max tokens to generate (defaults to configured value)")
	messagesCreateCmd.Flags().StringVar(&msgSystem, "system", "", "system prompt")
	messagesCreateCmd.Flags().BoolVar(&msgStream, "stream", false, "stream the reply as it is generated")
	messagesCmd.AddCommand(messagesCreateCmd)
	rootCmd.AddCommand(messagesCmd)
}

func runMessagesCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	prompt, err := readPrompt(args)
	if err != nil {
		return err
	}

	params := &anthropic.CreateMessageParams{
		Model:     firstNonEmpty(msgModel, cfg.Model),
		MaxTokens: firstPositive(msgMaxTokens, cfg.MaxTokens),
		System:    firstNonEmpty(msgSystem, cfg.System),
		Messages:  []anthropic.InputMessage{anthropic.NewUserMessage(prompt)},
	}
	ctx := context.Background()

	if msgStream {
		stream, err := client.CreateMessageStream(ctx, params)
		if err != nil {
			return fmt.Errorf("creating message stream: %w", err)
		}
		defer stream.Close()
		msg, err := printStream(stream)
		if err != nil {
			return err
		}
		reportUsage(msg)
		return nil
	}

	msg, err := client.CreateMessage(ctx, params)
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	fmt.Println(msg.Text())
	reportUsage(msg)
	return nil
}

// printStream writes text deltas as they arrive and assembles the final
// message block by block, so non-text content survives accumulation.
func printStream(stream *anthropic.MessageStream) (*anthropic.Message, error) {
	var msg *anthropic.Message
	for {
		event, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading stream: %w", err)
		}
		if event.Type == anthropic.EventMessageStart {
			if event.Message != nil {
				m := *event.Message
				msg = &m
			}
			continue
		}
		if event.Type == anthropic.EventContentBlockDelta && event.Delta != nil {
			fmt.Print(event.Delta.Text)
		}
		if msg != nil {
			msg.ApplyEvent(event)
		}
	}
	fmt.Println()
	return msg, nil
}

func reportUsage(msg *anthropic.Message) {
	if verbose && msg != nil {
		fmt.Fprintf(os.Stderr, "[%s] %d in / %d out tokens, stop: %s\n",
			msg.Model, msg.Usage.InputTokens, msg.Usage.OutputTokens, msg.StopReason)
	}
}

func readPrompt(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given (pass as an argument or on stdin)")
	}
	return prompt, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
