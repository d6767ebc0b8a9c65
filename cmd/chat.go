package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/kadrlabs/anthropic-go/anthropic"
	"github.com/kadrlabs/anthropic-go/internal/history"
	"github.com/kadrlabs/anthropic-go/internal/transcript"
)

var chatExport string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session with streaming replies",
	Long: `Starts a multi-turn chat. Replies stream as they are generated, every
exchange is recorded to the local history ledger, and the whole session
can be exported as an HTML transcript with --export. End the session
with ctrl-d or /quit.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatExport, "export", "", "write an HTML transcript to this file on exit")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Printf("Chatting with %s. ctrl-d or /quit to end.\n\n", cfg.Model)

	var conversation []anthropic.InputMessage
	var turns []transcript.Turn
	ctx := context.Background()

	for {
		input := promptui.Prompt{Label: "you"}
		line, err := input.Run()
		if err != nil {
			// ctrl-d / ctrl-c end the session.
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		conversation = append(conversation, anthropic.NewUserMessage(line))

		stream, err := client.CreateMessageStream(ctx, &anthropic.CreateMessageParams{
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			System:    cfg.System,
			Messages:  conversation,
		})
		if err != nil {
			return fmt.Errorf("creating message stream: %w", err)
		}
		msg, err := printStream(stream)
		stream.Close()
		if err != nil {
			return err
		}
		if msg == nil {
			return fmt.Errorf("stream ended without a message")
		}

		reply := msg.Text()
		conversation = append(conversation, anthropic.NewAssistantMessage(reply))
		turns = append(turns,
			transcript.Turn{Role: "user", Text: line},
			transcript.Turn{Role: "assistant", Text: reply},
		)

		if err := store.Record(&history.Exchange{
			Model:        msg.Model,
			Prompt:       line,
			Reply:        reply,
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
			StopReason:   msg.StopReason,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "warning: recording exchange: %v\n", err)
		}
	}

	if chatExport != "" && len(turns) > 0 {
		if err := exportTranscript(chatExport, cfg.Model, turns); err != nil {
			return err
		}
		fmt.Printf("Transcript written to %s\n", chatExport)
	}
	return nil
}

func exportTranscript(path, model string, turns []transcript.Turn) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating transcript file: %w", err)
	}
	defer f.Close()

	title := fmt.Sprintf("Chat with %s, %s", model, time.Now().Format("2006-01-02 15:04"))
	if err := transcript.Export(f, title, turns); err != nil {
		return err
	}
	return nil
}
