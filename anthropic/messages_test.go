package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kadrlabs/anthropic-go/anthropic"
)

func TestCreateMessage(t *testing.T) {
	_, client := newTestClient(t)

	msg, err := client.CreateMessage(context.Background(), basicParams())
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.Role != anthropic.RoleAssistant {
		t.Errorf("role = %q, want assistant", msg.Role)
	}
	if msg.Text() != "Hello from the fake API" {
		t.Errorf("Text() = %q", msg.Text())
	}
	if msg.StopReason != "end_turn" {
		t.Errorf("stop_reason = %q", msg.StopReason)
	}
	if msg.Usage.InputTokens != 12 || msg.Usage.OutputTokens != 6 {
		t.Errorf("usage = %+v", msg.Usage)
	}
}

func TestCreateMessageSerializesOptionals(t *testing.T) {
	fake, client := newTestClient(t)

	temp := 0.7
	topP := 0.9
	params := basicParams()
	params.System = "You are terse."
	params.Temperature = &temp
	params.TopP = &topP
	params.StopSequences = []string{"END"}
	params.Thinking = anthropic.ThinkingEnabled(1024)

	if _, err := client.CreateMessage(context.Background(), params); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	var sent map[string]any
	if err := json.Unmarshal(fake.LastBody, &sent); err != nil {
		t.Fatalf("decoding recorded body: %v", err)
	}
	if sent["system"] != "You are terse." {
		t.Errorf("system = %v", sent["system"])
	}
	if sent["temperature"] != 0.7 {
		t.Errorf("temperature = %v", sent["temperature"])
	}
	thinking, _ := sent["thinking"].(map[string]any)
	if thinking["type"] != "enabled" || thinking["budget_tokens"] != float64(1024) {
		t.Errorf("thinking = %v", sent["thinking"])
	}
	// Unset optionals must be omitted entirely.
	for _, absent := range []string{"top_k", "metadata", "stream"} {
		if _, ok := sent[absent]; ok {
			t.Errorf("field %q should be omitted", absent)
		}
	}
}

func TestCreateMessageValidation(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		params  *anthropic.CreateMessageParams
		wantErr error
	}{
		{"missing model", &anthropic.CreateMessageParams{MaxTokens: 10, Messages: []anthropic.InputMessage{anthropic.NewUserMessage("hi")}}, anthropic.ErrMissingModel},
		{"no messages", &anthropic.CreateMessageParams{Model: "m", MaxTokens: 10}, anthropic.ErrNoMessages},
		{"no max tokens", &anthropic.CreateMessageParams{Model: "m", Messages: []anthropic.InputMessage{anthropic.NewUserMessage("hi")}}, anthropic.ErrMissingMaxTokens},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.CreateMessage(ctx, tt.params); !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCountTokens(t *testing.T) {
	_, client := newTestClient(t)

	count, err := client.CountTokens(context.Background(), &anthropic.CountTokensParams{
		Model:    "claude-sonnet-4-5-20250929",
		Messages: []anthropic.InputMessage{anthropic.NewUserMessage("Hello, Claude")},
	})
	if err != nil {
		t.Fatalf("CountTokens: %v", err)
	}
	if count.InputTokens <= 0 {
		t.Errorf("InputTokens = %d, want > 0", count.InputTokens)
	}
}

func TestContentUnmarshalString(t *testing.T) {
	var c anthropic.Content
	if err := json.Unmarshal([]byte(`"plain text"`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(c) != 1 || c[0].Type != anthropic.ContentTypeText || c[0].Text != "plain text" {
		t.Errorf("content = %+v", c)
	}
}

func TestContentUnmarshalBlocks(t *testing.T) {
	raw := `[{"type":"text","text":"a"},{"type":"thinking","thinking":"hmm"},{"type":"text","text":"b"}]`
	var c anthropic.Content
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(c) != 3 {
		t.Fatalf("len = %d, want 3", len(c))
	}
	if c.Text() != "ab" {
		t.Errorf("Text() = %q, want %q (thinking blocks excluded)", c.Text(), "ab")
	}
}

func TestContentUnmarshalMalformed(t *testing.T) {
	var c anthropic.Content
	if err := json.Unmarshal([]byte(`42`), &c); err == nil {
		t.Error("expected error for non-string, non-array content")
	}
}
