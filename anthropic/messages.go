package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content block types.
const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeThinking = "thinking"
)

// ContentBlock is one element of a message's content array.
type ContentBlock struct {
	Type string `json:"type"`
	// Text carries the payload for text blocks.
	Text string `json:"text,omitempty"`
	// Thinking carries the payload for thinking blocks in responses.
	Thinking string `json:"thinking,omitempty"`
	// Signature accompanies thinking blocks in responses.
	Signature string `json:"signature,omitempty"`
	// Source carries the payload for image blocks.
	Source *ImageSource `json:"source,omitempty"`
}

// ImageSource is the inline payload of an image content block.
type ImageSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Content is a message body. The API accepts and returns either a bare
// JSON string or an array of content blocks; both decode into the block
// form here.
type Content []ContentBlock

// UnmarshalJSON accepts both the shorthand string form and the block array.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding string content: %w", err)
		}
		*c = Content{{Type: ContentTypeText, Text: s}}
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("decoding content blocks: %w", err)
	}
	*c = blocks
	return nil
}

// Text concatenates the text blocks of the content.
func (c Content) Text() string {
	var b strings.Builder
	for _, block := range c {
		if block.Type == ContentTypeText {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// InputMessage is one turn of the conversation sent to the API.
type InputMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// NewUserMessage builds a user turn with a single text block.
func NewUserMessage(text string) InputMessage {
	return InputMessage{Role: RoleUser, Content: Content{{Type: ContentTypeText, Text: text}}}
}

// NewAssistantMessage builds an assistant turn with a single text block.
func NewAssistantMessage(text string) InputMessage {
	return InputMessage{Role: RoleAssistant, Content: Content{{Type: ContentTypeText, Text: text}}}
}

// Thinking enables extended thinking for a request.
type Thinking struct {
	Type         string `json:"type"` // "enabled" or "disabled"
	BudgetTokens int    `json:"budget_tokens,omitempty"`
}

// ThinkingEnabled returns a Thinking config with the given token budget.
func ThinkingEnabled(budgetTokens int) *Thinking {
	return &Thinking{Type: "enabled", BudgetTokens: budgetTokens}
}

// Metadata describes the request for abuse detection purposes.
type Metadata struct {
	UserID string `json:"user_id,omitempty"`
}

// CreateMessageParams is the body of POST /messages.
type CreateMessageParams struct {
	Model         string         `json:"model"`
	Messages      []InputMessage `json:"messages"`
	MaxTokens     int            `json:"max_tokens"`
	System        string         `json:"system,omitempty"`
	Metadata      *Metadata      `json:"metadata,omitempty"`
	StopSequences []string       `json:"stop_sequences,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	TopK          *int           `json:"top_k,omitempty"`
	TopP          *float64       `json:"top_p,omitempty"`
	Thinking      *Thinking      `json:"thinking,omitempty"`
}

func (p *CreateMessageParams) validate() error {
	if p.Model == "" {
		return ErrMissingModel
	}
	if len(p.Messages) == 0 {
		return ErrNoMessages
	}
	if p.MaxTokens <= 0 {
		return ErrMissingMaxTokens
	}
	return nil
}

// Usage reports billed token counts for a request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Message is the API's message object, returned by CreateMessage and
// carried inside batch results and stream events.
type Message struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"` // always "message"
	Role         Role      `json:"role"`
	Model        string    `json:"model"`
	Content      Content   `json:"content"`
	StopReason   string    `json:"stop_reason,omitempty"`
	StopSequence string    `json:"stop_sequence,omitempty"`
	Usage        Usage     `json:"usage"`
}

// Text concatenates the text blocks of the response content.
func (m *Message) Text() string { return m.Content.Text() }

// CreateMessage sends a conversation to the model and returns its reply.
func (c *Client) CreateMessage(ctx context.Context, params *CreateMessageParams) (*Message, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.Stream {
		return nil, fmt.Errorf("anthropic: use CreateMessageStream for streaming requests")
	}
	var msg Message
	if err := c.do(ctx, "POST", "/messages", nil, params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CountTokensParams is the body of POST /messages/count_tokens.
type CountTokensParams struct {
	Model    string         `json:"model"`
	Messages []InputMessage `json:"messages"`
	System   string         `json:"system,omitempty"`
	Thinking *Thinking      `json:"thinking,omitempty"`
}

// TokenCount is the count_tokens response.
type TokenCount struct {
	InputTokens int `json:"input_tokens"`
}

// CountTokens returns how many input tokens the given request would consume,
// without invoking the model.
func (c *Client) CountTokens(ctx context.Context, params *CountTokensParams) (*TokenCount, error) {
	if params.Model == "" {
		return nil, ErrMissingModel
	}
	if len(params.Messages) == 0 {
		return nil, ErrNoMessages
	}
	var count TokenCount
	if err := c.do(ctx, "POST", "/messages/count_tokens", nil, params, &count); err != nil {
		return nil, err
	}
	return &count, nil
}
