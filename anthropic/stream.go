package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Stream event types emitted by POST /messages with stream=true.
const (
	EventMessageStart      = "message_start"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
	EventPing              = "ping"
	EventError             = "error"
)

// Delta is the incremental payload of content_block_delta and
// message_delta events.
type Delta struct {
	Type         string `json:"type,omitempty"` // text_delta, thinking_delta, signature_delta
	Text         string `json:"text,omitempty"`
	Thinking     string `json:"thinking,omitempty"`
	Signature    string `json:"signature,omitempty"`
	StopReason   string `json:"stop_reason,omitempty"`
	StopSequence string `json:"stop_sequence,omitempty"`
}

// StreamEvent is one server-sent event from a streaming message request.
// Which fields are populated depends on Type.
type StreamEvent struct {
	Type         string        `json:"type"`
	Message      *Message      `json:"message,omitempty"`       // message_start
	Index        int           `json:"index,omitempty"`         // content_block_* events
	ContentBlock *ContentBlock `json:"content_block,omitempty"` // content_block_start
	Delta        *Delta        `json:"delta,omitempty"`         // *_delta events
	Usage        *Usage        `json:"usage,omitempty"`         // message_delta
	Error        *APIError     `json:"error,omitempty"`         // error
}

// MessageStream reads server-sent events from a streaming message request.
// It is not safe for concurrent use; call Close when done.
type MessageStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	err     error
	done    bool
}

// CreateMessageStream sends a conversation to the model and streams the
// reply as it is generated. The stream parameter is forced on.
func (c *Client) CreateMessageStream(ctx context.Context, params *CreateMessageParams) (*MessageStream, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	streamed := *params
	streamed.Stream = true

	resp, err := c.stream(ctx, "POST", "/messages", &streamed, "text/event-stream")
	if err != nil {
		return nil, err
	}
	return newMessageStream(resp.Body), nil
}

func newMessageStream(body io.ReadCloser) *MessageStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &MessageStream{body: body, scanner: scanner}
}

// Next returns the next event. It returns io.EOF after message_stop or
// when the server closes the stream.
func (s *MessageStream) Next() (*StreamEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.done {
		return nil, io.EOF
	}

	// SSE framing: "event:" lines are redundant with the JSON type field,
	// ":" lines are comments, consecutive "data:" lines form one payload
	// joined by newlines, and a blank line terminates the event.
	var data []string
	for s.scanner.Scan() {
		line := strings.TrimSuffix(s.scanner.Text(), "\r")
		if line != "" {
			if d, ok := strings.CutPrefix(line, "data:"); ok {
				data = append(data, strings.TrimPrefix(d, " "))
			}
			continue
		}
		if len(data) == 0 {
			continue
		}
		event, err := s.decode(strings.Join(data, "\n"))
		data = data[:0]
		if event == nil && err == nil {
			continue
		}
		return event, err
	}

	// Flush an event the server did not terminate with a blank line.
	if len(data) > 0 {
		if event, err := s.decode(strings.Join(data, "\n")); event != nil || err != nil {
			return event, err
		}
	}

	if err := s.scanner.Err(); err != nil {
		s.err = fmt.Errorf("reading stream: %w", err)
		return nil, s.err
	}
	s.done = true
	return nil, io.EOF
}

// decode parses one event payload. A nil, nil return means the event
// carries nothing for the caller (pings).
func (s *MessageStream) decode(payload string) (*StreamEvent, error) {
	var event StreamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		s.err = fmt.Errorf("decoding stream event: %w", err)
		return nil, s.err
	}
	switch event.Type {
	case EventPing:
		return nil, nil
	case EventError:
		if event.Error != nil {
			s.err = event.Error
		} else {
			s.err = fmt.Errorf("anthropic: stream error event without payload")
		}
		return nil, s.err
	case EventMessageStop:
		s.done = true
	}
	return &event, nil
}

// Close releases the underlying connection. Safe to call more than once.
func (s *MessageStream) Close() error {
	return s.body.Close()
}

// ApplyEvent folds one stream event into the message under assembly:
// content_block_start opens a block, content_block_delta extends it, and
// message_delta carries the closing stop reason and usage. Other event
// types are ignored.
func (m *Message) ApplyEvent(event *StreamEvent) {
	switch event.Type {
	case EventContentBlockStart:
		for len(m.Content) <= event.Index {
			m.Content = append(m.Content, ContentBlock{})
		}
		if event.ContentBlock != nil {
			m.Content[event.Index] = *event.ContentBlock
		}
	case EventContentBlockDelta:
		if event.Delta == nil || event.Index >= len(m.Content) {
			return
		}
		block := &m.Content[event.Index]
		block.Text += event.Delta.Text
		block.Thinking += event.Delta.Thinking
		if event.Delta.Signature != "" {
			block.Signature = event.Delta.Signature
		}
	case EventMessageDelta:
		if event.Delta != nil {
			if event.Delta.StopReason != "" {
				m.StopReason = event.Delta.StopReason
			}
			if event.Delta.StopSequence != "" {
				m.StopSequence = event.Delta.StopSequence
			}
		}
		if event.Usage != nil {
			m.Usage.OutputTokens = event.Usage.OutputTokens
			if event.Usage.InputTokens > 0 {
				m.Usage.InputTokens = event.Usage.InputTokens
			}
		}
	}
}

// Accumulate drains the stream and assembles the final Message, applying
// deltas in arrival order. The stream is closed on return.
func (s *MessageStream) Accumulate() (*Message, error) {
	defer s.Close()

	var msg *Message
	for {
		event, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if event.Type == EventMessageStart {
			if event.Message != nil {
				m := *event.Message
				msg = &m
			}
			continue
		}
		if msg != nil {
			msg.ApplyEvent(event)
		}
	}

	if msg == nil {
		return nil, fmt.Errorf("anthropic: stream ended without a message_start event")
	}
	return msg, nil
}
