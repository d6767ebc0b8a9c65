package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Server-side batch limits enforced before upload.
const (
	maxBatchRequests = 100_000
	maxBatchBytes    = 256 << 20
)

// Batch processing statuses.
const (
	BatchInProgress = "in_progress"
	BatchCanceling  = "canceling"
	BatchEnded      = "ended"
)

// Batch result types.
const (
	BatchResultSucceeded = "succeeded"
	BatchResultErrored   = "errored"
	BatchResultCanceled  = "canceled"
	BatchResultExpired   = "expired"
)

// RequestCounts tallies the requests of a batch by state.
type RequestCounts struct {
	Processing int `json:"processing"`
	Succeeded  int `json:"succeeded"`
	Errored    int `json:"errored"`
	Canceled   int `json:"canceled"`
	Expired    int `json:"expired"`
}

// Total returns the number of requests in the batch.
func (rc RequestCounts) Total() int {
	return rc.Processing + rc.Succeeded + rc.Errored + rc.Canceled + rc.Expired
}

// MessageBatch is the API's message_batch object.
type MessageBatch struct {
	ID                string        `json:"id"`
	Type              string        `json:"type"` // always "message_batch"
	ProcessingStatus  string        `json:"processing_status"`
	RequestCounts     RequestCounts `json:"request_counts"`
	CreatedAt         time.Time     `json:"created_at"`
	ExpiresAt         time.Time     `json:"expires_at"`
	EndedAt           *time.Time    `json:"ended_at,omitempty"`
	ArchivedAt        *time.Time    `json:"archived_at,omitempty"`
	CancelInitiatedAt *time.Time    `json:"cancel_initiated_at,omitempty"`
	ResultsURL        string        `json:"results_url,omitempty"`
}

// BatchRequest is one message request inside a batch. CustomID correlates
// the request with its result; if empty, CreateMessageBatch fills in a
// generated UUID.
type BatchRequest struct {
	CustomID string              `json:"custom_id"`
	Params   CreateMessageParams `json:"params"`
}

// CreateBatchParams is the body of POST /messages/batches.
type CreateBatchParams struct {
	Requests []BatchRequest `json:"requests"`
}

func (p *CreateBatchParams) validate() error {
	if len(p.Requests) == 0 {
		return ErrBatchEmpty
	}
	if len(p.Requests) > maxBatchRequests {
		return ErrBatchTooLarge
	}
	for i := range p.Requests {
		if err := p.Requests[i].Params.validate(); err != nil {
			return fmt.Errorf("requests[%d]: %w", i, err)
		}
	}
	return nil
}

// CreateMessageBatch submits a batch of message requests for asynchronous
// processing. Batches complete within 24 hours and results remain
// downloadable for 29 days.
func (c *Client) CreateMessageBatch(ctx context.Context, params *CreateBatchParams) (*MessageBatch, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	for i := range params.Requests {
		if params.Requests[i].CustomID == "" {
			params.Requests[i].CustomID = uuid.NewString()
		}
	}

	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}
	if len(encoded) > maxBatchBytes {
		return nil, ErrBatchTooBig
	}

	var batch MessageBatch
	if err := c.do(ctx, "POST", "/messages/batches", nil, json.RawMessage(encoded), &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListBatchesParams are the pagination controls for ListMessageBatches.
type ListBatchesParams struct {
	BeforeID string
	AfterID  string
	Limit    int // 1-1000, zero uses the server default
}

func (p *ListBatchesParams) values() url.Values {
	if p == nil {
		return nil
	}
	q := url.Values{}
	if p.BeforeID != "" {
		q.Set("before_id", p.BeforeID)
	}
	if p.AfterID != "" {
		q.Set("after_id", p.AfterID)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(min(p.Limit, 1000)))
	}
	return q
}

// BatchPage is one page of batch list results.
type BatchPage struct {
	Data    []MessageBatch `json:"data"`
	FirstID string         `json:"first_id,omitempty"`
	LastID  string         `json:"last_id,omitempty"`
	HasMore bool           `json:"has_more"`
}

// ListMessageBatches retrieves a page of batches in the workspace.
func (c *Client) ListMessageBatches(ctx context.Context, params *ListBatchesParams) (*BatchPage, error) {
	var page BatchPage
	if err := c.do(ctx, "GET", "/messages/batches", params.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetMessageBatch retrieves a batch by ID.
func (c *Client) GetMessageBatch(ctx context.Context, batchID string) (*MessageBatch, error) {
	var batch MessageBatch
	if err := c.do(ctx, "GET", "/messages/batches/"+url.PathEscape(batchID), nil, nil, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// CancelMessageBatch asks the server to stop processing a batch. Requests
// already in flight may still complete; the batch moves through canceling
// to ended.
func (c *Client) CancelMessageBatch(ctx context.Context, batchID string) (*MessageBatch, error) {
	var batch MessageBatch
	if err := c.do(ctx, "POST", "/messages/batches/"+url.PathEscape(batchID)+"/cancel", nil, nil, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// BatchDeleted is the response to DeleteMessageBatch.
type BatchDeleted struct {
	ID   string `json:"id"`
	Type string `json:"type"` // always "message_batch_deleted"
}

// DeleteMessageBatch deletes a batch. Only batches that have finished
// processing can be deleted; cancel an in-progress batch first.
func (c *Client) DeleteMessageBatch(ctx context.Context, batchID string) (*BatchDeleted, error) {
	var deleted BatchDeleted
	if err := c.do(ctx, "DELETE", "/messages/batches/"+url.PathEscape(batchID), nil, nil, &deleted); err != nil {
		return nil, err
	}
	return &deleted, nil
}

// BatchError is the error payload of a non-succeeded batch result.
type BatchError struct {
	Type  string    `json:"type"` // always "error"
	Error *APIError `json:"error,omitempty"`
}

// BatchResultBody is the per-request outcome union: Message for succeeded
// results, Error for errored ones.
type BatchResultBody struct {
	Type    string      `json:"type"`
	Message *Message    `json:"message,omitempty"`
	Error   *BatchError `json:"error,omitempty"`
}

// BatchResult is one line of the batch results file.
type BatchResult struct {
	CustomID string          `json:"custom_id"`
	Result   BatchResultBody `json:"result"`
}

// BatchResultStream reads batch results line by line (the results endpoint
// returns JSONL). Not safe for concurrent use; call Close when done.
type BatchResultStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	err     error
}

// MessageBatchResults streams the per-request results of an ended batch.
// Results are in processing-completion order, not submission order; match
// them up by CustomID.
func (c *Client) MessageBatchResults(ctx context.Context, batchID string) (*BatchResultStream, error) {
	resp, err := c.stream(ctx, "GET", "/messages/batches/"+url.PathEscape(batchID)+"/results", nil, "application/x-jsonl")
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &BatchResultStream{body: resp.Body, scanner: scanner}, nil
}

// Next returns the next result, or io.EOF when the file is exhausted.
func (s *BatchResultStream) Next() (*BatchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var result BatchResult
		if err := json.Unmarshal(line, &result); err != nil {
			s.err = fmt.Errorf("decoding batch result: %w", err)
			return nil, s.err
		}
		return &result, nil
	}
	if err := s.scanner.Err(); err != nil {
		s.err = fmt.Errorf("reading batch results: %w", err)
		return nil, s.err
	}
	s.err = io.EOF
	return nil, io.EOF
}

// All drains the stream and closes it.
func (s *BatchResultStream) All() ([]BatchResult, error) {
	defer s.Close()
	var results []BatchResult
	for {
		result, err := s.Next()
		if err == io.EOF {
			return results, nil
		}
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
}

// Close releases the underlying connection.
func (s *BatchResultStream) Close() error { return s.body.Close() }

// WaitForBatch polls the batch at the given interval until processing ends
// or ctx is canceled. The onPoll callback, when non-nil, observes every
// intermediate state (the CLI uses it to drive a progress bar).
func (c *Client) WaitForBatch(ctx context.Context, batchID string, interval time.Duration, onPoll func(*MessageBatch)) (*MessageBatch, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	for {
		batch, err := c.GetMessageBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}
		if onPoll != nil {
			onPoll(batch)
		}
		if batch.ProcessingStatus == BatchEnded {
			return batch, nil
		}
		if err := sleepCtx(ctx, interval); err != nil {
			return nil, err
		}
	}
}
