package anthropic_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kadrlabs/anthropic-go/anthropic"
)

func batchParams(n int) *anthropic.CreateBatchParams {
	params := &anthropic.CreateBatchParams{}
	for i := 0; i < n; i++ {
		params.Requests = append(params.Requests, anthropic.BatchRequest{
			Params: *basicParams(),
		})
	}
	return params
}

func TestCreateMessageBatch(t *testing.T) {
	_, client := newTestClient(t)

	params := batchParams(2)
	params.Requests[0].CustomID = "first"

	batch, err := client.CreateMessageBatch(context.Background(), params)
	if err != nil {
		t.Fatalf("CreateMessageBatch: %v", err)
	}
	if batch.ProcessingStatus != anthropic.BatchInProgress {
		t.Errorf("processing_status = %q", batch.ProcessingStatus)
	}
	if batch.RequestCounts.Processing != 2 {
		t.Errorf("processing count = %d", batch.RequestCounts.Processing)
	}
	if batch.CreatedAt.IsZero() || batch.ExpiresAt.IsZero() {
		t.Error("timestamps should be populated")
	}

	// The blank custom_id must have been filled in client-side.
	if params.Requests[0].CustomID != "first" {
		t.Errorf("explicit custom_id was overwritten: %q", params.Requests[0].CustomID)
	}
	if params.Requests[1].CustomID == "" {
		t.Error("blank custom_id should be generated")
	}
}

func TestCreateMessageBatchValidation(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.CreateMessageBatch(ctx, &anthropic.CreateBatchParams{}); !errors.Is(err, anthropic.ErrBatchEmpty) {
		t.Errorf("empty batch: got %v", err)
	}

	bad := batchParams(1)
	bad.Requests[0].Params.Model = ""
	_, err := client.CreateMessageBatch(ctx, bad)
	if !errors.Is(err, anthropic.ErrMissingModel) {
		t.Errorf("invalid request params: got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "requests[0]") {
		t.Errorf("error should name the offending request, got %v", err)
	}
}

func TestCreateMessageBatchRejectsTooManyRequests(t *testing.T) {
	_, client := newTestClient(t)

	// The length guard fires before per-request validation, so zero-value
	// requests suffice.
	params := &anthropic.CreateBatchParams{Requests: make([]anthropic.BatchRequest, 100_001)}
	if _, err := client.CreateMessageBatch(context.Background(), params); !errors.Is(err, anthropic.ErrBatchTooLarge) {
		t.Fatalf("100001 requests: got %v, want ErrBatchTooLarge", err)
	}
}

func TestCreateMessageBatchRejectsOversizedPayload(t *testing.T) {
	_, client := newTestClient(t)

	params := batchParams(1)
	params.Requests[0].Params.Messages = []anthropic.InputMessage{
		anthropic.NewUserMessage(strings.Repeat("x", 257<<20)),
	}
	if _, err := client.CreateMessageBatch(context.Background(), params); !errors.Is(err, anthropic.ErrBatchTooBig) {
		t.Fatalf("oversized payload: got %v, want ErrBatchTooBig", err)
	}
}

func TestBatchLifecycle(t *testing.T) {
	fake, client := newTestClient(t)
	ctx := context.Background()

	batch, err := client.CreateMessageBatch(ctx, batchParams(3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Deleting an in-progress batch is refused.
	if _, err := client.DeleteMessageBatch(ctx, batch.ID); !anthropic.IsInvalidRequest(err) {
		t.Fatalf("delete while processing: got %v", err)
	}

	fake.FinishBatch(batch.ID)

	got, err := client.GetMessageBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ProcessingStatus != anthropic.BatchEnded {
		t.Errorf("processing_status = %q", got.ProcessingStatus)
	}
	if got.RequestCounts.Succeeded != 3 || got.EndedAt == nil {
		t.Errorf("batch = %+v", got)
	}

	page, err := client.ListMessageBatches(ctx, &anthropic.ListBatchesParams{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 1 {
		t.Errorf("len(data) = %d", len(page.Data))
	}

	deleted, err := client.DeleteMessageBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.ID != batch.ID || deleted.Type != "message_batch_deleted" {
		t.Errorf("deleted = %+v", deleted)
	}

	if _, err := client.GetMessageBatch(ctx, batch.ID); !anthropic.IsNotFound(err) {
		t.Errorf("get after delete: got %v", err)
	}
}

func TestCancelMessageBatch(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	batch, err := client.CreateMessageBatch(ctx, batchParams(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	canceled, err := client.CancelMessageBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if canceled.ProcessingStatus != anthropic.BatchCanceling {
		t.Errorf("processing_status = %q", canceled.ProcessingStatus)
	}
	if canceled.CancelInitiatedAt == nil {
		t.Error("cancel_initiated_at should be set")
	}
}

func TestMessageBatchResults(t *testing.T) {
	fake, client := newTestClient(t)
	ctx := context.Background()

	params := batchParams(2)
	params.Requests[0].CustomID = "req-a"
	params.Requests[1].CustomID = "req-b"

	batch, err := client.CreateMessageBatch(ctx, params)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	fake.FinishBatch(batch.ID)

	stream, err := client.MessageBatchResults(ctx, batch.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	results, err := stream.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d", len(results))
	}

	byID := map[string]anthropic.BatchResult{}
	for _, res := range results {
		byID[res.CustomID] = res
	}
	for _, id := range []string{"req-a", "req-b"} {
		res, ok := byID[id]
		if !ok {
			t.Fatalf("missing result for %q", id)
		}
		if res.Result.Type != anthropic.BatchResultSucceeded {
			t.Errorf("%s: result type = %q", id, res.Result.Type)
		}
		if res.Result.Message == nil || res.Result.Message.Text() != "batch reply" {
			t.Errorf("%s: message = %+v", id, res.Result.Message)
		}
	}
}

func TestWaitForBatch(t *testing.T) {
	fake, client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batch, err := client.CreateMessageBatch(ctx, batchParams(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	polls := 0
	done, err := client.WaitForBatch(ctx, batch.ID, 10*time.Millisecond, func(b *anthropic.MessageBatch) {
		polls++
		if polls == 2 {
			fake.FinishBatch(batch.ID)
		}
	})
	if err != nil {
		t.Fatalf("WaitForBatch: %v", err)
	}
	if done.ProcessingStatus != anthropic.BatchEnded {
		t.Errorf("processing_status = %q", done.ProcessingStatus)
	}
	if polls < 3 {
		t.Errorf("polls = %d, want at least 3", polls)
	}
}

func TestRequestCountsTotal(t *testing.T) {
	rc := anthropic.RequestCounts{Processing: 1, Succeeded: 2, Errored: 3, Canceled: 4, Expired: 5}
	if rc.Total() != 15 {
		t.Errorf("Total() = %d, want 15", rc.Total())
	}
}
