package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, prompt := range []string{"first", "second", "third"} {
		ex := &Exchange{
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
			Model:        "claude-sonnet-4-5-20250929",
			Prompt:       prompt,
			Reply:        "reply to " + prompt,
			InputTokens:  100,
			OutputTokens: 50,
			StopReason:   "end_turn",
		}
		if err := store.Record(ex); err != nil {
			t.Fatalf("Record(%q): %v", prompt, err)
		}
		if ex.ID == "" {
			t.Error("Record should assign an ID")
		}
		if ex.CostUSD <= 0 {
			t.Error("Record should estimate a cost for a known model")
		}
	}

	recent, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len = %d, want 2", len(recent))
	}
	if recent[0].Prompt != "third" || recent[1].Prompt != "second" {
		t.Errorf("order = %q, %q; want newest first", recent[0].Prompt, recent[1].Prompt)
	}
	if recent[0].CreatedAt.IsZero() {
		t.Error("created_at should round-trip")
	}
}

func TestSummary(t *testing.T) {
	store, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	for i := 0; i < 3; i++ {
		if err := store.Record(&Exchange{
			Model: "claude-haiku-4-5-20251001", Prompt: "p", Reply: "r",
			InputTokens: 1000, OutputTokens: 500,
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	totals, err := store.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if totals.Exchanges != 3 {
		t.Errorf("exchanges = %d", totals.Exchanges)
	}
	if totals.InputTokens != 3000 || totals.OutputTokens != 1500 {
		t.Errorf("tokens = %d/%d", totals.InputTokens, totals.OutputTokens)
	}
	if totals.CostUSD <= 0 {
		t.Errorf("cost = %f", totals.CostUSD)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "history.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if err := store.Record(&Exchange{Model: "m", Prompt: "p", Reply: "r"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
}

func TestEstimateCost(t *testing.T) {
	// claude-sonnet-4-5: $3/1M input, $15/1M output.
	cost := EstimateCost("claude-sonnet-4-5-20250929", 1_000_000, 1_000_000)
	if cost < 17.99 || cost > 18.01 {
		t.Errorf("cost = %f, want ~18.0", cost)
	}
	if EstimateCost("unknown-model", 1000, 1000) != 0 {
		t.Error("unknown model should cost 0")
	}
}
