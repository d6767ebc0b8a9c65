package anthropic_test

import (
	"context"
	"testing"

	"github.com/kadrlabs/anthropic-go/anthropic"
)

func TestListModels(t *testing.T) {
	_, client := newTestClient(t)

	page, err := client.ListModels(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(page.Data) != 2 {
		t.Fatalf("len(data) = %d, want 2", len(page.Data))
	}
	if page.Data[0].ID != "claude-haiku-4-5-20251001" {
		t.Errorf("first model = %q", page.Data[0].ID)
	}
	if page.Data[0].DisplayName == "" {
		t.Error("display_name should be populated")
	}
	if page.Data[0].CreatedAt.IsZero() {
		t.Error("created_at should parse as RFC3339")
	}
	if page.HasMore {
		t.Error("has_more should be false for the full set")
	}
}

func TestListModelsPagination(t *testing.T) {
	fake, client := newTestClient(t)

	page, err := client.ListModels(context.Background(), &anthropic.ListModelsParams{Limit: 1})
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(page.Data) != 1 || !page.HasMore {
		t.Fatalf("page = %+v, want one item and has_more", page)
	}
	if fake.LastQuery != "limit=1" {
		t.Errorf("query = %q", fake.LastQuery)
	}

	next, err := client.ListModels(context.Background(), &anthropic.ListModelsParams{AfterID: page.LastID, Limit: 1})
	if err != nil {
		t.Fatalf("ListModels page 2: %v", err)
	}
	if len(next.Data) != 1 || next.HasMore {
		t.Fatalf("page 2 = %+v", next)
	}
	if next.Data[0].ID == page.Data[0].ID {
		t.Error("page 2 should not repeat page 1")
	}
}

func TestAllModelsFollowsPagination(t *testing.T) {
	_, client := newTestClient(t)

	all, err := client.AllModels(context.Background())
	if err != nil {
		t.Fatalf("AllModels: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len = %d, want 2", len(all))
	}
}

func TestGetModel(t *testing.T) {
	_, client := newTestClient(t)

	model, err := client.GetModel(context.Background(), "claude-sonnet-4-5-20250929")
	if err != nil {
		t.Fatalf("GetModel: %v", err)
	}
	if model.DisplayName != "Claude Sonnet 4.5" {
		t.Errorf("display_name = %q", model.DisplayName)
	}
}

func TestGetModelNotFound(t *testing.T) {
	_, client := newTestClient(t)

	_, err := client.GetModel(context.Background(), "no-such-model")
	if !anthropic.IsNotFound(err) {
		t.Fatalf("expected not_found_error, got %v", err)
	}
}
