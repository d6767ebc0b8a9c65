package anthropic_test

import (
	"context"
	"testing"

	"github.com/kadrlabs/anthropic-go/anthropic"
)

func TestListAPIKeys(t *testing.T) {
	fake, client := newTestClient(t)

	page, err := client.ListAPIKeys(context.Background(), &anthropic.ListAPIKeysParams{
		Status: anthropic.APIKeyActive,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("ListAPIKeys: %v", err)
	}
	if len(page.Data) != 1 {
		t.Fatalf("len(data) = %d", len(page.Data))
	}
	key := page.Data[0]
	if key.Name != "ci-key" || key.Status != anthropic.APIKeyActive {
		t.Errorf("key = %+v", key)
	}
	if key.PartialKeyHint == "" {
		t.Error("partial_key_hint should be populated")
	}
	if key.CreatedBy.ID != "user_01" {
		t.Errorf("created_by = %+v", key.CreatedBy)
	}
	if fake.LastQuery == "" {
		t.Error("status and limit should be sent as query parameters")
	}
}

func TestListAPIKeysStatusFilter(t *testing.T) {
	_, client := newTestClient(t)

	page, err := client.ListAPIKeys(context.Background(), &anthropic.ListAPIKeysParams{
		Status: anthropic.APIKeyArchived,
	})
	if err != nil {
		t.Fatalf("ListAPIKeys: %v", err)
	}
	if len(page.Data) != 0 {
		t.Errorf("expected no archived keys, got %d", len(page.Data))
	}
}

func TestGetAPIKey(t *testing.T) {
	_, client := newTestClient(t)

	key, err := client.GetAPIKey(context.Background(), "apikey_01")
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if key.ID != "apikey_01" {
		t.Errorf("id = %q", key.ID)
	}
}

func TestGetAPIKeyNotFound(t *testing.T) {
	_, client := newTestClient(t)

	if _, err := client.GetAPIKey(context.Background(), "apikey_zz"); !anthropic.IsNotFound(err) {
		t.Fatalf("expected not_found_error, got %v", err)
	}
}

func TestUpdateAPIKey(t *testing.T) {
	_, client := newTestClient(t)

	name := "rotated-key"
	status := anthropic.APIKeyInactive
	key, err := client.UpdateAPIKey(context.Background(), "apikey_01", &anthropic.UpdateAPIKeyParams{
		Name:   &name,
		Status: &status,
	})
	if err != nil {
		t.Fatalf("UpdateAPIKey: %v", err)
	}
	if key.Name != "rotated-key" || key.Status != anthropic.APIKeyInactive {
		t.Errorf("key = %+v", key)
	}
}
