package anthropic

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// API key statuses.
const (
	APIKeyActive   = "active"
	APIKeyInactive = "inactive"
	APIKeyArchived = "archived"
)

// User identifies the account that created an API key.
type User struct {
	ID   string `json:"id"`
	Type string `json:"type"` // always "user"
}

// APIKey is the organization admin API's api_key object. The secret is
// never returned; PartialKeyHint is all that is exposed.
type APIKey struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"` // always "api_key"
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	PartialKeyHint string    `json:"partial_key_hint"`
	WorkspaceID    string    `json:"workspace_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      User      `json:"created_by"`
}

// ListAPIKeysParams filter and paginate ListAPIKeys. These endpoints
// require an organization admin key, not a regular API key.
type ListAPIKeysParams struct {
	BeforeID        string
	AfterID         string
	Limit           int // 1-1000, zero uses the server default
	Status          string
	WorkspaceID     string
	CreatedByUserID string
}

func (p *ListAPIKeysParams) values() url.Values {
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
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.WorkspaceID != "" {
		q.Set("workspace_id", p.WorkspaceID)
	}
	if p.CreatedByUserID != "" {
		q.Set("created_by_user_id", p.CreatedByUserID)
	}
	return q
}

// APIKeyPage is one page of API key list results.
type APIKeyPage struct {
	Data    []APIKey `json:"data"`
	FirstID string   `json:"first_id,omitempty"`
	LastID  string   `json:"last_id,omitempty"`
	HasMore bool     `json:"has_more"`
}

// ListAPIKeys retrieves a page of the organization's API keys.
func (c *Client) ListAPIKeys(ctx context.Context, params *ListAPIKeysParams) (*APIKeyPage, error) {
	var page APIKeyPage
	if err := c.do(ctx, "GET", "/organizations/api_keys", params.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAPIKey retrieves a single API key by ID.
func (c *Client) GetAPIKey(ctx context.Context, apiKeyID string) (*APIKey, error) {
	var key APIKey
	if err := c.do(ctx, "GET", "/organizations/api_keys/"+url.PathEscape(apiKeyID), nil, nil, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// UpdateAPIKeyParams carries the mutable fields of an API key. Nil fields
// are left unchanged.
type UpdateAPIKeyParams struct {
	Name   *string `json:"name,omitempty"`
	Status *string `json:"status,omitempty"`
}

// UpdateAPIKey renames an API key and/or changes its status.
func (c *Client) UpdateAPIKey(ctx context.Context, apiKeyID string, params *UpdateAPIKeyParams) (*APIKey, error) {
	var key APIKey
	if err := c.do(ctx, "POST", "/organizations/api_keys/"+url.PathEscape(apiKeyID), nil, params, &key); err != nil {
		return nil, err
	}
	return &key, nil
}
