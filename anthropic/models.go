package anthropic

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// ModelInfo describes one model available through the API.
type ModelInfo struct {
	Type        string    `json:"type"` // always "model"
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListModelsParams are the pagination controls for ListModels.
type ListModelsParams struct {
	// BeforeID returns the page of results before this object ID.
	BeforeID string
	// AfterID returns the page of results after this object ID.
	AfterID string
	// Limit is the page size, 1-1000. Zero uses the server default.
	Limit int
}

func (p *ListModelsParams) values() url.Values {
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

// ModelPage is one page of list results, sorted by release date with the
// most recently released models first.
type ModelPage struct {
	Data    []ModelInfo `json:"data"`
	FirstID string      `json:"first_id,omitempty"`
	LastID  string      `json:"last_id,omitempty"`
	HasMore bool        `json:"has_more"`
}

// ListModels retrieves a page of available models.
func (c *Client) ListModels(ctx context.Context, params *ListModelsParams) (*ModelPage, error) {
	var page ModelPage
	if err := c.do(ctx, "GET", "/models", params.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetModel retrieves a single model by ID or alias.
func (c *Client) GetModel(ctx context.Context, modelID string) (*ModelInfo, error) {
	if modelID == "" {
		return nil, ErrMissingModel
	}
	var model ModelInfo
	if err := c.do(ctx, "GET", "/models/"+url.PathEscape(modelID), nil, nil, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// AllModels follows pagination and returns every available model.
func (c *Client) AllModels(ctx context.Context) ([]ModelInfo, error) {
	var all []ModelInfo
	params := &ListModelsParams{Limit: 1000}
	for {
		page, err := c.ListModels(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasMore || page.LastID == "" {
			return all, nil
		}
		params.AfterID = page.LastID
	}
}
