package catalog

import (
	"context"
	"fmt"

	"github.com/davemarchant/tienda-go/api"
)

// Categories is the category API proxy.
type Categories struct {
	client *api.Client
}

// NewCategories creates the category service.
func NewCategories(client *api.Client) *Categories {
	return &Categories{client: client}
}

// List returns all categories.
func (c *Categories) List(ctx context.Context) ([]Category, error) {
	var resp api.Response[[]Category]
	if err := c.client.Get(ctx, "/categories", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Get returns a single category by ID.
func (c *Categories) Get(ctx context.Context, id int64) (*Category, error) {
	var resp api.Response[Category]
	if err := c.client.Get(ctx, fmt.Sprintf("/categories/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Create adds a category (admin).
func (c *Categories) Create(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	var resp api.Response[Category]
	if err := c.client.Post(ctx, "/categories", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Update patches a category (admin).
func (c *Categories) Update(ctx context.Context, id int64, req UpdateCategoryRequest) (*Category, error) {
	var resp api.Response[Category]
	if err := c.client.Put(ctx, fmt.Sprintf("/categories/%d", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Delete removes a category (admin).
func (c *Categories) Delete(ctx context.Context, id int64) error {
	return c.client.Delete(ctx, fmt.Sprintf("/categories/%d", id), nil)
}
