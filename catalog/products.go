package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/davemarchant/tienda-go/api"
)

// ListParams filter and page a product listing.
type ListParams struct {
	api.PaginationParams
	PriceMin   *float64
	PriceMax   *float64
	CategoryID string
	Featured   *bool
}

// Products is the product API proxy.
type Products struct {
	client *api.Client
}

// NewProducts creates the product service.
func NewProducts(client *api.Client) *Products {
	return &Products{client: client}
}

// List returns a page of products matching the filters.
func (p *Products) List(ctx context.Context, params ListParams) (*api.PaginatedResponse[[]Product], error) {
	values := params.Values()
	if params.PriceMin != nil {
		values.Set("priceMin", strconv.FormatFloat(*params.PriceMin, 'f', -1, 64))
	}
	if params.PriceMax != nil {
		values.Set("priceMax", strconv.FormatFloat(*params.PriceMax, 'f', -1, 64))
	}
	if params.CategoryID != "" {
		values.Set("categoryId", params.CategoryID)
	}
	if params.Featured != nil {
		values.Set("featured", strconv.FormatBool(*params.Featured))
	}

	path := "/products"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp api.Response[api.PaginatedResponse[[]Product]]
	if err := p.client.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Get returns a single product by ID.
func (p *Products) Get(ctx context.Context, id int64) (*Product, error) {
	var resp api.Response[Product]
	if err := p.client.Get(ctx, fmt.Sprintf("/products/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Create adds a product (admin).
func (p *Products) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	var resp api.Response[Product]
	if err := p.client.Post(ctx, "/products", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Update patches a product (admin).
func (p *Products) Update(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error) {
	var resp api.Response[Product]
	if err := p.client.Put(ctx, fmt.Sprintf("/products/%d", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Delete removes a product (admin).
func (p *Products) Delete(ctx context.Context, id int64) error {
	return p.client.Delete(ctx, fmt.Sprintf("/products/%d", id), nil)
}
