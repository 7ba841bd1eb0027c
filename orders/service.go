package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/davemarchant/tienda-go/api"
	"github.com/davemarchant/tienda-go/cart"
)

// Service is the orders API proxy. It also implements cart.Remote for the
// background shopping-cart sync.
type Service struct {
	client *api.Client
}

// NewService creates the orders service.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Create places an order. An idempotency key is generated when the request
// carries none, so a retried checkout cannot double-charge.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}

	var resp api.Response[Order]
	if err := s.client.Post(ctx, "/orders", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// List returns a page of the signed-in user's orders, newest first.
func (s *Service) List(ctx context.Context, params api.PaginationParams) (*api.PaginatedResponse[[]Order], error) {
	path := "/orders"
	if encoded := params.Values().Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp api.Response[api.PaginatedResponse[[]Order]]
	if err := s.client.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Get returns a single order by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	var resp api.Response[Order]
	if err := s.client.Get(ctx, fmt.Sprintf("/orders/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Cancel cancels an order. The server rejects cancellation of orders that
// are no longer pending.
func (s *Service) Cancel(ctx context.Context, id int64) (*Order, error) {
	var resp api.Response[Order]
	if err := s.client.Put(ctx, fmt.Sprintf("/orders/%d", id), map[string]any{"status": StatusCancelled}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

type replaceCartRequest struct {
	UserID int64          `json:"userId"`
	Items  []cart.ItemRef `json:"items"`
}

// ReplaceCart implements cart.Remote: it replaces the server-side shopping
// cart with the given ledger (IDs and quantities only, full replacement
// rather than merge).
func (s *Service) ReplaceCart(ctx context.Context, userID int64, items []cart.ItemRef) error {
	if items == nil {
		items = []cart.ItemRef{}
	}
	var resp api.Response[string]
	return s.client.Post(ctx, "/orders/shopping-cart", replaceCartRequest{UserID: userID, Items: items}, &resp)
}
