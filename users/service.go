package users

import (
	"context"
	"fmt"

	"github.com/davemarchant/tienda-go/api"
)

// UpdateProfileRequest is a partial profile update; nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// UpdateAddressRequest replaces the stored addresses.
type UpdateAddressRequest struct {
	ShippingAddress          *Address `json:"shippingAddress,omitempty"`
	BillingAddress           *Address `json:"billingAddress,omitempty"`
	UseSameAddressForBilling bool     `json:"useSameAddressForBilling"`
}

// Service is the users API proxy: profile management plus the admin user
// back-office.
type Service struct {
	client *api.Client
}

// NewService creates the users service.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Get returns a user profile by ID.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	var resp api.Response[User]
	if err := s.client.Get(ctx, fmt.Sprintf("/users/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateProfile patches the user's profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*User, error) {
	var resp api.Response[User]
	if err := s.client.Put(ctx, fmt.Sprintf("/users/profile/%d", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateAddress replaces the user's shipping/billing addresses.
func (s *Service) UpdateAddress(ctx context.Context, id int64, req UpdateAddressRequest) (*User, error) {
	var resp api.Response[User]
	if err := s.client.Put(ctx, fmt.Sprintf("/users/address/%d", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// List returns a page of users (admin).
func (s *Service) List(ctx context.Context, params api.PaginationParams) (*api.PaginatedResponse[[]User], error) {
	path := "/users"
	if encoded := params.Values().Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp api.Response[api.PaginatedResponse[[]User]]
	if err := s.client.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateRole changes a user's role (admin).
func (s *Service) UpdateRole(ctx context.Context, id int64, role Role) (*User, error) {
	var resp api.Response[User]
	if err := s.client.Put(ctx, fmt.Sprintf("/users/role/%d", id), map[string]Role{"role": role}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Delete removes a user account (admin).
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/users/%d", id), nil)
}
