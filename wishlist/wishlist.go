// Package wishlist proxies the remote wishlist with a local membership
// mirror so product cards can render the heart state without a round trip.
package wishlist

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/davemarchant/tienda-go/api"
	"github.com/davemarchant/tienda-go/catalog"
	"github.com/davemarchant/tienda-go/store"
)

// SessionInfo is the wishlist's view of the authentication state.
type SessionInfo interface {
	Authenticated() bool
	UserID() int64
}

// Service is the wishlist API proxy plus its local mirror.
type Service struct {
	client  *api.Client
	session SessionInfo
	store   store.Store
	logger  zerolog.Logger

	mu       sync.RWMutex
	products []catalog.Product
}

// NewService creates the wishlist service and restores the mirrored product
// IDs from the local store.
func NewService(client *api.Client, sess SessionInfo, st store.Store, logger zerolog.Logger) *Service {
	s := &Service{
		client:  client,
		session: sess,
		store:   st,
		logger:  logger,
	}
	s.load()
	return s
}

// Fetch loads the signed-in user's wishlist and refreshes the mirror.
func (s *Service) Fetch(ctx context.Context) ([]catalog.Product, error) {
	var resp api.Response[[]catalog.Product]
	if err := s.client.Get(ctx, fmt.Sprintf("/users/wishlist/%d", s.session.UserID()), &resp); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.products = resp.Data
	s.persistLocked()
	s.mu.Unlock()
	return resp.Data, nil
}

// Toggle adds or removes a product from the wishlist, then refreshes the
// mirror from the server.
func (s *Service) Toggle(ctx context.Context, productID int64) (string, error) {
	body := map[string]int64{"productId": productID}

	var resp api.Response[string]
	if err := s.client.Post(ctx, fmt.Sprintf("/users/wishlist/%d", s.session.UserID()), body, &resp); err != nil {
		return "", err
	}

	if _, err := s.Fetch(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("wishlist refresh after toggle failed")
	}
	return resp.Message, nil
}

// Contains reports whether the mirror holds the product.
func (s *Service) Contains(productID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// Products returns a copy of the mirrored wishlist.
func (s *Service) Products() []catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Len returns the mirrored wishlist size.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Clear drops the mirror and its persisted copy (sign-out path).
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = nil
	if err := s.store.Delete(store.KeyWishlist); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete persisted wishlist")
	}
}

// persistLocked stores the mirror. Caller holds the lock.
func (s *Service) persistLocked() {
	data, err := json.Marshal(s.products)
	if err == nil {
		err = s.store.Set(store.KeyWishlist, data)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist wishlist")
	}
}

func (s *Service) load() {
	data, err := s.store.Get(store.KeyWishlist)
	if err != nil {
		return
	}
	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		s.logger.Warn().Err(err).Msg("discarding malformed persisted wishlist")
		return
	}
	s.products = products
}
