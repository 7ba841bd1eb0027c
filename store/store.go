// Package store provides the client's local persistence layer, the
// equivalent of browser localStorage: a small keyed byte store holding the
// serialized cart ledger, session and wishlist mirror.
package store

import "errors"

// Well-known keys.
const (
	KeyShoppingCart = "shopping_cart"
	KeyUser         = "user"
	KeyToken        = "token"
	KeyWishlist     = "wishlist"
)

// ErrNotFound is returned when a key has never been written or was deleted.
var ErrNotFound = errors.New("store: key not found")

// Store is a keyed byte store. Implementations must be safe for concurrent
// use.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
