// Package cart implements the shopping cart: an in-memory quantity ledger
// keyed by product, persisted locally after every mutation and mirrored to
// the server's shopping cart while a user is signed in. The local ledger is
// the single source of truth; remote sync failures never affect it.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/davemarchant/tienda-go/catalog"
	"github.com/davemarchant/tienda-go/store"
)

// Line is one ledger entry. Product is a snapshot taken at add time, so the
// cart keeps the price the buyer saw even if the catalog changes afterwards.
// DisabledInStock is UI state set by callers after a stock check and is not
// persisted.
type Line struct {
	Product         catalog.Product `json:"product"`
	Quantity        int             `json:"quantity"`
	DisabledInStock bool            `json:"-"`
}

// Snapshot is the cart with its derived aggregates, recomputed from the
// ledger on every call so they can never drift from it.
type Snapshot struct {
	Items      []Line  `json:"items"`
	TotalItems int     `json:"totalItems"`
	TotalPrice float64 `json:"totalPrice"`
}

// ItemRef is the wire form of a ledger entry for remote sync: product ID and
// quantity only.
type ItemRef struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// SessionInfo is the engine's view of the authentication state.
type SessionInfo interface {
	Authenticated() bool
	UserID() int64
}

// Remote replaces the server-side shopping cart with the given ledger.
type Remote interface {
	ReplaceCart(ctx context.Context, userID int64, items []ItemRef) error
}

// Engine owns the cart ledger. Safe for concurrent use.
type Engine struct {
	store   store.Store
	session SessionInfo
	remote  Remote
	logger  zerolog.Logger

	mu    sync.Mutex
	items []Line
	// saved tracks whether the shopping_cart key exists in the store; login
	// seeding only applies when it does not (first-write-wins).
	saved bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRemote attaches the server-side cart used for background sync.
func WithRemote(remote Remote) EngineOption {
	return func(e *Engine) { e.remote = remote }
}

// WithSession attaches the session; without one the cart stays local-only.
func WithSession(session SessionInfo) EngineOption {
	return func(e *Engine) { e.session = session }
}

// WithEngineLogger sets the structured logger.
func WithEngineLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an engine bound to the local store and restores any
// persisted ledger. Malformed persisted data falls back to an empty ledger.
func NewEngine(st store.Store, options ...EngineOption) *Engine {
	e := &Engine{
		store:  st,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(e)
	}
	e.load()
	return e
}

// AddItem adds qty units of product to the cart, merging into an existing
// line for the same product. qty below 1 is treated as 1. Stock ceilings are
// the caller's responsibility.
func (e *Engine) AddItem(product catalog.Product, qty int) {
	if qty < 1 {
		qty = 1
	}

	e.mu.Lock()
	for i := range e.items {
		if e.items[i].Product.ID == product.ID {
			e.items[i].Quantity += qty
			e.persistLocked()
			e.mu.Unlock()
			e.scheduleSync()
			return
		}
	}
	e.items = append(e.items, Line{Product: product, Quantity: qty})
	e.persistLocked()
	e.mu.Unlock()
	e.scheduleSync()
}

// RemoveItem deletes the line for productID. Removing an absent line is a
// no-op, but still persists and syncs so the operation stays idempotent in
// effect.
func (e *Engine) RemoveItem(productID int64) {
	e.mu.Lock()
	kept := e.items[:0]
	for _, line := range e.items {
		if line.Product.ID != productID {
			kept = append(kept, line)
		}
	}
	e.items = kept
	e.persistLocked()
	e.mu.Unlock()
	e.scheduleSync()
}

// UpdateQuantity sets the absolute quantity for productID. A quantity of
// zero or less removes the line. Updating an absent line is a no-op.
func (e *Engine) UpdateQuantity(productID int64, qty int) {
	if qty <= 0 {
		e.RemoveItem(productID)
		return
	}

	e.mu.Lock()
	for i := range e.items {
		if e.items[i].Product.ID == productID {
			e.items[i].Quantity = qty
			e.persistLocked()
			e.mu.Unlock()
			e.scheduleSync()
			return
		}
	}
	e.mu.Unlock()
}

// Clear empties the ledger.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.items = nil
	e.persistLocked()
	e.mu.Unlock()
	e.scheduleSync()
}

// MarkStockExceeded flags a line whose quantity the caller found to exceed
// available stock. The flag is display state only and is not persisted.
func (e *Engine) MarkStockExceeded(productID int64, exceeded bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.items {
		if e.items[i].Product.ID == productID {
			e.items[i].DisabledInStock = exceeded
			return
		}
	}
}

// Snapshot returns the cart with totals computed fresh from the ledger.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := make([]Line, len(e.items))
	copy(items, e.items)

	snap := Snapshot{Items: items}
	for _, line := range e.items {
		snap.TotalItems += line.Quantity
		snap.TotalPrice += line.Product.Price * float64(line.Quantity)
	}
	return snap
}

// Seed installs the server-side cart delivered by a sign-in response, but
// only when no local cart has ever been persisted: an existing local ledger
// wins over the server one and is left untouched.
func (e *Engine) Seed(items []Line) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saved {
		return
	}
	e.items = make([]Line, len(items))
	copy(e.items, items)
	e.persistLocked()
}

// Forget drops the ledger and its persisted copy without touching the
// server-side cart. Used on sign-out.
func (e *Engine) Forget() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = nil
	e.saved = false
	if err := e.store.Delete(store.KeyShoppingCart); err != nil {
		e.logger.Warn().Err(err).Msg("failed to delete persisted cart")
	}
}

// SyncRemote replaces the server-side cart with the local ledger. Without a
// signed-in session it succeeds as a no-op. The server receives product IDs
// and quantities only, never price snapshots.
func (e *Engine) SyncRemote(ctx context.Context) error {
	if e.remote == nil || e.session == nil || !e.session.Authenticated() {
		return nil
	}

	e.mu.Lock()
	refs := make([]ItemRef, 0, len(e.items))
	for _, line := range e.items {
		refs = append(refs, ItemRef{ProductID: line.Product.ID, Quantity: line.Quantity})
	}
	userID := e.session.UserID()
	e.mu.Unlock()

	return e.remote.ReplaceCart(ctx, userID, refs)
}

// scheduleSync pushes the ledger to the server in the background. Syncs are
// not serialized; every sync carries the full ledger, so out-of-order
// completion is benign (last full write wins).
func (e *Engine) scheduleSync() {
	if e.remote == nil || e.session == nil || !e.session.Authenticated() {
		return
	}
	go func() {
		if err := e.SyncRemote(context.Background()); err != nil {
			e.logger.Warn().Err(err).Msg("remote cart sync failed, local ledger remains authoritative")
		}
	}()
}

// persistLocked writes the ledger to the local store. Caller holds the lock.
func (e *Engine) persistLocked() {
	data, err := json.Marshal(e.items)
	if err == nil {
		err = e.store.Set(store.KeyShoppingCart, data)
	}
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to persist cart")
		return
	}
	e.saved = true
}

func (e *Engine) load() {
	data, err := e.store.Get(store.KeyShoppingCart)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to read persisted cart, starting empty")
		return
	}

	e.saved = true
	var items []Line
	if err := json.Unmarshal(data, &items); err != nil {
		e.logger.Warn().Err(err).Msg("discarding malformed persisted cart")
		return
	}
	e.items = items
}
