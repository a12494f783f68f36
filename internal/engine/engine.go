package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"github.com/prabhat76/lincee-cart/internal/domain"
	"github.com/prabhat76/lincee-cart/internal/port"
	"github.com/prabhat76/lincee-cart/internal/store"
)

// ErrSyncPending signals that the targeted item is still waiting for server
// acknowledgement. The optimistic change was rolled back; the caller should
// retry shortly. It is a condition, not a failure of the cart itself.
var ErrSyncPending = errors.New("cart synchronization pending, try again shortly")

// placeholderName is shown for an optimistic item until the canonical
// reload fills in real display data.
const placeholderName = "loading…"

// Engine keeps the local cart consistent with the authoritative cart
// service. Every public operation applies its optimistic mutation
// synchronously and returns a one-shot channel that later carries the
// outcome of the server round trip.
//
// The engine is the only writer of the store. A per-key uuid token guards
// item operations against stale responses; a state epoch guards wholesale
// reloads the same way.
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	gateway port.CartGateway
	session port.Session
	cache   port.CartCache
	logger  *zap.Logger
	unit    currency.Unit

	epoch    uint64
	inflight map[domain.ItemKey]uuid.UUID

	wg sync.WaitGroup
}

type Option func(*Engine)

// WithCache injects the session cart cache used for warm starts. The
// engine's correctness never depends on it.
func WithCache(cache port.CartCache) Option {
	return func(e *Engine) { e.cache = cache }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithCurrency sets the currency used for placeholder prices of optimistic
// items.
func WithCurrency(unit currency.Unit) Option {
	return func(e *Engine) { e.unit = unit }
}

func New(gateway port.CartGateway, session port.Session, opts ...Option) (*Engine, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is nil")
	}
	if session == nil {
		return nil, fmt.Errorf("session is nil")
	}

	e := &Engine{
		store:    store.New(),
		gateway:  gateway,
		session:  session,
		logger:   zap.NewNop(),
		unit:     currency.EUR,
		inflight: map[domain.ItemKey]uuid.UUID{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.cache != nil {
		if userID, ok := e.session.UserID(); ok {
			if cached, ok := e.cache.Get(userID); ok {
				e.store.Replace(cached)
			}
		}
	}

	return e, nil
}

// Current returns the current reconciled cart state.
func (e *Engine) Current() domain.CartState { return e.store.Current() }

func (e *Engine) ItemCount() int { return e.store.ItemCount() }

func (e *Engine) Total() decimal.Decimal { return e.store.Total() }

// Subscribe exposes the store's push-based state feed.
func (e *Engine) Subscribe() (<-chan domain.CartState, func()) { return e.store.Subscribe() }

// Wait blocks until all in-flight gateway calls have settled.
func (e *Engine) Wait() { e.wg.Wait() }

// Load fetches the full item list and replaces the store wholesale. The
// store is left untouched on failure, and a reload superseded by a local
// mutation is discarded.
func (e *Engine) Load(ctx context.Context) <-chan error {
	userID, ok := e.session.UserID()
	if !ok {
		return done(nil)
	}

	e.mu.Lock()
	issued := e.epoch
	e.mu.Unlock()

	out := make(chan error, 1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		items, err := e.gateway.ListItems(ctx, userID)

		e.mu.Lock()
		defer e.mu.Unlock()

		if err != nil {
			out <- fmt.Errorf("gateway.ListItems: %w", err)
			return
		}

		if e.epoch != issued {
			e.logger.Debug("discarding stale reload", zap.String("user", userID))
			out <- nil
			return
		}

		e.applyLocked(domain.FromRemote(items), userID)
		out <- nil
	}()
	return out
}

// AddItem inserts a provisional item optimistically and asks the server to
// create it. Adding an already-confirmed identity key turns into a quantity
// update, never a duplicate create. On create success the server id is
// written onto the optimistic item before the canonical reload is
// triggered, so a rapid follow-up operation sees a confirmed item.
func (e *Engine) AddItem(ctx context.Context, productID int64, quantity int, variant domain.Variant) <-chan error {
	if quantity < 1 {
		return done(fmt.Errorf("quantity[%d] is not positive", quantity))
	}

	userID, signedIn := e.session.UserID()
	key := domain.ItemKey{ProductID: productID, Variant: variant}

	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.store.Current()
	snapshot := state.Clone()

	if existing, found := state.Get(key); found {
		// Same identity key: merge quantities instead of creating a
		// duplicate server-side line.
		return e.changeQuantityLocked(ctx, userID, signedIn, snapshot, existing, existing.Quantity+quantity)
	}

	item := domain.CartItem{
		ProductID:   productID,
		Quantity:    quantity,
		Variant:     variant,
		UnitPrice:   domain.ZeroMoney(e.unit),
		DisplayName: placeholderName,
	}
	e.applyLocked(state.With(item), userID)

	if !signedIn {
		return done(nil)
	}

	token := uuid.New()
	e.inflight[key] = token

	out := make(chan error, 1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		serverID, err := e.gateway.CreateItem(ctx, userID, productID, quantity, variant)

		e.mu.Lock()

		if e.inflight[key] != token {
			e.mu.Unlock()
			e.logger.Debug("discarding stale create response", zap.Int64("product", productID))
			out <- nil
			return
		}
		delete(e.inflight, key)

		if err != nil {
			e.logger.Warn("create failed, rolling back",
				zap.Int64("product", productID), zap.Error(err))
			e.applyLocked(snapshot, userID)
			e.mu.Unlock()
			out <- fmt.Errorf("gateway.CreateItem: %w", err)
			return
		}

		current := e.store.Current()
		optimistic, ok := current.Get(key)
		if !ok || !optimistic.Provisional() {
			// The optimistic item is gone or was confirmed by another
			// path: treat this response as redundant and reconcile from
			// the server instead of trusting either branch.
			e.mu.Unlock()
			e.Load(ctx)
			out <- nil
			return
		}

		optimistic.ServerID = serverID
		e.applyLocked(current.With(optimistic), userID)
		e.mu.Unlock()

		// Canonical price and display data.
		e.Load(ctx)
		out <- nil
	}()
	return out
}

// UpdateQuantity applies a signed increment to an item's quantity. A
// resulting quantity of zero or less removes the item.
func (e *Engine) UpdateQuantity(ctx context.Context, productID int64, delta int, variant domain.Variant) <-chan error {
	userID, signedIn := e.session.UserID()
	key := domain.ItemKey{ProductID: productID, Variant: variant}

	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.store.Current()
	snapshot := state.Clone()

	item, found := state.Get(key)
	if !found {
		return done(nil)
	}

	target := item.Quantity + delta
	if target <= 0 {
		return e.removeLocked(ctx, userID, signedIn, snapshot, item)
	}

	return e.changeQuantityLocked(ctx, userID, signedIn, snapshot, item, target)
}

// RemoveItem deletes the item optimistically. Removing a provisional item
// is a pure client-side operation: the in-flight create response, if any,
// will be discarded by its token.
func (e *Engine) RemoveItem(ctx context.Context, productID int64, variant domain.Variant) <-chan error {
	userID, signedIn := e.session.UserID()
	key := domain.ItemKey{ProductID: productID, Variant: variant}

	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.store.Current()
	snapshot := state.Clone()

	item, found := state.Get(key)
	if !found {
		return done(nil)
	}

	return e.removeLocked(ctx, userID, signedIn, snapshot, item)
}

// Clear empties the cart optimistically and issues a bulk clear.
func (e *Engine) Clear(ctx context.Context) <-chan error {
	userID, signedIn := e.session.UserID()

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.store.Current()

	// Invalidate every in-flight per-key operation: whatever lands after
	// this point refers to a cart that no longer exists locally.
	e.inflight = map[domain.ItemKey]uuid.UUID{}
	e.applyLocked(domain.EmptyCart(), userID)

	if !signedIn {
		return done(nil)
	}
	if e.cache != nil {
		e.cache.Delete(userID)
	}

	out := make(chan error, 1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		err := e.gateway.Clear(ctx, userID)

		e.mu.Lock()
		defer e.mu.Unlock()

		if err != nil {
			e.logger.Warn("clear failed, rolling back", zap.Error(err))
			e.applyLocked(snapshot, userID)
			out <- fmt.Errorf("gateway.Clear: %w", err)
			return
		}
		out <- nil
	}()
	return out
}

// changeQuantityLocked sets the item's quantity to target optimistically
// and issues the server update. Callers hold e.mu.
//
// A provisional target cannot be updated server-side (its create is still
// in flight), so the optimistic change is rolled back and ErrSyncPending
// reported instead of risking a duplicate create.
func (e *Engine) changeQuantityLocked(ctx context.Context, userID string, signedIn bool, snapshot domain.CartState, item domain.CartItem, target int) <-chan error {
	key := item.Key()

	updated := item
	updated.Quantity = target
	e.applyLocked(e.store.Current().With(updated), userID)

	if !signedIn {
		return done(nil)
	}

	if item.Provisional() {
		e.logger.Debug("update against provisional item, rolling back",
			zap.Int64("product", item.ProductID))
		e.applyLocked(snapshot, userID)
		return done(ErrSyncPending)
	}

	token := uuid.New()
	e.inflight[key] = token

	out := make(chan error, 1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		err := e.gateway.UpdateItem(ctx, item.ServerID, target)

		e.mu.Lock()

		if e.inflight[key] != token {
			e.mu.Unlock()
			e.logger.Debug("discarding stale update response", zap.Int64("serverID", item.ServerID))
			out <- nil
			return
		}
		delete(e.inflight, key)

		if err != nil {
			e.logger.Warn("update failed, rolling back",
				zap.Int64("serverID", item.ServerID), zap.Error(err))
			e.applyLocked(snapshot, userID)
			e.mu.Unlock()
			out <- fmt.Errorf("gateway.UpdateItem: %w", err)
			return
		}

		// An update merged into a line created moments ago supersedes that
		// create's canonical reload; if the line still shows placeholder
		// data, pull the real fields now.
		current, ok := e.store.Current().Get(key)
		needsReload := ok && current.DisplayName == placeholderName
		e.mu.Unlock()

		if needsReload {
			e.Load(ctx)
		}
		out <- nil
	}()
	return out
}

// removeLocked deletes the item optimistically and, for confirmed items,
// issues the server delete. Callers hold e.mu.
func (e *Engine) removeLocked(ctx context.Context, userID string, signedIn bool, snapshot domain.CartState, item domain.CartItem) <-chan error {
	key := item.Key()

	// A pending create response for this key must not resurrect the item.
	delete(e.inflight, key)
	e.applyLocked(e.store.Current().Without(key), userID)

	if !signedIn || item.Provisional() {
		// Canceling a not-yet-confirmed add is purely local.
		return done(nil)
	}

	token := uuid.New()
	e.inflight[key] = token

	out := make(chan error, 1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		_, err := e.gateway.DeleteItem(ctx, item.ServerID)

		e.mu.Lock()
		defer e.mu.Unlock()

		if e.inflight[key] != token {
			e.logger.Debug("discarding stale delete response", zap.Int64("serverID", item.ServerID))
			out <- nil
			return
		}
		delete(e.inflight, key)

		if err != nil {
			e.logger.Warn("delete failed, rolling back",
				zap.Int64("serverID", item.ServerID), zap.Error(err))
			e.applyLocked(snapshot, userID)
			out <- fmt.Errorf("gateway.DeleteItem: %w", err)
			return
		}
		out <- nil
	}()
	return out
}

// applyLocked replaces the store state, bumps the epoch and writes through
// to the session cache. Callers hold e.mu.
func (e *Engine) applyLocked(state domain.CartState, userID string) {
	e.epoch++
	e.store.Replace(state)
	if e.cache != nil && userID != "" {
		e.cache.Put(userID, state)
	}
}

func done(err error) <-chan error {
	out := make(chan error, 1)
	out <- err
	return out
}
