package port

import (
	"context"

	"github.com/prabhat76/lincee-cart/internal/domain"
)

// CartGateway is the request layer to the authoritative cart service.
// Implementations map wire DTOs into domain values; items returned by
// ListItems always carry a server id.
type CartGateway interface {
	ListItems(ctx context.Context, userID string) ([]domain.CartItem, error)
	CreateItem(ctx context.Context, userID string, productID int64, quantity int, variant domain.Variant) (int64, error)
	UpdateItem(ctx context.Context, serverID int64, quantity int) error
	DeleteItem(ctx context.Context, serverID int64) (bool, error)
	Clear(ctx context.Context, userID string) error
}

// Session exposes the current user identity. An absent session switches the
// engine into local-only mode: carts work signed-out.
type Session interface {
	UserID() (string, bool)
}

// StaticSession is a fixed-identity Session, enough for wiring and tests.
type StaticSession string

func (s StaticSession) UserID() (string, bool) {
	return string(s), s != ""
}

// CartCache is the injected persistence boundary used for cache warming
// between page loads. The engine never depends on it for correctness.
type CartCache interface {
	Get(userID string) (domain.CartState, bool)
	Put(userID string, state domain.CartState)
	Delete(userID string)
}
