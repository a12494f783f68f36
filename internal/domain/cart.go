package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Variant identifies a specific purchasable variation of a product.
type Variant struct {
	Size  string
	Color string
}

// ItemKey is the identity key of a cart line: two items with the same
// product but different variants are distinct lines.
type ItemKey struct {
	ProductID int64
	Variant   Variant
}

// CartItem is one line in the cart.
//
// ServerID is the identifier assigned by the cart service; zero means the
// item is provisional (created locally, not yet acknowledged).
type CartItem struct {
	ProductID int64
	ServerID  int64
	Quantity  int
	Variant   Variant

	// Denormalized display data, canonical only after a server reload.
	UnitPrice   Money
	DisplayName string
	ImageRef    string
}

func (i CartItem) Key() ItemKey {
	return ItemKey{ProductID: i.ProductID, Variant: i.Variant}
}

// Provisional reports whether the item has not yet been acknowledged by the
// cart service.
func (i CartItem) Provisional() bool {
	return i.ServerID == 0
}

// CartState is the reconciled view of a cart. Items is keyed by identity
// key; display ordering is a consumer concern. Totals are always derived,
// never stored.
type CartState struct {
	Items map[ItemKey]CartItem
}

func EmptyCart() CartState {
	return CartState{Items: map[ItemKey]CartItem{}}
}

// Clone returns an independent deep copy, usable as a rollback snapshot.
func (s CartState) Clone() CartState {
	items := make(map[ItemKey]CartItem, len(s.Items))
	for k, v := range s.Items {
		items[k] = v
	}
	return CartState{Items: items}
}

func (s CartState) ItemCount() int {
	var count int
	for _, item := range s.Items {
		count += item.Quantity
	}
	return count
}

// Total recomputes the cart total as the sum of quantity times unit price.
func (s CartState) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		line := item.UnitPrice.Amount.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

func (s CartState) Get(key ItemKey) (CartItem, bool) {
	item, ok := s.Items[key]
	return item, ok
}

// With returns a copy of the state with item inserted or replaced under its
// identity key. The receiver is not modified.
func (s CartState) With(item CartItem) CartState {
	next := s.Clone()
	next.Items[item.Key()] = item
	return next
}

// Without returns a copy of the state with the keyed item removed.
func (s CartState) Without(key ItemKey) CartState {
	next := s.Clone()
	delete(next.Items, key)
	return next
}

// Validate checks the structural invariants: every item is stored under its
// own identity key and carries a positive quantity.
func (s CartState) Validate() error {
	for key, item := range s.Items {
		if item.Key() != key {
			return fmt.Errorf("item stored under wrong key: %v vs %v", key, item.Key())
		}
		if item.Quantity < 1 {
			return fmt.Errorf("item %v has non-positive quantity %d", key, item.Quantity)
		}
		if item.UnitPrice.Amount.IsNegative() {
			return fmt.Errorf("item %v has negative unit price", key)
		}
	}
	return nil
}

// FromRemote rebuilds a CartState from the gateway's item list. Duplicate
// identity keys are merged by summing quantities, keeping the first seen
// server id.
func FromRemote(items []CartItem) CartState {
	state := EmptyCart()
	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		if existing, ok := state.Items[item.Key()]; ok {
			existing.Quantity += item.Quantity
			state.Items[item.Key()] = existing
			continue
		}
		state.Items[item.Key()] = item
	}
	return state
}
