package store

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/prabhat76/lincee-cart/internal/domain"
)

// Store holds the single current CartState and publishes it to subscribers.
// Mutations always replace the whole value, so a consumer holding a
// previously read state never observes a half-applied update.
type Store struct {
	mu    sync.RWMutex
	state domain.CartState
	subs  map[int]chan domain.CartState
	next  int
}

func New() *Store {
	return &Store{
		state: domain.EmptyCart(),
		subs:  map[int]chan domain.CartState{},
	}
}

// Current returns a copy of the current state.
func (s *Store) Current() domain.CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Clone()
}

// Replace swaps in a new state wholesale and notifies subscribers.
func (s *Store) Replace(state domain.CartState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state.Clone()
	for _, ch := range s.subs {
		// Conflate: drop the stale pending value so the latest always wins
		// and publishing never blocks.
		select {
		case <-ch:
		default:
		}
		ch <- s.state.Clone()
	}
}

func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.ItemCount()
}

func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Total()
}

// Subscribe registers a push-based consumer. The returned channel has a
// buffer of one and always carries the latest state; the cancel func
// unregisters and closes it.
func (s *Store) Subscribe() (<-chan domain.CartState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++

	ch := make(chan domain.CartState, 1)
	ch <- s.state.Clone()
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if ch, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
