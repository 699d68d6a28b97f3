package cart

import (
	"errors"
	"sync"
)

// ErrCheckoutPending is returned while the session's cart is being submitted.
var ErrCheckoutPending = errors.New("cart is being submitted")

// Store keeps one cart per session. Carts live only in memory and are dropped
// on submit, explicit discard, or logout.
type Store struct {
	mu      sync.Mutex
	carts   map[string]*Cart
	pending map[string]bool
}

func NewStore() *Store {
	return &Store{
		carts:   make(map[string]*Cart),
		pending: make(map[string]bool),
	}
}

// Items returns a snapshot of the session's cart.
func (s *Store) Items(session string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[session]
	if !ok {
		return []Item{}
	}
	return c.Items()
}

// Update runs fn against the session's cart under the store lock, creating
// the cart on first use, and returns the resulting items. A failing fn leaves
// the cart as it was. The cart cannot change while a checkout is pending.
func (s *Store) Update(session string, fn func(c *Cart) error) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[session]
	if !ok {
		c = &Cart{}
	}
	if s.pending[session] {
		return c.Items(), ErrCheckoutPending
	}
	work := New(c.items...)
	if err := fn(work); err != nil {
		return c.Items(), err
	}
	if work.Len() == 0 {
		delete(s.carts, session)
	} else {
		s.carts[session] = work
	}
	return work.Items(), nil
}

// Checkout snapshots the session's cart for submission and freezes it until
// Release. Only one checkout per session may be pending. An empty cart is
// returned as is and does not start a checkout.
func (s *Store) Checkout(session string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[session] {
		return nil, ErrCheckoutPending
	}
	c, ok := s.carts[session]
	if !ok || c.Len() == 0 {
		return []Item{}, nil
	}
	s.pending[session] = true
	return c.Items(), nil
}

// Release ends a pending checkout. A submitted cart is dropped, otherwise it
// is kept exactly as it was checked out.
func (s *Store) Release(session string, submitted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, session)
	if submitted {
		delete(s.carts, session)
	}
}

// Drop discards the session's cart.
func (s *Store) Drop(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, session)
}
