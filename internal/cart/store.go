package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/analytics"
)

// Persistence stores the item list of one cart.
type Persistence interface {
	Load() ([]LineItem, error)
	Save(items []LineItem) error
}

type Option func(*Store)

func WithTracker(t analytics.Tracker) Option {
	return func(s *Store) {
		if t != nil {
			s.tracker = t
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store holds one cart. Every method is safe for concurrent use and
// mutations are applied in the order they acquire the lock.
type Store struct {
	mu      sync.Mutex
	items   []LineItem
	isOpen  bool
	persist Persistence
	tracker analytics.Tracker
	log     *slog.Logger
}

func NewStore(p Persistence, opts ...Option) *Store {
	s := &Store{
		persist: p,
		tracker: analytics.Nop{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if p != nil {
		items, err := p.Load()
		if err != nil {
			s.log.Warn("cart load failed, starting empty", "err", err)
		} else {
			s.items = items
		}
	}
	return s
}

// AddItem increments the quantity of an existing item or appends a new one
// with quantity 1. It always opens the cart.
func (s *Store) AddItem(c Candidate) LineItem {
	s.mu.Lock()
	var added LineItem
	if i := s.indexOf(c.ID); i >= 0 {
		s.items[i].Quantity++
		added = s.items[i]
	} else {
		added = c.lineItem()
		s.items = append(s.items, added)
	}
	s.isOpen = true
	s.saveLocked()
	s.mu.Unlock()

	s.tracker.Track(context.Background(), analytics.AddToCart(added.AnalyticsItem(1)))
	return added
}

// RemoveItem deletes the item with id and reports whether it existed.
func (s *Store) RemoveItem(id string) bool {
	s.mu.Lock()
	removed, ok := s.removeLocked(id)
	s.mu.Unlock()

	if ok {
		s.tracker.Track(context.Background(), analytics.RemoveFromCart(removed.AnalyticsItem(removed.Quantity)))
	}
	return ok
}

// UpdateQuantity sets the quantity of id. A quantity of zero or less removes
// the item. Unknown ids are ignored.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(id)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.items[i].Quantity = quantity
	s.saveLocked()
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.saveLocked()
}

// RemoveSubmitted takes the given items out of the cart after they were
// handed to checkout. Units added after the snapshot was taken stay in the
// cart; items that changed to a lower quantity are removed.
func (s *Store) RemoveSubmitted(submitted []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, sub := range submitted {
		i := s.indexOf(sub.ID)
		if i < 0 {
			continue
		}
		changed = true
		if s.items[i].Quantity > sub.Quantity {
			s.items[i].Quantity -= sub.Quantity
			continue
		}
		s.items = append(s.items[:i:i], s.items[i+1:]...)
	}
	if changed {
		s.saveLocked()
	}
}

func (s *Store) Open() {
	s.mu.Lock()
	s.isOpen = true
	s.mu.Unlock()
}

func (s *Store) Close() {
	s.mu.Lock()
	s.isOpen = false
	s.mu.Unlock()
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.items)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.items)
}

// VariantQuantity sums the quantities of every item mapped to the given
// remote variant.
func (s *Store) VariantQuantity(remoteVariantID string) int {
	if remoteVariantID == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if it.RemoteVariantID == remoteVariantID {
			n += it.Quantity
		}
	}
	return n
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Items:      s.copyLocked(),
		TotalItems: totalItems(s.items),
		TotalPrice: totalPrice(s.items),
		IsOpen:     s.isOpen,
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(id string) (LineItem, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return LineItem{}, false
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.saveLocked()
	return removed, true
}

func (s *Store) copyLocked() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// saveLocked writes the current items. Failures are logged only; the
// in-memory cart stays authoritative.
func (s *Store) saveLocked() {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(s.copyLocked()); err != nil {
		s.log.Warn("cart save failed", "err", err, "items", len(s.items))
	}
}

func totalItems(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func totalPrice(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
