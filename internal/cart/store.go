// Package cart holds the in-memory sale staging area of one session.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"go-sklad/internal/models"
)

// CapPolicy decides what happens when merged quantities exceed the stock
// snapshot a line was taken from.
type CapPolicy int

const (
	// CapToAvailable clamps selectedQuantity to the snapshot quantity on every add.
	CapToAvailable CapPolicy = iota
	// NoCap sums quantities without an upper bound.
	NoCap
)

func ParseCapPolicy(s string) CapPolicy {
	if s == "none" {
		return NoCap
	}
	return CapToAvailable
}

// Store is a single session's cart. All methods are safe for concurrent use;
// writers are serialized so callers always read their own writes.
type Store struct {
	mu      sync.RWMutex
	order   []string
	lines   map[string]*models.CartLine
	policy  CapPolicy
	unknown string
}

type Option func(*Store)

func WithCapPolicy(p CapPolicy) Option {
	return func(s *Store) { s.policy = p }
}

func WithUnknownSupplier(name string) Option {
	return func(s *Store) { s.unknown = name }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		lines:   make(map[string]*models.CartLine),
		unknown: models.UnknownSupplier,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddToCart inserts unit with selectedQuantity, or increases the quantity of
// the existing line with the same id. A new line sells at the unit's local price.
// Adding again refreshes the line's stock snapshot from unit and keeps the
// selling price already set.
func (s *Store) AddToCart(unit models.WarehouseRecord, selectedQuantity int) models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if line, ok := s.lines[unit.ID]; ok {
		line.WarehouseRecord = unit
		line.Stage = models.StageReserved
		line.SelectedQuantity = s.capped(line.SelectedQuantity+selectedQuantity, unit.Quantity)
		return *line
	}
	line := &models.CartLine{
		WarehouseRecord:  unit,
		SelectedQuantity: s.capped(selectedQuantity, unit.Quantity),
		SellingPrice:     unit.PriceTenge,
	}
	line.Stage = models.StageReserved
	s.lines[unit.ID] = line
	s.order = append(s.order, unit.ID)
	return *line
}

func (s *Store) capped(qty, available int) int {
	if s.policy == CapToAvailable && qty > available {
		return available
	}
	return qty
}

// UpdateItem overwrites quantity and selling price without any range check.
func (s *Store) UpdateItem(id string, quantity int, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line, ok := s.lines[id]; ok {
		line.SelectedQuantity = quantity
		line.SellingPrice = price
	}
}

func (s *Store) RemoveFromCart(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(func(l *models.CartLine) bool { return l.ID == id })
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.lines = make(map[string]*models.CartLine)
}

// CompleteSupplierPurchase drops every line of the supplier group. The
// unknown-supplier key also matches lines with an empty supplier.
func (s *Store) CompleteSupplierPurchase(supplier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(func(l *models.CartLine) bool {
		return models.SupplierKey(l.Supplier, s.unknown) == supplier
	})
}

func (s *Store) removeLocked(drop func(*models.CartLine) bool) {
	kept := s.order[:0]
	for _, id := range s.order {
		if drop(s.lines[id]) {
			delete(s.lines, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

// Items returns copies of the lines in insertion order.
func (s *Store) Items() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CartLine, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.lines[id])
	}
	return out
}

func (s *Store) Get(id string) (models.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	line, ok := s.lines[id]
	if !ok {
		return models.CartLine{}, false
	}
	return *line, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) GetGroupedItems() models.Groups[models.CartLine] {
	return models.GroupBySupplier(s.Items(), s.unknown)
}

func (s *Store) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Items() {
		total = total.Add(line.LineTotal())
	}
	return total
}

// UnknownSupplier is the group key used for lines without a supplier.
func (s *Store) UnknownSupplier() string {
	return s.unknown
}
