package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/errx"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/sale"
)

// Store keeps catalog and ledger in process memory. Values are copied on the
// way in and out so callers never alias stored state.
type Store struct {
	mu             sync.RWMutex
	products       map[uuid.UUID]*catalog.Product
	order          []uuid.UUID
	sales          []*ledger.Sale
	catalogVersion int64
	ledgerVersion  int64
}

func New() *Store {
	return &Store{products: make(map[uuid.UUID]*catalog.Product)}
}

var (
	_ catalog.Repository = (*Store)(nil)
	_ ledger.Repository  = (*Store)(nil)
	_ sale.AtomicStore   = (*Store)(nil)
)

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) error {
	return s.CreateProducts(ctx, []*catalog.Product{p})
}

// CreateProducts adds all products or none.
func (s *Store) CreateProducts(_ context.Context, ps []*catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(ps))

	for _, p := range ps {
		_, dup := seen[p.ID]
		if _, exists := s.products[p.ID]; exists || dup {
			return fmt.Errorf("creating product: id %s already exists", p.ID)
		}

		seen[p.ID] = struct{}{}
	}

	for _, p := range ps {
		s.products[p.ID] = p.Clone()
		s.order = append(s.order, p.ID)
	}

	s.catalogVersion++

	return nil
}

func (s *Store) GetProduct(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errx.NotFound("product")
	}

	return p.Clone(), nil
}

func (s *Store) ListProducts(_ context.Context) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.products[id].Clone())
	}

	return out, nil
}

// UpdateProduct writes descriptive fields only; stock cells are left alone.
func (s *Store) UpdateProduct(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.products[p.ID]
	if !ok {
		return errx.NotFound("product")
	}

	cur.Name = p.Name
	cur.Price = p.Price
	cur.Category = p.Category
	s.catalogVersion++

	return nil
}

func (s *Store) SetStock(_ context.Context, id uuid.UUID, slot, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return errx.NotFound("product")
	}

	if slot < 0 || slot >= len(p.Stock) {
		return fmt.Errorf("setting stock: slot %d out of range", slot)
	}

	p.Stock[slot] = quantity
	s.catalogVersion++

	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return errx.NotFound("product")
	}

	delete(s.products, id)

	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.catalogVersion++

	return nil
}

func (s *Store) CatalogVersion(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.catalogVersion, nil
}

func (s *Store) AppendSale(_ context.Context, sl *ledger.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(sl)

	return nil
}

func (s *Store) appendLocked(sl *ledger.Sale) {
	c := *sl
	s.sales = append(s.sales, &c)
	s.ledgerVersion++
}

func (s *Store) ListSales(_ context.Context, filter ledger.Filter) ([]*ledger.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.Sale

	for _, sl := range s.sales {
		if !filter.Match(sl.Timestamp) {
			continue
		}

		c := *sl
		out = append(out, &c)
	}

	return out, nil
}

func (s *Store) LedgerVersion(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledgerVersion, nil
}

func (s *Store) SwapStock(_ context.Context, swap sale.StockSwap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.swapLocked(swap)
}

func (s *Store) swapLocked(swap sale.StockSwap) error {
	p, ok := s.products[swap.ProductID]
	if !ok {
		return errx.Conflict(fmt.Errorf("product %s disappeared", swap.ProductID))
	}

	if swap.Slot < 0 || swap.Slot >= len(p.Stock) {
		return fmt.Errorf("swapping stock: slot %d out of range", swap.Slot)
	}

	if p.Stock[swap.Slot] != swap.Expected {
		return errx.Conflict(fmt.Errorf("expected %d in stock, found %d", swap.Expected, p.Stock[swap.Slot]))
	}

	p.Stock[swap.Slot] = swap.Next
	s.catalogVersion++

	return nil
}

func (s *Store) CommitSale(_ context.Context, swap sale.StockSwap, sl *ledger.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.swapLocked(swap); err != nil {
		return err
	}

	if n := len(s.sales); n > 0 {
		sl.Timestamp = ledger.NotBefore(sl.Timestamp, s.sales[n-1].Timestamp)
	}

	s.appendLocked(sl)

	return nil
}
