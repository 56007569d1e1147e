package sale

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/errx"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/logx"
	"github.com/MrJamesThe3rd/steppin/internal/metrics"
)

// DefaultMaxRetries bounds how often a commit is retried after a stock conflict.
const DefaultMaxRetries = 3

var maxDiscount = decimal.NewFromInt(50)

// StockSwap is a compare-and-swap on one stock cell: it succeeds only if the
// cell still holds Expected, and must fail with an errx conflict otherwise.
type StockSwap struct {
	ProductID uuid.UUID
	Slot      int
	Expected  int
	Next      int
}

//go:generate mockgen -source=coordinator.go -destination=store_mock.go -package=sale
type Store interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	SwapStock(ctx context.Context, swap StockSwap) error
	AppendSale(ctx context.Context, s *ledger.Sale) error
}

// AtomicStore applies the stock swap and the ledger append as one durable unit.
// CommitSale raises s.Timestamp to the newest committed sale's time when it
// would otherwise fall behind it, so ledger order and timestamp order agree
// without callers serializing commits.
type AtomicStore interface {
	Store
	CommitSale(ctx context.Context, swap StockSwap, s *ledger.Sale) error
}

type Request struct {
	ProductID       uuid.UUID
	Size            string
	Quantity        int
	DiscountPercent decimal.Decimal
	PaymentMethod   ledger.PaymentMethod
	CustomerType    ledger.CustomerType
}

type Option func(*Coordinator)

func WithMaxRetries(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.clock.now = now
	}
}

// Coordinator turns sell requests into committed ledger entries.
// Sells on the same (product, size) cell are serialized by a keyed lock.
// Sells on other cells commit concurrently against an AtomicStore; a
// two-step store falls back to one commit at a time.
type Coordinator struct {
	store      Store
	atomic     AtomicStore
	sizes      catalog.SizeRange
	maxRetries int
	locks      *keyedLock
	clock      monotonicClock

	appendMu sync.Mutex // two-step commits only
}

func NewCoordinator(store Store, sizes catalog.SizeRange, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:      store,
		sizes:      sizes,
		maxRetries: DefaultMaxRetries,
		locks:      newKeyedLock(),
		clock:      monotonicClock{now: time.Now},
	}

	if a, ok := store.(AtomicStore); ok {
		c.atomic = a
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Sell validates the request, checks availability and commits the sale.
// A rejected sell leaves catalog and ledger untouched.
func (c *Coordinator) Sell(ctx context.Context, req Request) (*ledger.Sale, error) {
	s, err := c.sell(ctx, req)
	if err != nil {
		metrics.RecordRejection(string(errx.KindOf(err)))
		return nil, err
	}

	metrics.RecordSale(s.Quantity)

	return s, nil
}

func (c *Coordinator) sell(ctx context.Context, req Request) (*ledger.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slot, ok := c.sizes.Index(req.Size)
	if !ok {
		slot = -1
	}

	unlock, err := c.locks.lock(ctx, stockKey{productID: req.ProductID, slot: slot})
	if err != nil {
		return nil, err
	}
	defer unlock()

	var conflict error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordRetry()
			logx.Debug().
				Str("product_id", req.ProductID.String()).
				Str("size", req.Size).
				Int("attempt", attempt).
				Msg("retrying sale after concurrent stock change")
		}

		product, err := c.store.GetProduct(ctx, req.ProductID)
		if err != nil {
			if errx.Is(err, errx.KindNotFound) {
				return nil, errx.ProductNotFound()
			}

			return nil, fmt.Errorf("loading product: %w", err)
		}

		if err := c.validate(req, slot, product); err != nil {
			return nil, err
		}

		available := product.Stock[slot]
		if available < req.Quantity {
			return nil, errx.InsufficientStock(available)
		}

		// Cancellation is honoured up to here; the commit always runs to an outcome.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		swap := StockSwap{
			ProductID: product.ID,
			Slot:      slot,
			Expected:  available,
			Next:      available - req.Quantity,
		}

		s := &ledger.Sale{
			ID:              uuid.New(),
			ProductID:       product.ID,
			ProductName:     product.Name,
			Size:            c.sizes.Label(slot),
			Quantity:        req.Quantity,
			UnitPrice:       product.Price,
			DiscountPercent: req.DiscountPercent,
			Total:           ledger.LineTotal(product.Price, req.Quantity, req.DiscountPercent),
			PaymentMethod:   req.PaymentMethod,
			CustomerType:    req.CustomerType,
		}

		err = c.commit(context.WithoutCancel(ctx), swap, s)
		if err == nil {
			return s, nil
		}

		if !errx.Is(err, errx.KindConflict) {
			return nil, err
		}

		conflict = err
	}

	return nil, conflict
}

func (c *Coordinator) validate(req Request, slot int, p *catalog.Product) error {
	if req.Quantity <= 0 {
		return errx.InvalidInput("quantity", "must be a positive integer")
	}

	if slot < 0 || slot >= len(p.Stock) {
		return errx.InvalidInput("size", fmt.Sprintf("size %q is not stocked for this product", req.Size))
	}

	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(maxDiscount) {
		return errx.InvalidInput("discount_percent", "must be between 0 and 50")
	}

	if !req.DiscountPercent.Equal(req.DiscountPercent.Round(2)) {
		return errx.InvalidInput("discount_percent", "must have at most 2 decimal places")
	}

	if !req.PaymentMethod.Valid() {
		return errx.InvalidInput("payment_method", fmt.Sprintf("unknown payment method %q", req.PaymentMethod))
	}

	if !req.CustomerType.Valid() {
		return errx.InvalidInput("customer_type", fmt.Sprintf("unknown customer type %q", req.CustomerType))
	}

	return nil
}

// commit writes stock and ledger. An atomic store orders timestamps itself;
// the two-step path holds the append lock so the same holds there.
func (c *Coordinator) commit(ctx context.Context, swap StockSwap, s *ledger.Sale) error {
	if c.atomic != nil {
		s.Timestamp = c.clock.next()

		if err := c.atomic.CommitSale(ctx, swap, s); err != nil {
			return wrapStoreErr("committing sale", err)
		}

		return nil
	}

	c.appendMu.Lock()
	defer c.appendMu.Unlock()

	s.Timestamp = c.clock.next()

	// Stock first, then ledger: a failed append can still be undone.
	if err := c.store.SwapStock(ctx, swap); err != nil {
		return wrapStoreErr("decrementing stock", err)
	}

	appendErr := c.store.AppendSale(ctx, s)
	if appendErr == nil {
		return nil
	}

	undo := StockSwap{ProductID: swap.ProductID, Slot: swap.Slot, Expected: swap.Next, Next: swap.Expected}
	if undoErr := c.store.SwapStock(ctx, undo); undoErr != nil {
		metrics.RecordPartialCommit()
		logx.Error().
			Err(appendErr).
			AnErr("compensation_error", undoErr).
			Str("sale_id", s.ID.String()).
			Str("product_id", s.ProductID.String()).
			Str("product_name", s.ProductName).
			Str("size", s.Size).
			Int("quantity", s.Quantity).
			Int("stock_before", swap.Expected).
			Int("stock_after", swap.Next).
			Str("unit_price", s.UnitPrice.String()).
			Str("discount_percent", s.DiscountPercent.String()).
			Str("total", s.Total.String()).
			Str("payment_method", string(s.PaymentMethod)).
			Str("customer_type", string(s.CustomerType)).
			Time("timestamp", s.Timestamp).
			Msg("partial commit: stock decremented without a ledger entry, manual reconciliation required")

		return errx.PartialCommit(errors.Join(appendErr, undoErr))
	}

	logx.Warn().Err(appendErr).Str("sale_id", s.ID.String()).Msg("ledger append failed, stock restored")

	return fmt.Errorf("appending sale: %w", appendErr)
}

func wrapStoreErr(op string, err error) error {
	if errx.KindOf(err) != "" {
		return err
	}

	return fmt.Errorf("%s: %w", op, err)
}

type monotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// next never returns a time before the previous one. Microsecond precision
// matches what the SQL store can persist.
func (m *monotonicClock) next() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.now().UTC().Truncate(time.Microsecond)
	if t.Before(m.last) {
		t = m.last
	}

	m.last = t

	return t
}
