package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/errx"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/sale"
)

var (
	productsBucket = []byte("products")
	orderBucket    = []byte("product_order")
	salesBucket    = []byte("sales")
	metaBucket     = []byte("meta")

	catalogVersionKey = []byte("catalog_version")
	ledgerVersionKey  = []byte("ledger_version")
)

// Store keeps catalog and ledger in a single bbolt file. Every write runs in
// one db.Update, so a sale commit is one fsync.
type Store struct {
	db *bbolt.DB
}

var (
	_ catalog.Repository = (*Store)(nil)
	_ ledger.Repository  = (*Store)(nil)
	_ sale.AtomicStore   = (*Store)(nil)
)

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{productsBucket, orderBucket, salesBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// productRecord remembers the order key so a delete can drop it.
type productRecord struct {
	Seq     uint64           `json:"seq"`
	Product *catalog.Product `json:"product"`
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)

	return b
}

func bump(tx *bbolt.Tx, key []byte) error {
	meta := tx.Bucket(metaBucket)

	var v uint64
	if raw := meta.Get(key); raw != nil {
		v = binary.BigEndian.Uint64(raw)
	}

	return meta.Put(key, itob(v+1))
}

func (s *Store) version(key []byte) (int64, error) {
	var v int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		if raw := tx.Bucket(metaBucket).Get(key); raw != nil {
			v = int64(binary.BigEndian.Uint64(raw))
		}

		return nil
	})

	return v, err
}

func getRecord(tx *bbolt.Tx, id uuid.UUID) (*productRecord, error) {
	raw := tx.Bucket(productsBucket).Get(id[:])
	if raw == nil {
		return nil, errx.NotFound("product")
	}

	var rec productRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding product %s: %w", id, err)
	}

	return &rec, nil
}

func putRecord(tx *bbolt.Tx, rec *productRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding product: %w", err)
	}

	return tx.Bucket(productsBucket).Put(rec.Product.ID[:], raw)
}

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) error {
	return s.CreateProducts(ctx, []*catalog.Product{p})
}

// CreateProducts writes every product in one bbolt transaction.
func (s *Store) CreateProducts(_ context.Context, ps []*catalog.Product) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, p := range ps {
			if err := insertProduct(tx, p); err != nil {
				return err
			}
		}

		return bump(tx, catalogVersionKey)
	})
}

func insertProduct(tx *bbolt.Tx, p *catalog.Product) error {
	if tx.Bucket(productsBucket).Get(p.ID[:]) != nil {
		return fmt.Errorf("creating product: id %s already exists", p.ID)
	}

	order := tx.Bucket(orderBucket)

	seq, err := order.NextSequence()
	if err != nil {
		return fmt.Errorf("allocating product sequence: %w", err)
	}

	if err := order.Put(itob(seq), p.ID[:]); err != nil {
		return fmt.Errorf("recording product order: %w", err)
	}

	return putRecord(tx, &productRecord{Seq: seq, Product: p})
}

func (s *Store) GetProduct(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	var p *catalog.Product

	err := s.db.View(func(tx *bbolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}

		p = rec.Product

		return nil
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]*catalog.Product, error) {
	var products []*catalog.Product

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(orderBucket).ForEach(func(_, v []byte) error {
			id, err := uuid.FromBytes(v)
			if err != nil {
				return fmt.Errorf("decoding product id: %w", err)
			}

			rec, err := getRecord(tx, id)
			if err != nil {
				return err
			}

			products = append(products, rec.Product)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) UpdateProduct(_ context.Context, p *catalog.Product) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := getRecord(tx, p.ID)
		if err != nil {
			return err
		}

		rec.Product.Name = p.Name
		rec.Product.Price = p.Price
		rec.Product.Category = p.Category

		if err := putRecord(tx, rec); err != nil {
			return err
		}

		return bump(tx, catalogVersionKey)
	})
}

func (s *Store) SetStock(_ context.Context, id uuid.UUID, slot, quantity int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}

		if slot < 0 || slot >= len(rec.Product.Stock) {
			return fmt.Errorf("setting stock: slot %d out of range", slot)
		}

		rec.Product.Stock[slot] = quantity

		if err := putRecord(tx, rec); err != nil {
			return err
		}

		return bump(tx, catalogVersionKey)
	})
}

func (s *Store) DeleteProduct(_ context.Context, id uuid.UUID) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := getRecord(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Bucket(orderBucket).Delete(itob(rec.Seq)); err != nil {
			return fmt.Errorf("deleting product order: %w", err)
		}

		if err := tx.Bucket(productsBucket).Delete(id[:]); err != nil {
			return fmt.Errorf("deleting product: %w", err)
		}

		return bump(tx, catalogVersionKey)
	})
}

func (s *Store) CatalogVersion(_ context.Context) (int64, error) {
	return s.version(catalogVersionKey)
}

func (s *Store) AppendSale(_ context.Context, sl *ledger.Sale) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return appendSale(tx, sl)
	})
}

func appendSale(tx *bbolt.Tx, sl *ledger.Sale) error {
	sales := tx.Bucket(salesBucket)

	seq, err := sales.NextSequence()
	if err != nil {
		return fmt.Errorf("allocating sale sequence: %w", err)
	}

	raw, err := json.Marshal(sl)
	if err != nil {
		return fmt.Errorf("encoding sale: %w", err)
	}

	if err := sales.Put(itob(seq), raw); err != nil {
		return fmt.Errorf("appending sale: %w", err)
	}

	return bump(tx, ledgerVersionKey)
}

func (s *Store) ListSales(_ context.Context, filter ledger.Filter) ([]*ledger.Sale, error) {
	var out []*ledger.Sale

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(salesBucket).ForEach(func(_, v []byte) error {
			var sl ledger.Sale
			if err := json.Unmarshal(v, &sl); err != nil {
				return fmt.Errorf("decoding sale: %w", err)
			}

			if filter.Match(sl.Timestamp) {
				out = append(out, &sl)
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Store) LedgerVersion(_ context.Context) (int64, error) {
	return s.version(ledgerVersionKey)
}

func (s *Store) SwapStock(_ context.Context, swap sale.StockSwap) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return swapStock(tx, swap)
	})
}

func swapStock(tx *bbolt.Tx, swap sale.StockSwap) error {
	rec, err := getRecord(tx, swap.ProductID)
	if err != nil {
		if errx.Is(err, errx.KindNotFound) {
			return errx.Conflict(fmt.Errorf("product %s disappeared", swap.ProductID))
		}

		return err
	}

	stock := rec.Product.Stock
	if swap.Slot < 0 || swap.Slot >= len(stock) {
		return fmt.Errorf("swapping stock: slot %d out of range", swap.Slot)
	}

	if stock[swap.Slot] != swap.Expected {
		return errx.Conflict(fmt.Errorf("expected %d in stock, found %d", swap.Expected, stock[swap.Slot]))
	}

	stock[swap.Slot] = swap.Next

	if err := putRecord(tx, rec); err != nil {
		return err
	}

	return bump(tx, catalogVersionKey)
}

func (s *Store) CommitSale(_ context.Context, swap sale.StockSwap, sl *ledger.Sale) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := swapStock(tx, swap); err != nil {
			return err
		}

		last, err := lastSaleTime(tx)
		if err != nil {
			return err
		}

		sl.Timestamp = ledger.NotBefore(sl.Timestamp, last)

		return appendSale(tx, sl)
	})
}

// lastSaleTime reads the newest ledger entry. bbolt runs one writer at a
// time, so nothing can be appended behind it within this transaction.
func lastSaleTime(tx *bbolt.Tx) (time.Time, error) {
	_, v := tx.Bucket(salesBucket).Cursor().Last()
	if v == nil {
		return time.Time{}, nil
	}

	var last struct {
		Timestamp time.Time `json:"timestamp"`
	}

	if err := json.Unmarshal(v, &last); err != nil {
		return time.Time{}, fmt.Errorf("decoding last sale: %w", err)
	}

	return last.Timestamp, nil
}
