package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/errx"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/sale"
)

const (
	catalogCounter = "catalog"
	ledgerCounter  = "ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var (
	_ catalog.Repository = (*Store)(nil)
	_ ledger.Repository  = (*Store)(nil)
	_ sale.AtomicStore   = (*Store)(nil)
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// snapshot gives multi-statement reads one consistent view.
var snapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.runTx(ctx, nil, fn)
}

func (s *Store) runTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(dbTx); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func bump(ctx context.Context, q execer, counter string) error {
	if _, err := q.ExecContext(ctx, `UPDATE pos_versions SET value = value + 1 WHERE name = $1`, counter); err != nil {
		return fmt.Errorf("bumping %s version: %w", counter, err)
	}

	return nil
}

func version(ctx context.Context, q execer, counter string) (int64, error) {
	var v int64

	err := q.QueryRowContext(ctx, `SELECT value FROM pos_versions WHERE name = $1`, counter).Scan(&v)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}

		return 0, fmt.Errorf("reading %s version: %w", counter, err)
	}

	return v, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) error {
	return s.CreateProducts(ctx, []*catalog.Product{p})
}

// CreateProducts inserts every product in one transaction; any failure
// leaves none of them behind.
func (s *Store) CreateProducts(ctx context.Context, ps []*catalog.Product) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range ps {
			if err := insertProduct(ctx, tx, p); err != nil {
				return err
			}
		}

		return bump(ctx, tx, catalogCounter)
	})
}

func insertProduct(ctx context.Context, q execer, p *catalog.Product) error {
	query := `
		INSERT INTO products (id, name, price, category, date_added)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := q.ExecContext(ctx, query, p.ID, p.Name, p.Price, p.Category, p.DateAdded); err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}

	for slot, qty := range p.Stock {
		_, err := q.ExecContext(ctx,
			`INSERT INTO product_stock (product_id, slot, quantity) VALUES ($1, $2, $3)`,
			p.ID, slot, qty,
		)
		if err != nil {
			return fmt.Errorf("creating stock row %d: %w", slot, err)
		}
	}

	return nil
}

func scanProduct(s scanner) (*catalog.Product, error) {
	var p catalog.Product

	if err := s.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.DateAdded); err != nil {
		return nil, err
	}

	p.DateAdded = p.DateAdded.UTC()

	return &p, nil
}

// loadStock groups stock cells by product. An empty id loads every product.
func loadStock(ctx context.Context, q execer, id uuid.UUID) (map[uuid.UUID][]int, error) {
	query := `SELECT product_id, slot, quantity FROM product_stock`

	var args []any

	if id != uuid.Nil {
		query += ` WHERE product_id = $1`

		args = append(args, id)
	}

	query += ` ORDER BY product_id, slot`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading stock: %w", err)
	}
	defer rows.Close()

	stock := make(map[uuid.UUID][]int)

	for rows.Next() {
		var (
			pid       uuid.UUID
			slot, qty int
		)

		if err := rows.Scan(&pid, &slot, &qty); err != nil {
			return nil, fmt.Errorf("scanning stock: %w", err)
		}

		cells := stock[pid]
		for len(cells) <= slot {
			cells = append(cells, 0)
		}

		cells[slot] = qty
		stock[pid] = cells
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock rows: %w", err)
	}

	return stock, nil
}

const selectProductColumns = `id, name, price, category, date_added`

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var p *catalog.Product

	err := s.runTx(ctx, snapshot, func(tx *sql.Tx) error {
		var err error
		p, err = getProduct(ctx, tx, id)

		return err
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

func getProduct(ctx context.Context, q execer, id uuid.UUID) (*catalog.Product, error) {
	query := `SELECT ` + selectProductColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errx.NotFound("product")
		}

		return nil, fmt.Errorf("getting product: %w", err)
	}

	stock, err := loadStock(ctx, q, id)
	if err != nil {
		return nil, err
	}

	p.Stock = stock[id]

	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	var products []*catalog.Product

	err := s.runTx(ctx, snapshot, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+selectProductColumns+` FROM products ORDER BY seq ASC`)
		if err != nil {
			return fmt.Errorf("listing products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return fmt.Errorf("scanning product: %w", err)
			}

			products = append(products, p)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating product rows: %w", err)
		}

		stock, err := loadStock(ctx, tx, uuid.Nil)
		if err != nil {
			return err
		}

		for _, p := range products {
			p.Stock = stock[p.ID]
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE products
			SET name = $1, price = $2, category = $3
			WHERE id = $4
		`

		res, err := tx.ExecContext(ctx, query, p.Name, p.Price, p.Category, p.ID)
		if err != nil {
			return fmt.Errorf("updating product: %w", err)
		}

		if err := expectRow(res, errx.NotFound("product")); err != nil {
			return err
		}

		return bump(ctx, tx, catalogCounter)
	})
}

func (s *Store) SetStock(ctx context.Context, id uuid.UUID, slot, quantity int) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE product_stock
			SET quantity = $1
			WHERE product_id = $2 AND slot = $3
		`

		res, err := tx.ExecContext(ctx, query, quantity, id, slot)
		if err != nil {
			return fmt.Errorf("setting stock: %w", err)
		}

		if err := expectRow(res, errx.NotFound("product")); err != nil {
			return err
		}

		return bump(ctx, tx, catalogCounter)
	})
}

func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting product: %w", err)
		}

		if err := expectRow(res, errx.NotFound("product")); err != nil {
			return err
		}

		return bump(ctx, tx, catalogCounter)
	})
}

func (s *Store) CatalogVersion(ctx context.Context) (int64, error) {
	return version(ctx, s.db, catalogCounter)
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return notFound
	}

	return nil
}

func (s *Store) AppendSale(ctx context.Context, sl *ledger.Sale) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return appendSale(ctx, tx, sl)
	})
}

// appendSale bumps the ledger counter before inserting. The row lock that
// takes is held to commit, so appends land one at a time in seq order.
func appendSale(ctx context.Context, q execer, sl *ledger.Sale) error {
	if err := bump(ctx, q, ledgerCounter); err != nil {
		return err
	}

	return insertSale(ctx, q, sl)
}

func insertSale(ctx context.Context, q execer, sl *ledger.Sale) error {
	query := `
		INSERT INTO sales (
			id, product_id, product_name, size, quantity, unit_price,
			discount_percent, total, payment_method, customer_type, sold_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := q.ExecContext(ctx, query,
		sl.ID,
		sl.ProductID,
		sl.ProductName,
		sl.Size,
		sl.Quantity,
		sl.UnitPrice,
		sl.DiscountPercent,
		sl.Total,
		sl.PaymentMethod,
		sl.CustomerType,
		sl.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("appending sale: %w", err)
	}

	return nil
}

// lastSaleTime must run after the ledger counter is bumped, so it sees every
// sale committed before this one.
func lastSaleTime(ctx context.Context, q execer) (time.Time, error) {
	var last sql.NullTime

	if err := q.QueryRowContext(ctx, `SELECT MAX(sold_at) FROM sales`).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("reading last sale time: %w", err)
	}

	if !last.Valid {
		return time.Time{}, nil
	}

	return last.Time.UTC(), nil
}

func (s *Store) ListSales(ctx context.Context, filter ledger.Filter) ([]*ledger.Sale, error) {
	query := `
		SELECT id, product_id, product_name, size, quantity, unit_price,
			discount_percent, total, payment_method, customer_type, sold_at
		FROM sales
		WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.From != nil {
		query += fmt.Sprintf(" AND sold_at >= $%d", argIdx)

		args = append(args, *filter.From)
		argIdx++
	}

	if filter.To != nil {
		query += fmt.Sprintf(" AND sold_at < $%d", argIdx)

		args = append(args, *filter.To)
	}

	query += " ORDER BY seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	defer rows.Close()

	var sales []*ledger.Sale

	for rows.Next() {
		var (
			sl              ledger.Sale
			method, custype string
			ts              time.Time
		)

		if err := rows.Scan(
			&sl.ID, &sl.ProductID, &sl.ProductName, &sl.Size, &sl.Quantity, &sl.UnitPrice,
			&sl.DiscountPercent, &sl.Total, &method, &custype, &ts,
		); err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}

		sl.PaymentMethod = ledger.PaymentMethod(method)
		sl.CustomerType = ledger.CustomerType(custype)
		sl.Timestamp = ts.UTC()

		sales = append(sales, &sl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sale rows: %w", err)
	}

	return sales, nil
}

func (s *Store) LedgerVersion(ctx context.Context) (int64, error) {
	return version(ctx, s.db, ledgerCounter)
}

func (s *Store) SwapStock(ctx context.Context, swap sale.StockSwap) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return swapStock(ctx, tx, swap)
	})
}

// swapStock only writes when the cell still holds the expected quantity.
// Zero affected rows means another writer got there first or the product is gone.
func swapStock(ctx context.Context, q execer, swap sale.StockSwap) error {
	query := `
		UPDATE product_stock
		SET quantity = $1
		WHERE product_id = $2 AND slot = $3 AND quantity = $4
	`

	res, err := q.ExecContext(ctx, query, swap.Next, swap.ProductID, swap.Slot, swap.Expected)
	if err != nil {
		return fmt.Errorf("swapping stock: %w", err)
	}

	conflict := errx.Conflict(fmt.Errorf("stock for product %s slot %d is no longer %d", swap.ProductID, swap.Slot, swap.Expected))
	if err := expectRow(res, conflict); err != nil {
		return err
	}

	return bump(ctx, q, catalogCounter)
}

func (s *Store) CommitSale(ctx context.Context, swap sale.StockSwap, sl *ledger.Sale) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := swapStock(ctx, tx, swap); err != nil {
			return err
		}

		if err := bump(ctx, tx, ledgerCounter); err != nil {
			return err
		}

		last, err := lastSaleTime(ctx, tx)
		if err != nil {
			return err
		}

		sl.Timestamp = ledger.NotBefore(sl.Timestamp, last)

		return insertSale(ctx, tx, sl)
	})
}
