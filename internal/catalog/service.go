package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/steppin/internal/errx"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	// CreateProducts creates all of ps or, on error, none of them.
	CreateProducts(ctx context.Context, ps []*Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	SetStock(ctx context.Context, id uuid.UUID, slot, quantity int) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	CatalogVersion(ctx context.Context) (int64, error)
}

type Service struct {
	repo  Repository
	sizes SizeRange
	now   func() time.Time
}

func NewService(repo Repository, sizes SizeRange) *Service {
	return &Service{repo: repo, sizes: sizes, now: time.Now}
}

type CreateParams struct {
	Name     string
	Price    decimal.Decimal
	Category string
	Sizes    map[string]int
}

func (s *Service) Sizes() SizeRange {
	return s.sizes
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Product, error) {
	p, err := s.build(params)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// CreateBatch validates every entry before creating any of them, then
// creates them all in one repository call.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams) ([]*Product, error) {
	products := make([]*Product, 0, len(params))

	for i, p := range params {
		product, err := s.build(p)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		products = append(products, product)
	}

	if err := s.repo.CreateProducts(ctx, products); err != nil {
		return nil, fmt.Errorf("creating products: %w", err)
	}

	return products, nil
}

func (s *Service) build(params CreateParams) (*Product, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, errx.InvalidInput("name", "must not be empty")
	}

	if err := validatePrice(params.Price); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(params.Category)
	if category == "" {
		category = DefaultCategory
	}

	stock := make([]int, s.sizes.Len())

	for label, qty := range params.Sizes {
		slot, ok := s.sizes.Index(label)
		if !ok {
			return nil, errx.InvalidSize(label)
		}

		if qty < 0 {
			return nil, errx.InvalidInput("sizes", fmt.Sprintf("quantity for size %s must not be negative", label))
		}

		stock[slot] = qty
	}

	return &Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     params.Price,
		Category:  category,
		Stock:     stock,
		DateAdded: s.now(),
	}, nil
}

// Prices are whole cents; finer values would be rounded away by SQL storage.
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return errx.InvalidInput("price", "must not be negative")
	}

	if !price.Equal(price.Round(2)) {
		return errx.InvalidInput("price", "must have at most 2 decimal places")
	}

	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Product, error) {
	return s.repo.ListProducts(ctx)
}

// UpdateParams changes descriptive fields; nil fields are left alone.
// Stock is only ever changed through SetStock or a committed sale.
type UpdateParams struct {
	Name     *string
	Price    *decimal.Decimal
	Category *string
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, errx.InvalidInput("name", "must not be empty")
		}

		p.Name = name
	}

	if params.Price != nil {
		if err := validatePrice(*params.Price); err != nil {
			return nil, err
		}

		p.Price = *params.Price
	}

	if params.Category != nil {
		p.Category = strings.TrimSpace(*params.Category)
		if p.Category == "" {
			p.Category = DefaultCategory
		}
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// SetStock overwrites one stock cell. Negative quantities are rejected, not clamped.
func (s *Service) SetStock(ctx context.Context, id uuid.UUID, size string, quantity int) (*Product, error) {
	slot, ok := s.sizes.Index(size)
	if !ok {
		// Unknown product wins over unknown size.
		if _, err := s.repo.GetProduct(ctx, id); err != nil {
			return nil, err
		}

		return nil, errx.InvalidSize(size)
	}

	if quantity < 0 {
		return nil, errx.InvalidInput("quantity", "must not be negative")
	}

	if err := s.repo.SetStock(ctx, id, slot, quantity); err != nil {
		return nil, err
	}

	return s.repo.GetProduct(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) Version(ctx context.Context) (int64, error) {
	return s.repo.CatalogVersion(ctx)
}
