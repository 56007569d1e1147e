package ledger

import (
	"context"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/steppin/internal/errx"
)

// Repository is append-only: there is deliberately no update or delete.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	AppendSale(ctx context.Context, s *Sale) error
	ListSales(ctx context.Context, filter Filter) ([]*Sale, error)
	LedgerVersion(ctx context.Context) (int64, error)
}

// Filter restricts sales to From <= Timestamp < To. Nil bounds are open.
type Filter struct {
	From *time.Time
	To   *time.Time
}

// Match reports whether ts falls inside the filter.
func (f Filter) Match(ts time.Time) bool {
	if f.From != nil && ts.Before(*f.From) {
		return false
	}

	if f.To != nil && !ts.Before(*f.To) {
		return false
	}

	return true
}

type Service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}

	return &Service{repo: repo, loc: loc, now: time.Now}
}

// Location is the zone whose calendar defines "today".
func (s *Service) Location() *time.Location {
	return s.loc
}

// Append stores a committed sale. Business rules are the coordinator's job.
func (s *Service) Append(ctx context.Context, sale *Sale) error {
	if sale.Timestamp.IsZero() {
		return errx.InvalidInput("timestamp", "sale must be committed before it is appended")
	}

	if sale.Quantity <= 0 {
		return errx.InvalidInput("quantity", "must be positive")
	}

	return s.repo.AppendSale(ctx, sale)
}

// List returns sales in append order, oldest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Sale, error) {
	return s.repo.ListSales(ctx, filter)
}

// ListNewestFirst is List reversed.
func (s *Service) ListNewestFirst(ctx context.Context, filter Filter) ([]*Sale, error) {
	sales, err := s.repo.ListSales(ctx, filter)
	if err != nil {
		return nil, err
	}

	slices.Reverse(sales)

	return sales, nil
}

// OnDate returns sales whose timestamp falls on day's calendar date in the ledger zone.
func (s *Service) OnDate(ctx context.Context, day time.Time) ([]*Sale, error) {
	return s.repo.ListSales(ctx, s.DayFilter(day))
}

func (s *Service) Today(ctx context.Context) ([]*Sale, error) {
	return s.OnDate(ctx, s.now())
}

// DayFilter covers [midnight, next midnight) of day's date in the ledger zone.
func (s *Service) DayFilter(day time.Time) Filter {
	d := day.In(s.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	return Filter{From: &start, To: &end}
}

// Now is the service clock expressed in the ledger zone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) Version(ctx context.Context) (int64, error) {
	return s.repo.LedgerVersion(ctx)
}
