package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/errx"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/logx"
)

type Scope string

const (
	ScopeAll   Scope = "all"
	ScopeToday Scope = "today"
)

func ParseScope(v string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(v))) {
	case ScopeAll, "":
		return ScopeAll, nil
	case ScopeToday:
		return ScopeToday, nil
	}

	return "", errx.InvalidInput("scope", fmt.Sprintf("unknown scope %q, want all or today", v))
}

//go:generate mockgen -source=service.go -destination=source_mock.go -package=analytics
type Catalog interface {
	List(ctx context.Context) ([]*catalog.Product, error)
	Version(ctx context.Context) (int64, error)
}

type Ledger interface {
	List(ctx context.Context, filter ledger.Filter) ([]*ledger.Sale, error)
	Version(ctx context.Context) (int64, error)
	DayFilter(day time.Time) ledger.Filter
	Now() time.Time
}

// snapshotAttempts bounds how often Summary re-reads while sales keep landing.
const snapshotAttempts = 5

type Service struct {
	catalog Catalog
	ledger  Ledger
	cache   Cache
	opts    Options
}

func NewService(c Catalog, l Ledger, cache Cache, opts Options) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}

	return &Service{catalog: c, ledger: l, cache: cache, opts: opts}
}

type versions struct {
	catalog int64
	ledger  int64
}

func (s *Service) versions(ctx context.Context) (versions, error) {
	cv, err := s.catalog.Version(ctx)
	if err != nil {
		return versions{}, fmt.Errorf("reading catalog version: %w", err)
	}

	lv, err := s.ledger.Version(ctx)
	if err != nil {
		return versions{}, fmt.Errorf("reading ledger version: %w", err)
	}

	return versions{catalog: cv, ledger: lv}, nil
}

// Summary returns the report for scope. Products and sales are read between
// two version reads; if either counter moved the read is repeated, so the
// report never mixes a stock level with sales from a different moment.
func (s *Service) Summary(ctx context.Context, scope Scope) (*Report, error) {
	filter := ledger.Filter{}
	day := "all"

	if scope == ScopeToday {
		now := s.ledger.Now()
		filter = s.ledger.DayFilter(now)
		day = now.Format(time.DateOnly)
	}

	var last *Report

	for range snapshotAttempts {
		before, err := s.versions(ctx)
		if err != nil {
			return nil, err
		}

		key := cacheKey(scope, day, before)

		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			logx.Warn().Err(err).Str("key", key).Msg("analytics cache read failed")
		} else if cached != nil {
			return cached, nil
		}

		products, err := s.catalog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing products: %w", err)
		}

		sales, err := s.ledger.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("listing sales: %w", err)
		}

		last = Compute(products, sales, s.opts)

		after, err := s.versions(ctx)
		if err != nil {
			return nil, err
		}

		if after != before {
			continue
		}

		if err := s.cache.Set(ctx, key, last); err != nil {
			logx.Warn().Err(err).Str("key", key).Msg("analytics cache write failed")
		}

		return last, nil
	}

	logx.Warn().Str("scope", string(scope)).Msg("analytics snapshot kept moving, serving last read uncached")

	return last, nil
}

func cacheKey(scope Scope, day string, v versions) string {
	return fmt.Sprintf("%s:%s:%d:%d", scope, day, v.catalog, v.ledger)
}

// slotOf strips the version suffix so each scope and day keeps one entry.
func slotOf(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return key
	}

	return parts[0] + ":" + parts[1]
}
