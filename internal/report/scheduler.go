package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/logx"
)

// DefaultSchedule runs the daily export five minutes after midnight, once the
// previous day can no longer receive sales.
const DefaultSchedule = "5 0 * * *"

// ErrNoSales means the day had nothing to export, so no file was written.
var ErrNoSales = errors.New("no sales to export")

type Ledger interface {
	OnDate(ctx context.Context, day time.Time) ([]*ledger.Sale, error)
	Now() time.Time
	Location() *time.Location
}

type Scheduler struct {
	ledger Ledger
	dir    string
	cron   *cron.Cron
}

// NewScheduler registers the daily export on schedule, evaluated in the
// ledger's time zone so "today" means the same day for both.
func NewScheduler(l Ledger, dir, schedule string) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	s := &Scheduler{
		ledger: l,
		dir:    dir,
		cron:   cron.New(cron.WithLocation(l.Location())),
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("scheduling daily export %q: %w", schedule, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running export to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Msg("daily export panicked")
		}
	}()

	path, err := s.ExportPreviousDay(context.Background(), s.ledger.Now())
	if errors.Is(err, ErrNoSales) {
		logx.Info().Msg("no sales yesterday, skipping export")
		return
	}

	if err != nil {
		logx.Error().Err(err).Msg("daily export failed")
		return
	}

	logx.Info().Str("path", path).Msg("daily sales exported")
}

// ExportPreviousDay exports the calendar day before now in the ledger's zone.
func (s *Scheduler) ExportPreviousDay(ctx context.Context, now time.Time) (string, error) {
	return s.ExportDay(ctx, now.In(s.ledger.Location()).AddDate(0, 0, -1))
}

// ExportDay writes day's sales to sales-YYYY-MM-DD.csv in the export dir.
func (s *Scheduler) ExportDay(ctx context.Context, day time.Time) (string, error) {
	sales, err := s.ledger.OnDate(ctx, day)
	if err != nil {
		return "", fmt.Errorf("loading sales: %w", err)
	}

	if len(sales) == 0 {
		return "", ErrNoSales
	}

	out, err := ToCSV(sales, s.ledger.Location())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	name := FileName(day.In(s.ledger.Location()))
	path := filepath.Join(s.dir, name)

	// Write then rename so a reader never sees half a file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("moving %s into place: %w", name, err)
	}

	return path, nil
}

func FileName(day time.Time) string {
	return "sales-" + day.Format(time.DateOnly) + ".csv"
}
