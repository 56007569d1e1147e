package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/steppin/internal/analytics"
	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/config"
	"github.com/MrJamesThe3rd/steppin/internal/database"
	posHttp "github.com/MrJamesThe3rd/steppin/internal/http"
	productHandler "github.com/MrJamesThe3rd/steppin/internal/http/product"
	reportHandler "github.com/MrJamesThe3rd/steppin/internal/http/report"
	saleHandler "github.com/MrJamesThe3rd/steppin/internal/http/sale"
	"github.com/MrJamesThe3rd/steppin/internal/importer"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/logx"
	"github.com/MrJamesThe3rd/steppin/internal/report"
	"github.com/MrJamesThe3rd/steppin/internal/sale"
	boltStore "github.com/MrJamesThe3rd/steppin/internal/store/bolt"
	"github.com/MrJamesThe3rd/steppin/internal/store/memory"
	pgStore "github.com/MrJamesThe3rd/steppin/internal/store/postgres"
)

// store is what every backend provides: catalog, ledger and the sale commit path.
type store interface {
	catalog.Repository
	ledger.Repository
	sale.Store
}

func openStore(ctx context.Context, cfg *config.Config) (store, io.Closer, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.New(cfg.ConnectionString())
		if err != nil {
			return nil, nil, err
		}

		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}

		return pgStore.New(db), db, nil
	case "bolt":
		s, err := boltStore.Open(cfg.Store.BoltPath)
		if err != nil {
			return nil, nil, err
		}

		return s, s, nil
	default:
		return memory.New(), io.NopCloser(nil), nil
	}
}

func openCache(cfg *config.Config) (analytics.Cache, io.Closer, error) {
	if cfg.Redis.URL == "" {
		return analytics.NewMemoryCache(), io.NopCloser(nil), nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("pinging redis: %w", err)
	}

	return analytics.NewRedisCache(client, cfg.Redis.CacheTTL), client, nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load config")
	}

	logx.Init(logx.Options{
		Environment: logx.ParseEnvironment(cfg.App.Env),
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sizes, err := catalog.NewSizeRange(cfg.POS.Sizes)
	if err != nil {
		logx.Fatal().Err(err).Msg("invalid POS_SIZES")
	}

	loc, err := cfg.Location()
	if err != nil {
		logx.Fatal().Err(err).Msg("invalid POS_TIME_ZONE")
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer closeStore.Close()

	cache, closeCache, err := openCache(cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer closeCache.Close()

	var (
		catalogService   = catalog.NewService(st, sizes)
		ledgerService    = ledger.NewService(st, loc)
		coordinator      = sale.NewCoordinator(st, sizes, sale.WithMaxRetries(cfg.POS.MaxCommitRetries))
		importService    = importer.NewService(catalogService)
		analyticsService = analytics.NewService(catalogService, ledgerService, cache, analytics.Options{
			LowStockThreshold: cfg.POS.LowStockThreshold,
		})
	)

	if cfg.Report.Enabled {
		scheduler, err := report.NewScheduler(ledgerService, cfg.Report.Dir, cfg.Report.Schedule)
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to schedule daily export")
		}

		scheduler.Start()
		defer scheduler.Stop()
	}

	var (
		productH = productHandler.NewHandler(catalogService, importService)
		saleH    = saleHandler.NewHandler(coordinator, ledgerService)
		reportH  = reportHandler.NewHandler(analyticsService, ledgerService)
	)

	router := posHttp.New(productH, saleH, reportH)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	shutdownDone := make(chan struct{})

	go func() {
		defer close(shutdownDone)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	logx.Info().
		Str("addr", srv.Addr).
		Str("store", cfg.Store.Driver).
		Str("time_zone", loc.String()).
		Msg("starting server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Error().Err(err).Msg("server failed")
		return
	}

	<-shutdownDone
	logx.Info().Msg("server stopped")
}
