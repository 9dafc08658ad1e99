package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation-ledger/internal/clock"
	"github.com/iliyamo/room-reservation-ledger/internal/config"
	"github.com/iliyamo/room-reservation-ledger/internal/database"
	"github.com/iliyamo/room-reservation-ledger/internal/datepolicy"
	"github.com/iliyamo/room-reservation-ledger/internal/handler"
	"github.com/iliyamo/room-reservation-ledger/internal/logger"
	"github.com/iliyamo/room-reservation-ledger/internal/middleware"
	"github.com/iliyamo/room-reservation-ledger/internal/queue"
	"github.com/iliyamo/room-reservation-ledger/internal/repository"
	"github.com/iliyamo/room-reservation-ledger/internal/repository/postgres"
	"github.com/iliyamo/room-reservation-ledger/internal/router"
	"github.com/iliyamo/room-reservation-ledger/internal/service"
)

func main() {
	if err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "room-reservation-ledger")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	policy := datepolicy.New(clock.NewSystem(),
		datepolicy.WithLocation(cfg.Location),
		datepolicy.WithLeadDays(cfg.LeadDays),
	)

	var publisher service.EventPublisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		publisher = queue.NewPublisher(cfg.AMQPURL, cfg.EventsQueue, log.Named("events"),
			queue.WithDialTimeout(cfg.EventsDialTimeout))
	}
	if cfg.AuditConsumerEnabled {
		consumer := queue.NewAuditConsumer(cfg.AMQPURL, cfg.EventsQueue, cfg.AuditLogDir, log.Named("audit"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	ledger := service.NewLedger(store, policy,
		service.WithLogger(log.Named("ledger")),
		service.WithPublisher(publisher),
	)

	// Redis is optional: without it rate limiting and caching are skipped.
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable, rate limiting and caching disabled", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log.Named("cache"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	h := handler.New(ledger, log.Named("http"))
	router.RegisterRoutes(e, h)
	router.RegisterV1(e, h,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.Named("ratelimit")),
		cache.InvalidateOnWrite(),
		cache.Middleware(),
	)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("db", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore connects the configured backend, applies migrations when
// DB_MIGRATE is on and returns the store with its close function.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (service.Store, func(), error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if cfg.DBMigrate {
			if err := database.MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		log.Info("connected", zap.String("driver", cfg.DBDriver))
		return postgres.NewStore(pool), pool.Close, nil
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, nil, err
		}
		if cfg.DBMigrate {
			if err := database.MigrateMySQL(ctx, db); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		log.Info("connected", zap.String("driver", cfg.DBDriver), zap.String("host", cfg.DBHost))
		return repository.NewStore(db), func() { _ = db.Close() }, nil
	}
}
