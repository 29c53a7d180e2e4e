package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/soulspace-ledger/internal/config"
	"github.com/iliyamo/soulspace-ledger/internal/daykey"
	"github.com/iliyamo/soulspace-ledger/internal/database"
	"github.com/iliyamo/soulspace-ledger/internal/handler"
	"github.com/iliyamo/soulspace-ledger/internal/ledger"
	"github.com/iliyamo/soulspace-ledger/internal/logging"
	"github.com/iliyamo/soulspace-ledger/internal/middleware"
	"github.com/iliyamo/soulspace-ledger/internal/queue"
	"github.com/iliyamo/soulspace-ledger/internal/quotes"
	"github.com/iliyamo/soulspace-ledger/internal/repository"
	"github.com/iliyamo/soulspace-ledger/internal/router"
)

// shutdownTimeout bounds how long in-flight requests may drain.
const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load() // Load environment config
	log := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	days, err := daykey.LoadResolver(cfg.DayZone)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, database.Params{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	}, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	// Redis is optional: nil disables the rate limiter and the quote cache.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	events := queue.NewPublisher(cfg.RabbitURL, log)
	defer events.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	tracker := ledger.NewTracker(repository.NewStatsRepo(db), days, events, log)
	stats := ledger.NewAggregate(tracker, users, days)
	journal := ledger.NewJournal(repository.NewJournalRepo(db), days, events, log)

	quoteOpts := []ledger.QuoteOption{
		ledger.WithQuoteEvents(events),
		ledger.WithSupplierTimeout(cfg.QuoteProviderTimeout),
	}
	if cc := config.LoadQuoteCacheConfig(); cc.Enabled && rdb != nil {
		quoteOpts = append(quoteOpts, ledger.WithTodayCache(quotes.NewTodayCache(rdb, days, cc.Prefix, log)))
	}
	quoteLedger := ledger.NewQuoteLedger(repository.NewQuoteRepo(db), days, log, quoteOpts...)
	provider := quotes.NewProvider(cfg.QuoteProviderURL, cfg.QuoteProviderTimeout)

	gate := middleware.TokenGate{Secret: cfg.JWTSecret, Users: users}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency, "request_id", v.RequestID}
			if uid, ok := middleware.UserID(c); ok {
				args = append(args, "user_id", uid)
			}
			if v.Error != nil {
				args = append(args, "err", v.Error)
			}
			log.Info(c.Request().Context(), "request", args...)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("64K"))

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb})
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, stats, gate, log))
	router.RegisterLedger(e,
		handler.NewLedgerHandler(stats, journal, quoteLedger, provider.Draw, days, log),
		middleware.RequireUser(gate, log),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.RabbitURL != "" {
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.ActivityLogPath, log)
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info(gctx, "listening", "addr", addr, "env", cfg.Env, "day_zone", cfg.DayZone)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down", "timeout", shutdownTimeout)
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	return g.Wait()
}
