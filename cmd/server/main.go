package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/eventify/internal/config"
	"github.com/iliyamo/eventify/internal/database"
	"github.com/iliyamo/eventify/internal/handler"
	"github.com/iliyamo/eventify/internal/logger"
	"github.com/iliyamo/eventify/internal/metrics"
	"github.com/iliyamo/eventify/internal/middleware"
	"github.com/iliyamo/eventify/internal/notify"
	"github.com/iliyamo/eventify/internal/queue"
	"github.com/iliyamo/eventify/internal/repository"
	"github.com/iliyamo/eventify/internal/repository/memory"
	"github.com/iliyamo/eventify/internal/router"
	"github.com/iliyamo/eventify/internal/service"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load() // Load environment config
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, zl *zap.Logger) error {
	policy, err := config.LoadBookingPolicy()
	if err != nil {
		return err
	}
	notifyCfg, err := config.LoadNotifyConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, err := openStore(ctx, cfg, policy, zl)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	dispatcher, closeNotify := newDispatcher(ctx, notifyCfg, zl)
	defer closeNotify()

	svc := service.NewBookingService(store, dispatcher, service.Policy{
		ReserveOnConfirmation: policy.ReservationPoint == config.ReserveOnConfirmation,
		RestockOnCancel:       policy.RestockOnCancel,
		EnforceTransitions:    policy.EnforceTransitions,
		NotifyTimeout:         policy.NotifyTimeout,
	}, zl.Named("booking"))

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover(), middleware.RequestID(), middleware.AccessLog(zl.Named("http")))

	var limiter, cache echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		defer rdb.Close()
		limiter = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, zl.Named("ratelimit"))
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	} else {
		zl.Warn("redis unavailable: rate limiting and response cache disabled")
	}

	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}
	bookings := handler.NewBookingHandler(svc, zl.Named("handler"))
	events := handler.NewEventHandler(svc, zl.Named("handler"))
	router.RegisterRoutes(e, pinger)
	router.RegisterPublic(e, events, cache)
	router.RegisterTicket(e, bookings, cfg.JWTSecret, limiter)
	router.RegisterSuperAdmin(e, bookings, cfg.JWTSecret)
	router.RegisterOrganizer(e, events, cfg.JWTSecret)

	go metrics.CollectRuntime(ctx, 15*time.Second)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver), zap.String("notify", notifyCfg.Driver),
			zap.String("reservation_point", policy.ReservationPoint))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	svc.Drain()
	return nil
}

// openStore returns the configured store.  db is nil for the memory
// driver.
func openStore(ctx context.Context, cfg config.Config, policy config.BookingPolicy, zl *zap.Logger) (repository.Store, *sql.DB, error) {
	if cfg.StoreDriver == config.StoreMemory {
		zl.Warn("using in-memory store: data is lost on restart")
		return memory.New(), nil, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		zl.Info("database schema applied")
	}
	return repository.NewMySQLStore(db, policy.TxMaxRetries), db, nil
}

// newDispatcher builds the notification path.  The returned func
// releases its resources.
func newDispatcher(ctx context.Context, nc config.NotifyConfig, zl *zap.Logger) (notify.Dispatcher, func()) {
	nlog := zl.Named("notify")
	sender := func() queue.Sender {
		if nc.UseMailerSend() {
			return notify.NewMailerSend(nc.MailerSendKey, nc.FromName, nc.FromEmail, nlog)
		}
		return notify.LogSender{Log: nlog}
	}

	switch nc.Driver {
	case config.NotifyNone:
		return notify.Nop{}, func() {}
	case config.NotifyDirect:
		return notify.NewEmailer(sender(), nlog), func() {}
	case config.NotifyQueue:
		pub := queue.NewPublisher(nc.RabbitURL, nc.Queue)
		if nc.ConsumerEnabled {
			c := &queue.Consumer{URL: nc.RabbitURL, Queue: nc.Queue, Sender: sender(), Log: nlog}
			go func() {
				if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					nlog.Error("notification consumer stopped", zap.Error(err))
				}
			}()
		}
		return notify.NewQueueDispatcher(pub, nlog), func() { _ = pub.Close() }
	default:
		return notify.NewEmailer(notify.LogSender{Log: nlog}, nlog), func() {}
	}
}
