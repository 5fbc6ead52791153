package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/cinema-booking/internal/auth"
	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/cache"
	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		log.Error("database unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Error("schema migration failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("schema migrated")
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unreachable, caching and distributed rate limiting disabled", slog.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	seats := repository.NewSeatRepo(db)
	bills := repository.NewBillRepo(db)

	seatMaps := cache.NewSeatMapCache(rdb, seats, cfg.Cache.SeatMapTTL, cfg.Cache.Prefix, log)

	validator := booking.NewValidator(showtimes, seats,
		booking.WithMaxSeats(cfg.Booking.MaxSeats),
		booking.WithOpenWindow(cfg.Booking.OpenWindow),
	)
	coordinator := booking.NewCoordinator(repository.NewBookingStore(db), booking.NewBillFactory(time.Now),
		booking.WithClaimTimeout(cfg.Booking.ClaimTimeout),
		booking.WithConflictRetries(cfg.Booking.ConflictRetries),
		booking.WithCoordinatorLogger(log),
	)
	opts := []booking.ServiceOption{
		booking.WithSeatMapInvalidator(seatMaps),
		booking.WithServiceLogger(log),
	}
	if cfg.Queue.Enabled {
		pub := queue.NewPublisher(cfg.Queue.URL, log)
		defer pub.Close()
		opts = append(opts, booking.WithEventPublisher(pub))
	}
	svc := booking.NewService(validator, coordinator, opts...)

	if cfg.Queue.Consume {
		consumer := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.LogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bill consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	jobs, err := scheduler.Start(ctx, cfg.Booking.StatusEvery, scheduler.NewShowtimeStatusJob(showtimes, log))
	if err != nil {
		log.Error("scheduler failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = jobs.Shutdown() }()

	gate := auth.NewGate(cfg.JWTSecret, users)
	e := router.New(router.Deps{
		Log:       log,
		Gate:      gate,
		DB:        db,
		Auth:      handler.NewAuthHandler(cfg, users, tokens, gate, log),
		Schedules: handler.NewScheduleHandler(showtimes, seatMaps, log),
		Catalog:   handler.NewCatalogHandler(repository.NewCatalogRepo(db), log),
		Bills:     handler.NewBillHandler(svc, bills, log),
		RateLimit: middleware.NewRateLimiter(cfg.RateLimit, rdb, log),
		Cache:     middleware.NewRedisCache(cfg.Cache, rdb, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}
