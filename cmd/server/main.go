package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/event-reservation/internal/authz"
	"github.com/iliyamo/event-reservation/internal/config"
	"github.com/iliyamo/event-reservation/internal/database"
	"github.com/iliyamo/event-reservation/internal/handler"
	"github.com/iliyamo/event-reservation/internal/logger"
	"github.com/iliyamo/event-reservation/internal/middleware"
	"github.com/iliyamo/event-reservation/internal/queue"
	"github.com/iliyamo/event-reservation/internal/repository"
	"github.com/iliyamo/event-reservation/internal/router"
	"github.com/iliyamo/event-reservation/internal/scheduler"
	"github.com/iliyamo/event-reservation/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init("event-reservation", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	reservations := repository.NewReservationRepo(db, cfg.TxMaxAttempts)
	reviews := repository.NewReviewRepo(db)

	var publisher service.EventPublisher = service.NoopPublisher{}
	if cfg.ReservationEventsEnabled {
		publisher = service.NewAMQPPublisher(cfg.AMQPURL)
		go queue.NewConsumer(cfg.AMQPURL, "logs").Run(ctx)
	}

	policy := authz.DefaultPolicy()
	authSvc := service.NewAuthService(users, tokens, service.AuthConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
	})
	userSvc := service.NewUserService(users, tokens, policy, cfg.BcryptCost)
	eventSvc := service.NewEventService(events)
	reservationSvc := service.NewReservationService(reservations, publisher)
	reviewSvc := service.NewReviewService(reviews, users, events, cfg.ReviewAllowMultiple)

	jobs := scheduler.New(time.Minute)
	if err := jobs.Add("purge-refresh-tokens", cfg.TokenPurgeSchedule, scheduler.PurgeTokensJob(authSvc)); err != nil {
		log.Fatal().Err(err).Msg("invalid TOKEN_PURGE_SCHEDULE")
	}
	jobs.Start()
	defer jobs.Stop()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())

	router.Register(e, router.Deps{
		JWTSecret:    cfg.JWTSecret,
		Policy:       policy,
		DB:           db,
		Redis:        rdb,
		Cache:        config.LoadCacheConfig(),
		RateLimit:    config.LoadRateLimitConfig(),
		Auth:         handler.NewAuthHandler(authSvc),
		Users:        handler.NewUserHandler(userSvc, policy),
		Events:       handler.NewEventHandler(eventSvc),
		Reservations: handler.NewReservationHandler(reservationSvc, policy),
		Reviews:      handler.NewReviewHandler(reviewSvc, policy),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
