package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/athan"
	"github.com/Nixie-Tech-LLC/sajda/internal/config"
	"github.com/Nixie-Tech-LLC/sajda/internal/db"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	"github.com/Nixie-Tech-LLC/sajda/internal/mqtt"
	"github.com/Nixie-Tech-LLC/sajda/internal/qibla"
	"github.com/Nixie-Tech-LLC/sajda/internal/redis"
	"github.com/Nixie-Tech-LLC/sajda/internal/syncer"
	"github.com/Nixie-Tech-LLC/sajda/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	defer conn.Close()
	store := db.NewStore(conn)

	timings := initTimings(ctx, cfg)

	remote := InitRemote(cfg)
	dispatcher := syncer.NewDispatcher(store, remote, log.Logger)
	worker := syncer.NewWorker(dispatcher, cfg.SyncInterval, log.Logger)

	boundary := tracking.NewBoundaryService(store, log.Logger,
		tracking.WithRolloverHook(func(_ context.Context, outgoing, today model.Date) {
			worker.Trigger()
		}),
	)
	initializeDay(ctx, boundary, timings, cfg.Home)

	sessions := qibla.NewSessions()
	var feed *mqtt.HeadingFeed
	if cfg.MQTTBroker != "" {
		client, err := mqtt.Connect(cfg.MQTTBroker)
		if err != nil {
			log.Error().Err(err).Msg("MQTT unavailable, heading feed disabled")
		} else {
			feed = mqtt.NewHeadingFeed(client, sessions)
			if err := feed.Start(); err != nil {
				log.Error().Err(err).Msg("heading feed not started")
			}
			defer feed.Stop()
		}
	}

	go worker.Run(ctx)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	RegisterRoutes(r, cfg, Services{
		Sessions:   sessions,
		Feed:       feed,
		Boundary:   boundary,
		Timings:    timings,
		Dispatcher: dispatcher,
		Queue:      store,
	})

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// initTimings builds the Aladhan client, cached in Redis when configured.
func initTimings(ctx context.Context, cfg *config.Config) *athan.Client {
	opts := []athan.Option{athan.WithMethod(cfg.AladhanMethod)}

	if cfg.RedisAddress != "" {
		client, err := redis.NewClient(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, prayer times will not be cached")
		} else {
			opts = append(opts, athan.WithCache(redis.NewTimingsCache(client, 24*time.Hour)))
			log.Info().Str("address", cfg.RedisAddress).Msg("prayer times cached in redis")
		}
	}

	return athan.NewClient(cfg.AladhanURL, log.Logger, opts...)
}

// initializeDay runs the boundary check once at startup.
func initializeDay(ctx context.Context, boundary *tracking.BoundaryService, timings *athan.Client, home *model.GeoPoint) {
	var times *model.PrayerTimes
	if home != nil {
		t, err := timings.Timings(ctx, time.Now(), *home)
		if err != nil {
			log.Warn().Err(err).Msg("prayer times unavailable at startup")
		} else {
			times = t
		}
	}

	rolled, err := boundary.Initialize(ctx, times)
	if err != nil {
		log.Error().Err(err).Msg("daily boundary check failed")
		return
	}
	if rolled {
		log.Info().Msg("prayer day rolled over at startup")
	}
}
