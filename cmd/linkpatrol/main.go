package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/linkpatrol/linkpatrol/internal/config"
	"github.com/linkpatrol/linkpatrol/internal/engine"
	"github.com/linkpatrol/linkpatrol/internal/health"
	"github.com/linkpatrol/linkpatrol/internal/reactions"
	"github.com/linkpatrol/linkpatrol/internal/retention"
	"github.com/linkpatrol/linkpatrol/internal/store"
	"github.com/linkpatrol/linkpatrol/internal/transport"
)

// confirmTTL is how long reaction confirmations stay before auto-deletion.
const confirmTTL = 10 * time.Second

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration error")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	clock := clockwork.NewRealClock()

	// The store is optional: without it the bot keeps serving chats in
	// degraded (stateless) mode.
	var backend store.Store
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set; running without persistent storage")
	} else {
		redisStore, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("storage unavailable; running in degraded mode")
		} else {
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = redisStore.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warn().Err(err).Msg("storage unreachable; running in degraded mode")
			} else {
				logger.Info().Msg("connected to storage")
				backend = redisStore
				defer redisStore.Close()
			}
		}
	}

	linkStore := store.NewLinkStore(backend, clock, logger)
	sweeper := retention.New(
		linkStore,
		int64(cfg.SweepEvery),
		time.Duration(cfg.RetentionDays)*24*time.Hour,
		clock,
		logger,
	)
	aggregator := reactions.NewAggregator(linkStore)
	scheduler := engine.NewScheduler(clock, logger)

	tg, err := transport.NewTelegram(cfg.BotToken, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Telegram")
	}

	eng := engine.New(tg, linkStore, sweeper, aggregator, scheduler, engine.Config{
		WarnTTL:    cfg.WarnTTL,
		ConfirmTTL: confirmTTL,
		Retention:  time.Duration(cfg.RetentionDays) * 24 * time.Hour,
	}, logger)

	if cfg.UseHTTPServer {
		healthSrv := health.New(logger)
		healthSrv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = healthSrv.Shutdown(shutdownCtx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("bot", tg.BotUsername()).Int64("id", tg.SelfID()).Msg("bot started")
	if err := tg.Run(ctx, eng); err != nil {
		logger.Fatal().Err(err).Msg("update loop failed")
	}
	logger.Info().Msg("shutting down")
}
