package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"emittr/fourinarow/internal/analytics"
	"emittr/fourinarow/internal/config"
	"emittr/fourinarow/internal/server"
	"emittr/fourinarow/internal/storage"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	if cfg.RedisURL != "" {
		rs, err := storage.NewRedisStore(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis decision cache disabled, using memory")
			store = storage.NewMemoryStore()
		} else {
			defer rs.Close()
			store = rs
		}
	} else {
		store = storage.NewMemoryStore()
	}

	producer := analytics.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer producer.Close()

	srv := server.New(server.Config{
		Settings:   cfg.Game,
		IdleWindow: cfg.IdleWindow,
		Store:      store,
		Analytics:  producer,
		Logger:     logger,
	})

	logger.Info().
		Str("addr", cfg.Addr).
		Int("depth", cfg.Game.Depth).
		Bool("pruning", cfg.Game.Pruning).
		Msg("server listening")
	if err := srv.Run(ctx, cfg.Addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
