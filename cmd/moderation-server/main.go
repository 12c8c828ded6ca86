package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/textmod/textmod-server/internal/api"
	"github.com/textmod/textmod-server/internal/auth"
	"github.com/textmod/textmod-server/internal/config"
	"github.com/textmod/textmod-server/internal/events"
	"github.com/textmod/textmod-server/internal/moderation/inference"
	"github.com/textmod/textmod-server/internal/pipeline"
	"github.com/textmod/textmod-server/internal/quota"
	"github.com/textmod/textmod-server/internal/ratelimit"
	"github.com/textmod/textmod-server/internal/storage"
)

func main() {
	// Command line flags
	var configFile string
	flag.StringVar(&configFile, "config", "config/moderation-server.yml", "Configuration file path")
	flag.Parse()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Connect to database
	store, err := storage.NewPostgresStore(cfg.Database.DSN, storage.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer store.Close()

	log.Info().Msg("Connected to database")

	if err := store.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Classification backend client
	moderator, err := inference.New(&cfg.Moderation, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure classification backend")
	}

	ledger := quota.NewLedger(store, cfg.Quota.DefaultMonthly)
	resolver := auth.NewResolver(store)

	opts := pipeline.Options{DefaultModel: cfg.Moderation.DefaultModel}

	// Optional: Redis rate limiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		limiter := ratelimit.New(rdb, cfg.RateLimit.RequestsPerMinute)
		defer limiter.Close()

		opts.Limiter = limiter
		log.Info().Str("addr", cfg.Redis.Addr).Int("rpm", cfg.RateLimit.RequestsPerMinute).Msg("Rate limiter enabled")
	} else {
		log.Info().Msg("Redis not configured, rate limiting disabled")
	}

	// Optional: NATS event publisher
	if cfg.NATS.URL != "" {
		log.Info().Str("url", cfg.NATS.URL).Msg("Connecting to NATS...")

		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name("textmod-moderation-server"),
			nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password),
			nats.ReconnectWait(cfg.NATS.ReconnectInterval),
			nats.MaxReconnects(cfg.NATS.MaxReconnects),
			nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
				log.Warn().Err(err).Msg("Disconnected from NATS")
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info().Msg("Reconnected to NATS")
			}),
		)

		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to NATS, continuing without event publishing")
		} else {
			defer nc.Close()
			log.Info().Msg("Connected to NATS")

			opts.Events = events.NewPublisher(nc)
		}
	} else {
		log.Info().Msg("NATS not configured, running in standalone mode")
	}

	pl := pipeline.New(resolver, ledger, moderator, store, opts)

	// Start REST API server
	apiServer := api.NewRESTServer(cfg, store, pl, ledger)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		log.Info().Str("addr", addr).Msg("Starting REST API server")
		if err := apiServer.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("REST API server failed")
		}
	}()

	// Wait for signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

	// Shutdown API server
	if err := apiServer.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown API server gracefully")
	}

	log.Info().Msg("Moderation server stopped")
}
