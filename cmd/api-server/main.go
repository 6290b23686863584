package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medcare/booking-engine/internal/api"
	"github.com/medcare/booking-engine/internal/booking"
	"github.com/medcare/booking-engine/internal/catalog"
	"github.com/medcare/booking-engine/internal/config"
	"github.com/medcare/booking-engine/internal/db"
	"github.com/medcare/booking-engine/internal/metrics"
	redisclient "github.com/medcare/booking-engine/internal/redis"
)

const version = "0.1.0"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Int("horizon_days", cfg.HorizonDays).Msg("configured")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	metrics.Register()

	repo := booking.NewPgRepository(pgPool)

	cat, err := loadCatalog(rootCtx, repo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("load slot catalog")
	}

	locker := redisclient.NewRedisKeyLocker(rdb, cfg.LockTTL)
	svc := booking.NewService(repo, locker, cat, cfg, log)

	handler := api.NewRouter(api.RouterConfig{
		Service: svc,
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("api-server stopped")
}

// loadCatalog reads the slot catalog from the database, falling back to the
// standard 09:00-17:00 hourly catalog when the slots table is empty.
func loadCatalog(ctx context.Context, repo *booking.PgRepository, log zerolog.Logger) (*catalog.Catalog, error) {
	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slots, err := repo.LoadSlots(loadCtx)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		log.Warn().Msg("slots table empty, using default catalog")
		return catalog.Default(), nil
	}

	log.Info().Int("slots", len(slots)).Msg("slot catalog loaded")
	return catalog.New(slots)
}
