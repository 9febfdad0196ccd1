package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/khmerdata/registry/internal/audit"
	"github.com/khmerdata/registry/internal/auth"
	"github.com/khmerdata/registry/internal/config"
	"github.com/khmerdata/registry/internal/db"
	internalhttp "github.com/khmerdata/registry/internal/http"
	"github.com/khmerdata/registry/internal/location"
	"github.com/khmerdata/registry/internal/person"
	"github.com/khmerdata/registry/internal/repo"
	"github.com/khmerdata/registry/internal/service"
	"github.com/khmerdata/registry/internal/user"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api exited with error")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	locations, err := location.Load(cfg.LocationsPath)
	if err != nil {
		return fmt.Errorf("locations: %w", err)
	}

	people := person.NewRepository(pool)
	auditRepo := audit.NewRepository(pool)
	recorder := audit.NewRecorder(auditRepo)
	users := user.NewRepository(pool)
	tokens := repo.New(pool)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(users, tokens, redisClient, jwtManager, cfg.JWTRefreshTTL, recorder)
	userService := user.NewService(users)

	handler := internalhttp.NewHandler(people, people, auditRepo, userService, authService, locations, recorder)
	router := internalhttp.NewRouter(cfg, handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API listening on :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
