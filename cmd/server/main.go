package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"webhub-checker/internal/config"
	"webhub-checker/internal/handlers"
	"webhub-checker/internal/hub"
	"webhub-checker/internal/logging"
	"webhub-checker/internal/middleware"
	"webhub-checker/internal/store"
	"webhub-checker/internal/webhub"
	"webhub-checker/web"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogConsole)
	if envErr != nil {
		logger.Debug().Msg("no .env file loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	st, err := openStore(openCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info().Str("driver", cfg.StoreDriver).Msg("store opened")

	var opts []webhub.Option
	if cfg.RedisAddr != "" {
		client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer client.Close()
		opts = append(opts, webhub.WithEnqueuer(client))
		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("task queue enabled")
	}

	svc := webhub.New(st, hub.NewClient(cfg.HubURL), logger, opts...)
	if _, err := svc.Reconcile(ctx); err != nil {
		return fmt.Errorf("failed to reconcile state: %w", err)
	}

	templates, err := web.Templates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	h := handlers.New(svc, templates, cfg.BaseURL, logger)
	limiter := middleware.NewRateLimiterMiddleware(rate.Limit(cfg.SubscribeRatePerSec), cfg.SubscribeBurst, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.NewRouter(h, limiter, cfg.TrustProxy, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("commit", CommitSHA).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return store.OpenPostgres(ctx, cfg.DatabaseURL)
	case config.StoreRedis:
		return store.NewRedis(ctx, cfg.RedisURL)
	default:
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	}
}
