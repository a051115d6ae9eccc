package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/onlinestore-api/internal/config"
	"github.com/onlinestore-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/onlinestore-api/internal/infrastructure/jwt"
	"github.com/onlinestore-api/internal/infrastructure/postgres"
	s3infra "github.com/onlinestore-api/internal/infrastructure/s3"
	"github.com/onlinestore-api/internal/infrastructure/smtp"
	transporthttp "github.com/onlinestore-api/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return err
	}

	deps := &transporthttp.Deps{
		Images:      s3infra.NewStore(s3Client, cfg.S3BucketName),
		Mailer:      smtp.NewMailer(cfg),
		JWTProvider: jwtProvider,
	}

	switch cfg.StoreDriver {
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("dynamo client: %w", err)
		}
		// Creates tables that don't exist yet.
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		deps.AccountRepo = dynamo.NewUserRepo(client, cfg.DynamoTables.Users, cfg.DynamoTables.UniqueKeys)
		deps.ProductRepo = dynamo.NewProductRepo(client, cfg.DynamoTables.Products)
		deps.CategoryRepo = dynamo.NewCategoryRepo(client, cfg.DynamoTables.Categories)
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		deps.AccountRepo = postgres.NewUserRepo(db)
		deps.ProductRepo = postgres.NewProductRepo(db)
		deps.CategoryRepo = postgres.NewCategoryRepo(db)
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	slog.Info("credential store ready", "driver", cfg.StoreDriver)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
