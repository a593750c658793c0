package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-channel-identity/internal/config"
	"go-channel-identity/internal/database"
	"go-channel-identity/internal/handler"
	"go-channel-identity/internal/metrics"
	"go-channel-identity/internal/middleware"
	"go-channel-identity/internal/objectstore"
	"go-channel-identity/internal/repository"
	"go-channel-identity/internal/router"
	"go-channel-identity/internal/security"
	"go-channel-identity/internal/service"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.UploadTempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload temp dir: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	accountRepo := repository.NewAccountRepository(db.Pool)
	subscriptionRepo := repository.NewSubscriptionRepository(db.Pool)
	slog.Info("database ready")

	tokens, err := security.NewTokenIssuer(security.TokenConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	passwords := security.NewPasswordHasher(cfg.BcryptCost)

	store, mediaHandler, err := newObjectStore(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize object store: %w", err)
	}

	m := metrics.NewDefault()

	sessionService := service.NewSessionService(accountRepo, passwords, tokens, m)
	mediaService := service.NewMediaService(accountRepo, store, m)
	accountService := service.NewAccountService(accountRepo, passwords, mediaService)
	channelService := service.NewChannelService(accountRepo, subscriptionRepo, m)

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(tokens), m, router.Handlers{
		Auth: handler.NewAuthHandler(sessionService, accountService, handler.AuthHandlerConfig{
			CookieSecure:  cfg.CookieSecure,
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshTTL:    cfg.RefreshTokenTTL,
			MaxUploadSize: cfg.MaxUploadSize,
			UploadTempDir: cfg.UploadTempDir,
		}),
		Account: handler.NewAccountHandler(accountService, mediaService, cfg.MaxUploadSize, cfg.UploadTempDir),
		Channel: handler.NewChannelHandler(channelService),
		Health:  handler.NewHealthHandler(db),
		Media:   mediaHandler,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		cleanupFuncs: []func(){db.Close},
	}, nil
}

// newObjectStore builds the configured backend. The media handler is only
// returned for the local store, which has to serve its own files.
func newObjectStore(ctx context.Context, cfg *config.Config) (objectstore.ObjectStore, *handler.MediaHandler, error) {
	switch cfg.ObjectStore {
	case config.ObjectStoreS3:
		store, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			KeyPrefix:     cfg.S3KeyPrefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("object store ready", "backend", "s3", "bucket", cfg.S3Bucket)
		return store, nil, nil
	default:
		store, err := objectstore.NewLocalStore(cfg.MediaRoot, cfg.MediaBaseURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("object store ready", "backend", "local", "root", cfg.MediaRoot)
		return store, handler.NewMediaHandler(store), nil
	}
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}
