package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/blogware/bloghub/internal/db"
	"github.com/blogware/bloghub/internal/email"
	"github.com/blogware/bloghub/internal/handlers"
	"github.com/blogware/bloghub/internal/handlers/middleware"
	"github.com/blogware/bloghub/internal/logger"
	"github.com/blogware/bloghub/internal/repository/postgres"
	"github.com/blogware/bloghub/internal/service/auth"
	"github.com/blogware/bloghub/internal/service/auth/tokenmanager"
	"github.com/blogware/bloghub/internal/service/ratelimit"
	"github.com/blogware/bloghub/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	userRepo := &postgres.UserRepo{DB: pool}
	sessionRepo := &postgres.SessionRepo{DB: pool}
	revokedRepo := &postgres.RevokedTokenRepo{DB: pool}
	accessLogRepo := &postgres.AccessLogRepo{DB: pool}
	confirmationRepo := &postgres.AccountCodeRepo{DB: pool, Purpose: postgres.PurposeConfirmation}
	recoveryRepo := &postgres.AccountCodeRepo{DB: pool, Purpose: postgres.PurposeRecovery}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	mailSender := email.NewLogSender(logger)
	userService := user.NewService(user.Config{}, auth.DefaultHasher, userRepo, confirmationRepo, recoveryRepo, mailSender)
	authService, err := auth.NewService(auth.Config{}, tokenManager, userService, sessionRepo, revokedRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	limiter, err := ratelimit.New(ratelimit.Config{Limit: c.ThrottleLimit, Window: c.ThrottleWindow}, accessLogRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating rate limiter. Err: %w", err)
	}

	mux := handlers.NewRouter(
		authService,
		userService,
		middleware.RateLimitMiddleware(limiter, logger, c.TrustForwardedFor),
		c.TrustForwardedFor,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
