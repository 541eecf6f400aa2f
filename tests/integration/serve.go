package integration

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/blogware/bloghub/internal/email"
	"github.com/blogware/bloghub/internal/handlers"
	"github.com/blogware/bloghub/internal/handlers/middleware"
	"github.com/blogware/bloghub/internal/logger"
	"github.com/blogware/bloghub/internal/repository/postgres"
	"github.com/blogware/bloghub/internal/service/auth"
	"github.com/blogware/bloghub/internal/service/auth/tokenmanager"
	"github.com/blogware/bloghub/internal/service/ratelimit"
	"github.com/blogware/bloghub/internal/service/user"
	"github.com/blogware/bloghub/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	UserService *user.UserService

	// Outbound emails are captured here, tests read the codes from it
	Mail *email.Capture
}

// Create db transaction and run the full production router with that connection
// (one connection cause one transaction). The throttle limit is generous so the
// flows under test never trip it; use RunTxThrottled to test throttling itself.
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, s Services)) {
	RunTxThrottled(dbpool, t, ratelimit.Config{Limit: 1000, Window: time.Minute}, fn)
}

// Same as RunTx but with caller controlled throttle settings
func RunTxThrottled(dbpool *pgxpool.Pool, t *testing.T, throttle ratelimit.Config, fn func(srvURL string, s Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		userRepo := &postgres.UserRepo{DB: tx}
		sessionRepo := &postgres.SessionRepo{DB: tx}
		revokedRepo := &postgres.RevokedTokenRepo{DB: tx}
		accessLogRepo := &postgres.AccessLogRepo{DB: tx}
		confirmationRepo := &postgres.AccountCodeRepo{DB: tx, Purpose: postgres.PurposeConfirmation}
		recoveryRepo := &postgres.AccountCodeRepo{DB: tx, Purpose: postgres.PurposeRecovery}

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"})
		require.NoError(t, err, "token manager should be created without errors")

		mail := email.NewCapture()
		us := user.NewService(user.Config{}, auth.DefaultHasher, userRepo, confirmationRepo, recoveryRepo, mail)

		as, err := auth.NewService(auth.Config{}, tokenManager, us, sessionRepo, revokedRepo)
		require.NoError(t, err, "auth service starting error", err)

		lim, err := ratelimit.New(throttle, accessLogRepo)
		require.NoError(t, err, "rate limiter starting error", err)

		// Complete all together as router
		// X-Forwarded-For is trusted so tests can simulate different clients
		log := logger.NewNoOpLogger()
		router := handlers.NewRouter(as, us, middleware.RateLimitMiddleware(lim, log, true), true, log)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, Services{
			AuthService: as,
			UserService: us,
			Mail:        mail,
		})
	})
}
