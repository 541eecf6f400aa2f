package ratelimit

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/repository/postgres"
	"github.com/blogware/bloghub/internal/testutil"
)

func Test_Limiter(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new Limiter
	// Rollback transaction when test stops
	inTx := func(t *testing.T, limit int, window time.Duration, fn func(l *Limiter)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			limiter, err := New(Config{Limit: limit, Window: window}, &postgres.AccessLogRepo{DB: tx})
			require.NoError(t, err, "limiter should be created without errors")

			fn(limiter)
		})
	}

	t.Run("new defaults", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			l, err := New(Config{}, &postgres.AccessLogRepo{DB: tx})
			require.NoError(t, err)

			require.Equal(t, defaultLimit, l.limit, "default limit should be set")
			require.Equal(t, defaultWindow, l.window, "default window should be set")
		})
	})

	t.Run("new without repo fail", func(t *testing.T) {
		_, err := New(Config{}, nil)
		require.Error(t, err, "limiter without access log has nothing to count")
	})

	t.Run("allow up to limit", func(t *testing.T) {
		inTx(t, 5, 10*time.Second, func(l *Limiter) {
			for i := 0; i < 5; i++ {
				err := l.Allow(t.Context(), "10.0.0.1", "/api/auth/login")
				require.NoError(t, err, "request %d of 5 should pass", i+1)
			}

			err := l.Allow(t.Context(), "10.0.0.1", "/api/auth/login")
			require.ErrorIs(t, err, apperrors.ErrRateLimited, "request over the limit should be rejected")
		})
	})

	t.Run("pairs counted separately", func(t *testing.T) {
		inTx(t, 1, 10*time.Second, func(l *Limiter) {
			require.NoError(t, l.Allow(t.Context(), "10.0.0.1", "/api/auth/login"))

			// Same ip other url and other ip same url are separate buckets
			require.NoError(t, l.Allow(t.Context(), "10.0.0.1", "/api/auth/registration"))
			require.NoError(t, l.Allow(t.Context(), "10.0.0.2", "/api/auth/login"))

			err := l.Allow(t.Context(), "10.0.0.1", "/api/auth/login")
			require.ErrorIs(t, err, apperrors.ErrRateLimited)
		})
	})

	t.Run("rejected requests extend the block", func(t *testing.T) {
		inTx(t, 1, 10*time.Second, func(l *Limiter) {
			require.NoError(t, l.Allow(t.Context(), "10.0.0.1", "/api/auth/login"))

			// Every rejected attempt is recorded too, so hammering never helps
			for i := 0; i < 3; i++ {
				err := l.Allow(t.Context(), "10.0.0.1", "/api/auth/login")
				require.ErrorIs(t, err, apperrors.ErrRateLimited)
			}
		})
	})

	t.Run("window slides", func(t *testing.T) {
		inTx(t, 1, 500*time.Millisecond, func(l *Limiter) {
			require.NoError(t, l.Allow(t.Context(), "10.0.0.1", "/api/auth/login"))

			err := l.Allow(t.Context(), "10.0.0.1", "/api/auth/login")
			require.ErrorIs(t, err, apperrors.ErrRateLimited)

			// Wait for the window to pass
			time.Sleep(600 * time.Millisecond)

			err = l.Allow(t.Context(), "10.0.0.1", "/api/auth/login")
			require.NoError(t, err, "old records should age out of the window")
		})
	})
}
