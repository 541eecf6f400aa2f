package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/handlers/render"
	"github.com/blogware/bloghub/internal/netutil"
)

type limiter interface {
	Allow(ctx context.Context, ip string, url string) error
}

type limitLogger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// RateLimitMiddleware throttles per (client ip, path).
// Storage errors fail open: throttling protects the endpoint, it must not
// take it down. trustForwarded controls whether X-Forwarded-For is believed,
// see netutil.ClientIP.
func RateLimitMiddleware(l limiter, log limitLogger, trustForwarded bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := netutil.ClientIP(r, trustForwarded)

			err := l.Allow(r.Context(), ip, r.URL.Path)
			switch {
			case err == nil:
				// pass
			case errors.Is(err, apperrors.ErrRateLimited):
				log.Warn("rate limit exceeded", "ip", ip, "url", r.URL.Path)
				render.ServiceError(w, "Too many requests", http.StatusTooManyRequests)
				return
			default:
				log.Error("rate limiter failed, letting request through", "error", err.Error())
			}

			next.ServeHTTP(w, r)
		})
	}
}
