package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/models"
	"github.com/blogware/bloghub/internal/repository"
)

const (
	defaultLimit  = 5
	defaultWindow = 10 * time.Second
)

type Config struct {
	// Requests allowed per (ip, url) pair within the window
	// If not set than default is used
	Limit  int
	Window time.Duration
}

// Limiter throttles by counting every request to an (ip, url) pair within a
// trailing window. Recording is unconditional: rejected requests count too,
// which keeps extending the block while a client hammers the endpoint.
type Limiter struct {
	limit  int
	window time.Duration

	accessLog repository.AccessLogRepo
}

func New(cfg Config, accessLog repository.AccessLogRepo) (*Limiter, error) {
	if accessLog == nil {
		return nil, errors.New("access log repo must not be nil")
	}

	if cfg.Limit == 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.Window == 0 {
		cfg.Window = defaultWindow
	}

	return &Limiter{
		limit:     cfg.Limit,
		window:    cfg.Window,
		accessLog: accessLog,
	}, nil
}

// Allow records the request first and then decides.
// Returns apperrors.ErrRateLimited when the pair exceeded the limit.
func (l *Limiter) Allow(ctx context.Context, ip string, url string) error {
	now := time.Now()

	err := l.accessLog.Record(ctx, models.AccessRecord{IP: ip, URL: url, OccurredAt: now})
	if err != nil {
		return fmt.Errorf("can't record access. Err: %w", err)
	}

	count, err := l.accessLog.CountInWindow(ctx, ip, url, now, l.window)
	if err != nil {
		return fmt.Errorf("can't count accesses. Err: %w", err)
	}

	if count > l.limit {
		return apperrors.ErrRateLimited
	}

	return nil
}
