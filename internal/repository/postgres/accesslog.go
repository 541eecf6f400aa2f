package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/blogware/bloghub/internal/models"
)

type AccessLogRepo struct {
	DB DBTX
}

const recordAccess = `-- name: RecordAccess
INSERT INTO access_log (ip, url, occurred_at)
VALUES ($1, $2, $3)
`

func (r *AccessLogRepo) Record(ctx context.Context, record models.AccessRecord) error {
	_, err := r.DB.Exec(ctx, recordAccess, record.IP, record.URL, record.OccurredAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const countAccessesInWindow = `-- name: CountAccessesInWindow
SELECT count(*)
FROM access_log
WHERE ip = $1 AND url = $2 AND occurred_at BETWEEN $3 AND $4
`

// CountInWindow counts records for the exact (ip, url) pair within [now-window, now].
// The window is evaluated from 'now' on every call, so unconditional recording
// keeps extending the effective block while requests keep coming.
func (r *AccessLogRepo) CountInWindow(ctx context.Context, ip string, url string, now time.Time, window time.Duration) (int, error) {
	rows, _ := r.DB.Query(ctx, countAccessesInWindow, ip, url, now.Add(-window), now)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}
