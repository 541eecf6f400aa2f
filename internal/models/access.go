package models

import (
	"time"
)

// AccessRecord is a single request seen by the throttle.
// Records are append only and used in aggregate within a trailing window.
type AccessRecord struct {
	IP         string
	URL        string
	OccurredAt time.Time
}
