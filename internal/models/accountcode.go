package models

import (
	"time"
)

// AccountCode is a pending one-time code mailed to the user: either a
// registration confirmation or a password recovery, depending on which
// store it lives in. At most one pending code exists per email.
type AccountCode struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}
