package email

import (
	"context"
	"sync"

	"github.com/blogware/bloghub/internal/logger"
)

// Sender delivers account lifecycle messages.
// Message content and transport are deployment concerns; the services only
// hand over the address and the one-time code.
type Sender interface {
	SendConfirmationCode(ctx context.Context, email string, code string) error
	SendRecoveryCode(ctx context.Context, email string, code string) error
}

// LogSender writes the deliveries to the log instead of sending them.
// Stands in until a real mail transport is wired to the deployment.
type LogSender struct {
	Log logger.Logger
}

func NewLogSender(log logger.Logger) LogSender {
	return LogSender{Log: log}
}

func (s LogSender) SendConfirmationCode(_ context.Context, email string, code string) error {
	s.Log.Info("registration confirmation email", "email", email, "code", code)
	return nil
}

func (s LogSender) SendRecoveryCode(_ context.Context, email string, code string) error {
	s.Log.Info("password recovery email", "email", email, "code", code)
	return nil
}

// Capture keeps the last code sent to every address, so tests can complete
// the confirmation and recovery flows without a mailbox
type Capture struct {
	mu            sync.Mutex
	confirmations map[string]string
	recoveries    map[string]string
}

func NewCapture() *Capture {
	return &Capture{
		confirmations: map[string]string{},
		recoveries:    map[string]string{},
	}
}

func (c *Capture) SendConfirmationCode(_ context.Context, email string, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmations[email] = code
	return nil
}

func (c *Capture) SendRecoveryCode(_ context.Context, email string, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recoveries[email] = code
	return nil
}

// ConfirmationCode returns the last confirmation code sent to the address
func (c *Capture) ConfirmationCode(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmations[email]
}

// RecoveryCode returns the last recovery code sent to the address
func (c *Capture) RecoveryCode(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recoveries[email]
}
