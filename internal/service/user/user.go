package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/email"
	"github.com/blogware/bloghub/internal/models"
	"github.com/blogware/bloghub/internal/repository"
	"github.com/blogware/bloghub/internal/service/auth"
)

const defaultCodeTTL = 5 * time.Minute

type Config struct {
	// Lifetime of confirmation and recovery codes
	// If not set than default is used
	CodeTTL time.Duration
}

// UserService is the credential validator and user directory of the platform,
// and owns the registration confirmation and password recovery flows.
// Blog side user administration (listing, roles) lives elsewhere.
type UserService struct {
	codeTTL time.Duration

	hasher        auth.PasswordHasher
	userRepo      repository.UserRepo
	confirmations repository.AccountCodeRepo
	recoveries    repository.AccountCodeRepo
	mail          email.Sender
}

func NewService(
	cfg Config,
	hasher auth.PasswordHasher,
	userRepo repository.UserRepo,
	confirmations repository.AccountCodeRepo,
	recoveries repository.AccountCodeRepo,
	mail email.Sender,
) *UserService {
	if cfg.CodeTTL == 0 {
		cfg.CodeTTL = defaultCodeTTL
	}
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		codeTTL:       cfg.CodeTTL,
		hasher:        hasher,
		userRepo:      userRepo,
		confirmations: confirmations,
		recoveries:    recoveries,
		mail:          mail,
	}
}

// Register creates an immediately active user.
// This is the direct path (service created accounts); self registration goes
// through SignUp and has to confirm the email before the first login.
func (s *UserService) Register(ctx context.Context, login string, email string, password string) (models.User, error) {
	var user models.User

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, login, email, hash)
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

// SignUp registers a user that still has to confirm the email: a pending
// confirmation code is stored and mailed, and until it is confirmed the
// account can't log in
func (s *UserService) SignUp(ctx context.Context, login string, emailAddr string, password string) (models.User, error) {
	user, err := s.Register(ctx, login, emailAddr, password)
	if err != nil {
		return user, err
	}

	code := models.AccountCode{
		Email:     emailAddr,
		Code:      uuid.NewString(),
		ExpiresAt: time.Now().Add(s.codeTTL),
	}
	if err := s.confirmations.Create(ctx, code); err != nil {
		return user, fmt.Errorf("can't store confirmation code. Err: %w", err)
	}

	if err := s.mail.SendConfirmationCode(ctx, emailAddr, code.Code); err != nil {
		return user, fmt.Errorf("can't send confirmation email. Err: %w", err)
	}

	return user, nil
}

// ConfirmAccount completes the registration with the emailed code.
// Deleting the pending record is what makes the account confirmed.
func (s *UserService) ConfirmAccount(ctx context.Context, code string) error {
	pending, err := s.confirmations.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	if time.Now().After(pending.ExpiresAt) {
		return apperrors.ErrCodeExpired
	}

	return s.confirmations.Delete(ctx, pending.Email)
}

// ResendConfirmation rotates the pending code and mails it again.
// Rotating also extends the expiry window; the previous code stops working.
// Returns apperrors.ErrCodeNotFound when nothing is pending for the email
// (unknown address or already confirmed account).
func (s *UserService) ResendConfirmation(ctx context.Context, emailAddr string) error {
	pending, err := s.confirmations.Update(ctx, emailAddr, uuid.NewString(), time.Now().Add(s.codeTTL))
	if err != nil {
		return err
	}

	return s.mail.SendConfirmationCode(ctx, emailAddr, pending.Code)
}

// RecoverPassword starts the password recovery flow.
// An unknown email succeeds silently so the endpoint can't reveal which
// addresses have accounts. A repeated request rotates the code.
func (s *UserService) RecoverPassword(ctx context.Context, emailAddr string) error {
	_, err := s.userRepo.GetUserByLoginOrEmail(ctx, emailAddr)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code := uuid.NewString()
	expiresAt := time.Now().Add(s.codeTTL)

	_, err = s.recoveries.Update(ctx, emailAddr, code, expiresAt)
	if errors.Is(err, apperrors.ErrCodeNotFound) {
		err = s.recoveries.Create(ctx, models.AccountCode{Email: emailAddr, Code: code, ExpiresAt: expiresAt})
	}
	if err != nil {
		return err
	}

	return s.mail.SendRecoveryCode(ctx, emailAddr, code)
}

// ConfirmNewPassword replaces the password using an emailed recovery code.
// The code is one-time-use: the pending record goes away with the change.
func (s *UserService) ConfirmNewPassword(ctx context.Context, code string, newPassword string) error {
	pending, err := s.recoveries.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	if time.Now().After(pending.ExpiresAt) {
		return apperrors.ErrCodeExpired
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password. Err: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, pending.Email, hash); err != nil {
		return err
	}

	return s.recoveries.Delete(ctx, pending.Email)
}

// ValidateCredentials returns the user when loginOrEmail and password match.
// Wrong password, unknown user and a not yet confirmed account are
// indistinguishable to the caller.
func (s *UserService) ValidateCredentials(ctx context.Context, loginOrEmail string, password string) (models.User, error) {
	user, err := s.userRepo.GetUserByLoginOrEmail(ctx, loginOrEmail)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Compare against an empty hash anyway to keep timing comparable
			_ = s.hasher.Compare("", password)
			return models.User{}, apperrors.ErrUserNotFound
		}
		return models.User{}, err
	}

	// A pending confirmation record means the account is not confirmed yet
	_, err = s.confirmations.GetByEmail(ctx, user.Email)
	switch {
	case err == nil:
		return models.User{}, apperrors.ErrUserNotFound
	case errors.Is(err, apperrors.ErrCodeNotFound):
		// confirmed, go on
	default:
		return models.User{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}
