package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/blogware/bloghub/internal/apperrors"
	"github.com/blogware/bloghub/internal/models"
)

const (
	defaultAccessTokenTTL  = 10 * time.Minute
	defaultRefreshTokenTTL = 20 * time.Minute
	defaultSigningMethod   = "HS256"
)

// Claims of the short lived access token: identity only
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
}

// Claims of the refresh token: identity plus the device the pair was issued for
type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"uid"`
	DeviceID uuid.UUID `json:"did"`
}

// Token manager with sensible defaults
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenManager issues and verifies self contained signed tokens.
// No token is persisted: signature and expiry are the whole authority,
// only the revocation ledger (kept elsewhere) can preempt a valid token.
type TokenManager struct {
	key string
	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:        cfg.SecretKey,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// GeneratePair signs a fresh access+refresh token pair for the user and device
func (m *TokenManager) GeneratePair(userID uuid.UUID, deviceID uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	accessToken := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			},
			UserID: userID,
		},
	)
	access, err := accessToken.SignedString([]byte(m.key))
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refreshToken := jwt.NewWithClaims(
		m.alg,
		RefreshTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
			},
			UserID:   userID,
			DeviceID: deviceID,
		},
	)
	refresh, err := refreshToken.SignedString([]byte(m.key))
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(access string) (userID uuid.UUID, err error) {
	claims := &AccessTokenClaims{}

	_, err = jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, wrapParseError(err)
	}

	if claims.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("subject claim is missing. Err: %w", apperrors.ErrTokenInvalid)
	}

	return claims.UserID, nil
}

// InspectRefresh validates the refresh token and returns its full claim set.
// Tokens missing any of the required fields are rejected, not duck-typed.
func (m *TokenManager) InspectRefresh(refresh string) (models.TokenInfo, error) {
	return m.inspectRefresh(refresh,
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
}

// InspectExpiredRefresh is InspectRefresh that tolerates an expired token.
// Logout needs the claims of a token that is no longer valid; the signature
// is still checked, so forged tokens stay rejected.
func (m *TokenManager) InspectExpiredRefresh(refresh string) (models.TokenInfo, error) {
	return m.inspectRefresh(refresh,
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
}

func (m *TokenManager) inspectRefresh(refresh string, opts ...jwt.ParserOption) (models.TokenInfo, error) {
	var info models.TokenInfo
	claims := &RefreshTokenClaims{}

	_, err := jwt.ParseWithClaims(
		refresh,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		opts...,
	)
	if err != nil {
		return info, wrapParseError(err)
	}

	if claims.UserID == uuid.Nil || claims.DeviceID == uuid.Nil || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return info, fmt.Errorf("required claims are missing. Err: %w", apperrors.ErrTokenInvalid)
	}

	return models.TokenInfo{
		UserID:    claims.UserID,
		DeviceID:  claims.DeviceID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Expired tokens stay distinguishable for logging, everything else is uniform
func wrapParseError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("error while parsing token. Err: %w", apperrors.ErrTokenExpired)
	}

	return fmt.Errorf("error while parsing token. Err: %w", apperrors.ErrTokenInvalid)
}
