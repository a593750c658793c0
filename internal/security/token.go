package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-channel-identity/internal/model"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

type tokenClaims struct {
	Type     string `json:"typ"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses access and refresh tokens. The two kinds use
// independent secrets, so neither verifies as the other.
type TokenIssuer struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		accessTTL:     cfg.AccessTTL,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// IssueAccessToken carries the profile fields a request handler may need
// without a store lookup.
func (i *TokenIssuer) IssueAccessToken(account model.Account) (string, error) {
	claims := i.baseClaims(account.ID, model.TokenTypeAccess, i.accessTTL)
	claims.Username = account.Username
	claims.Email = account.Email
	claims.FullName = account.FullName
	return sign(claims, i.accessSecret)
}

// IssueRefreshToken carries only the account id. Each token has a fresh jti,
// so two tokens minted in the same second still differ.
func (i *TokenIssuer) IssueRefreshToken(account model.Account) (string, error) {
	return sign(i.baseClaims(account.ID, model.TokenTypeRefresh, i.refreshTTL), i.refreshSecret)
}

func (i *TokenIssuer) ParseAccessToken(token string) (*model.AuthClaims, error) {
	return i.parse(token, i.accessSecret, model.TokenTypeAccess)
}

func (i *TokenIssuer) ParseRefreshToken(token string) (*model.AuthClaims, error) {
	return i.parse(token, i.refreshSecret, model.TokenTypeRefresh)
}

func (i *TokenIssuer) baseClaims(accountID string, typ string, ttl time.Duration) tokenClaims {
	now := i.now().UTC()
	return tokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (i *TokenIssuer) parse(token string, secret []byte, expectedType string) (*model.AuthClaims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.Type != expectedType || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return &model.AuthClaims{
		AccountID: claims.Subject,
		Username:  claims.Username,
		Email:     claims.Email,
		FullName:  claims.FullName,
		Type:      claims.Type,
		TokenID:   claims.ID,
	}, nil
}

func sign(claims tokenClaims, secret []byte) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", claims.Type, err)
	}
	return signed, nil
}
