package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"go-channel-identity/internal/metrics"
	"go-channel-identity/internal/model"
	"go-channel-identity/internal/security"
	"go-channel-identity/pkg/apierror"
)

const (
	reasonRefreshRequired = "refresh token is required"
	reasonRefreshExpired  = "refresh token expired"
	reasonRefreshInvalid  = "invalid refresh token"
	reasonRefreshReused   = "refresh token already used"
)

// SessionService owns the refresh-token slot on each account. Storing the
// current refresh token and requiring an exact match on refresh makes every
// refresh token single use.
type SessionService struct {
	accounts  AccountStore
	passwords PasswordHasher
	tokens    TokenIssuer
	metrics   *metrics.Metrics
}

func NewSessionService(accounts AccountStore, passwords PasswordHasher, tokens TokenIssuer, m *metrics.Metrics) *SessionService {
	return &SessionService{accounts: accounts, passwords: passwords, tokens: tokens, metrics: m}
}

// Login accepts a username or an email as identifier. Issuing a new refresh
// token overwrites the stored one, which revokes every earlier token.
func (s *SessionService) Login(ctx context.Context, identifier string, password string) (model.LoginResult, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return model.LoginResult{}, apierror.BadRequest("username or email is required", "")
	}
	if password == "" {
		return model.LoginResult{}, apierror.BadRequest("password is required", "")
	}

	account, err := s.accounts.FindByUsernameOrEmail(ctx, identifier, identifier)
	if errors.Is(err, model.ErrAccountNotFound) {
		s.metrics.Session("login", "not_found")
		return model.LoginResult{}, apierror.NotFound("account does not exist", "")
	}
	if err != nil {
		return model.LoginResult{}, internalError("could not look up account", err)
	}

	ok, err := s.passwords.Verify(password, account.PasswordHash)
	if err != nil {
		return model.LoginResult{}, internalError("could not verify credentials", err, "account_id", account.ID)
	}
	if !ok {
		s.metrics.Session("login", "bad_credentials")
		return model.LoginResult{}, apierror.Unauthorized("invalid credentials")
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return model.LoginResult{}, err
	}

	updated, err := s.accounts.Update(ctx, account.ID, model.AccountPatch{RefreshToken: model.StringPtr(pair.RefreshToken)})
	if err != nil {
		return model.LoginResult{}, internalError("could not store session", err, "account_id", account.ID)
	}

	s.metrics.Session("login", "ok")
	return model.LoginResult{TokenPair: pair, Account: updated.Public()}, nil
}

// Refresh rotates the token pair. The presented token must verify and must
// equal the stored one; the swap only lands while the stored token is still
// the one presented, so two concurrent refreshes cannot both succeed.
func (s *SessionService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		s.metrics.Session("refresh", "missing")
		return model.TokenPair{}, apierror.Unauthorized(reasonRefreshRequired)
	}

	claims, err := s.tokens.ParseRefreshToken(presented)
	if errors.Is(err, security.ErrTokenExpired) {
		s.metrics.Session("refresh", "expired")
		return model.TokenPair{}, apierror.Unauthorized(reasonRefreshExpired)
	}
	if err != nil {
		s.metrics.Session("refresh", "invalid")
		return model.TokenPair{}, apierror.Unauthorized(reasonRefreshInvalid)
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if errors.Is(err, model.ErrAccountNotFound) {
		s.metrics.Session("refresh", "invalid")
		return model.TokenPair{}, apierror.Unauthorized(reasonRefreshInvalid)
	}
	if err != nil {
		return model.TokenPair{}, internalError("could not look up account", err, "account_id", claims.AccountID)
	}

	if !tokensEqual(account.RefreshToken, presented) {
		s.metrics.Session("refresh", "reused")
		return model.TokenPair{}, apierror.Unauthorized(reasonRefreshReused)
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return model.TokenPair{}, err
	}

	swapped, err := s.accounts.SwapRefreshToken(ctx, account.ID, presented, pair.RefreshToken)
	if err != nil {
		return model.TokenPair{}, internalError("could not rotate session", err, "account_id", account.ID)
	}
	if !swapped {
		s.metrics.Session("refresh", "reused")
		return model.TokenPair{}, apierror.Unauthorized(reasonRefreshReused)
	}

	s.metrics.Session("refresh", "ok")
	return pair, nil
}

// Logout clears the refresh slot unconditionally. It is authorized by the
// caller's access token, so no refresh token is checked, and repeating it
// is harmless. An account id that no longer exists is NotFound.
func (s *SessionService) Logout(ctx context.Context, accountID string) error {
	_, err := s.accounts.Update(ctx, accountID, model.AccountPatch{RefreshToken: model.StringPtr("")})
	if errors.Is(err, model.ErrAccountNotFound) {
		return apierror.NotFound("account not found", "")
	}
	if err != nil {
		return internalError("could not end session", err, "account_id", accountID)
	}

	s.metrics.Session("logout", "ok")
	return nil
}

func (s *SessionService) ChangePassword(ctx context.Context, accountID string, oldPassword string, newPassword string) error {
	if oldPassword == "" {
		return apierror.BadRequest("old password is required", "")
	}
	if strings.TrimSpace(newPassword) == "" {
		return apierror.BadRequest("new password is required", "")
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if errors.Is(err, model.ErrAccountNotFound) {
		return apierror.NotFound("account not found", "")
	}
	if err != nil {
		return internalError("could not look up account", err, "account_id", accountID)
	}

	ok, err := s.passwords.Verify(oldPassword, account.PasswordHash)
	if err != nil {
		return internalError("could not verify credentials", err, "account_id", accountID)
	}
	if !ok {
		s.metrics.Session("change_password", "bad_credentials")
		return apierror.Unauthorized("invalid old password")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return internalError("could not hash password", err)
	}

	if _, err := s.accounts.Update(ctx, accountID, model.AccountPatch{PasswordHash: &hash}); err != nil {
		return internalError("could not update password", err, "account_id", accountID)
	}

	s.metrics.Session("change_password", "ok")
	return nil
}

func (s *SessionService) issuePair(account model.Account) (model.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(account)
	if err != nil {
		return model.TokenPair{}, internalError("could not issue access token", err, "account_id", account.ID)
	}

	refresh, err := s.tokens.IssueRefreshToken(account)
	if err != nil {
		return model.TokenPair{}, internalError("could not issue refresh token", err, "account_id", account.ID)
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func tokensEqual(stored string, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
