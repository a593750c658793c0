package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go-channel-identity/internal/middleware"
	"go-channel-identity/internal/model"
	"go-channel-identity/pkg/apierror"
)

type sessionService interface {
	Login(ctx context.Context, identifier string, password string) (model.LoginResult, error)
	Refresh(ctx context.Context, presented string) (model.TokenPair, error)
	Logout(ctx context.Context, accountID string) error
	ChangePassword(ctx context.Context, accountID string, oldPassword string, newPassword string) error
}

type registrar interface {
	Register(ctx context.Context, input model.RegisterInput) (model.PublicAccount, error)
}

type AuthHandler struct {
	sessions      sessionService
	accounts      registrar
	cookies       sessionCookies
	maxUploadSize int64
	uploadTempDir string
}

type AuthHandlerConfig struct {
	CookieSecure  bool
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	MaxUploadSize int64
	UploadTempDir string
}

func NewAuthHandler(sessions sessionService, accounts registrar, cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		sessions:      sessions,
		accounts:      accounts,
		cookies:       sessionCookies{secure: cfg.CookieSecure, accessTTL: cfg.AccessTTL, refreshTTL: cfg.RefreshTTL},
		maxUploadSize: cfg.MaxUploadSize,
		uploadTempDir: cfg.UploadTempDir,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	form, err := readMultipart(w, r, h.maxUploadSize, h.uploadTempDir, "avatar", "coverImage")
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accounts.Register(r.Context(), model.RegisterInput{
		FullName:        form.fields["fullName"],
		Email:           form.fields["email"],
		Username:        form.fields["username"],
		Password:        form.fields["password"],
		AvatarLocalPath: form.files["avatar"],
		CoverLocalPath:  form.files["coverImage"],
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, account, "User registered successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	identifier := strings.TrimSpace(payload.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(payload.Email)
	}

	result, err := h.sessions.Login(r.Context(), identifier, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.set(w, result.TokenPair)
	writeSuccess(w, http.StatusOK, result, "User logged in successfully")
}

// Refresh takes the refresh token from its cookie, falling back to the
// JSON body for clients that do not keep cookies.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var presented string
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}

	if strings.TrimSpace(presented) == "" {
		var payload model.RefreshRequest
		if err := decodeJSON(w, r, &payload, true); err != nil {
			writeError(w, err)
			return
		}
		presented = payload.RefreshToken
	}

	pair, err := h.sessions.Refresh(r.Context(), presented)
	if err != nil {
		if apierror.Is(err, apierror.CodeUnauthorized) {
			h.cookies.clear(w)
		}
		writeError(w, err)
		return
	}

	h.cookies.set(w, pair)
	writeSuccess(w, http.StatusOK, pair, "Access token refreshed")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), middleware.AccountIDFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	h.cookies.clear(w)
	writeSuccess(w, http.StatusOK, map[string]any{}, "User logged out")
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload model.ChangePasswordRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	accountID := middleware.AccountIDFromContext(r.Context())
	if err := h.sessions.ChangePassword(r.Context(), accountID, payload.OldPassword, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{}, "Password changed successfully")
}
