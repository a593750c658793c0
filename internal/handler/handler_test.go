package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-channel-identity/internal/model"
	"go-channel-identity/pkg/apierror"
)

type stubSessions struct {
	loginIdentifier string
	refreshed       string
	loggedOut       string
	refreshErr      error
}

func (s *stubSessions) Login(_ context.Context, identifier string, _ string) (model.LoginResult, error) {
	s.loginIdentifier = identifier
	return model.LoginResult{
		TokenPair: model.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1", TokenType: "Bearer"},
		Account:   model.PublicAccount{ID: "acc-1", Username: identifier},
	}, nil
}

func (s *stubSessions) Refresh(_ context.Context, presented string) (model.TokenPair, error) {
	s.refreshed = presented
	if s.refreshErr != nil {
		return model.TokenPair{}, s.refreshErr
	}
	return model.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2", TokenType: "Bearer"}, nil
}

func (s *stubSessions) Logout(_ context.Context, accountID string) error {
	s.loggedOut = accountID
	return nil
}

func (s *stubSessions) ChangePassword(context.Context, string, string, string) error {
	return nil
}

type stubRegistrar struct {
	input       model.RegisterInput
	avatarBytes []byte
}

func (s *stubRegistrar) Register(_ context.Context, input model.RegisterInput) (model.PublicAccount, error) {
	s.input = input
	s.avatarBytes, _ = os.ReadFile(input.AvatarLocalPath)
	_ = os.Remove(input.AvatarLocalPath)
	return model.PublicAccount{ID: "new", Username: input.Username}, nil
}

func newTestAuthHandler(sessions *stubSessions, registrar *stubRegistrar, tempDir string) *AuthHandler {
	return NewAuthHandler(sessions, registrar, AuthHandlerConfig{
		CookieSecure:  true,
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		MaxUploadSize: 1 << 20,
		UploadTempDir: tempDir,
	})
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()

	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthHandler_LoginSetsCookies(t *testing.T) {
	sessions := &stubSessions{}
	h := newTestAuthHandler(sessions, &stubRegistrar{}, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@example.com","password":"pw"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@example.com", sessions.loginIdentifier)

	access := cookieByName(rec, "accessToken")
	require.NotNil(t, access)
	assert.Equal(t, "access-1", access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)

	refresh := cookieByName(rec, refreshTokenCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-1", refresh.Value)

	assert.True(t, decodeResponse(t, rec).Success)
}

func TestAuthHandler_LoginRejectsBadJSON(t *testing.T) {
	h := newTestAuthHandler(&stubSessions{}, &stubRegistrar{}, t.TempDir())

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierror.CodeBadRequest, decodeResponse(t, rec).Error.Code)
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("cookie wins over body", func(t *testing.T) {
		sessions := &stubSessions{}
		h := newTestAuthHandler(sessions, &stubRegistrar{}, t.TempDir())

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refreshToken":"from-body"}`))
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "from-cookie"})
		rec := httptest.NewRecorder()
		h.Refresh(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "from-cookie", sessions.refreshed)
		assert.Equal(t, "refresh-2", cookieByName(rec, refreshTokenCookie).Value)
	})

	t.Run("body fallback", func(t *testing.T) {
		sessions := &stubSessions{}
		h := newTestAuthHandler(sessions, &stubRegistrar{}, t.TempDir())

		rec := httptest.NewRecorder()
		h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refreshToken":"from-body"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "from-body", sessions.refreshed)
	})

	t.Run("unauthorized clears cookies", func(t *testing.T) {
		sessions := &stubSessions{refreshErr: apierror.Unauthorized("refresh token already used")}
		h := newTestAuthHandler(sessions, &stubRegistrar{}, t.TempDir())

		rec := httptest.NewRecorder()
		h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "refresh token already used", decodeResponse(t, rec).Error.Message)
		cleared := cookieByName(rec, refreshTokenCookie)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.Less(t, cleared.MaxAge, 0)
	})
}

func TestAuthHandler_RegisterMultipart(t *testing.T) {
	registrar := &stubRegistrar{}
	tempDir := t.TempDir()
	h := newTestAuthHandler(&stubSessions{}, registrar, tempDir)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("fullName", " Ann Lee "))
	require.NoError(t, writer.WriteField("email", "ann@example.com"))
	require.NoError(t, writer.WriteField("username", "ann"))
	require.NoError(t, writer.WriteField("password", " pass phrase "))
	part, err := writer.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("avatar-bytes"))
	require.NoError(t, err)
	ignored, err := writer.CreateFormFile("unexpected", "x.bin")
	require.NoError(t, err)
	_, err = ignored.Write([]byte("ignored"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ann Lee", registrar.input.FullName)
	assert.Equal(t, "ann", registrar.input.Username)
	assert.Equal(t, " pass phrase ", registrar.input.Password)
	assert.Empty(t, registrar.input.CoverLocalPath)
	assert.Equal(t, "avatar-bytes", string(registrar.avatarBytes))

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAuthHandler_RegisterTooLarge(t *testing.T) {
	registrar := &stubRegistrar{}
	h := NewAuthHandler(&stubSessions{}, registrar, AuthHandlerConfig{MaxUploadSize: 300, UploadTempDir: t.TempDir()})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("avatar", "big.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, registrar.input.Username)
}

type stubChannels struct {
	viewer string
}

func (s *stubChannels) GetChannelProfile(_ context.Context, username string, viewerID string) (model.ChannelProfile, error) {
	s.viewer = viewerID
	if username == "ghost" {
		return model.ChannelProfile{}, apierror.NotFound("channel does not exist", username)
	}
	return model.ChannelProfile{Username: username, SubscriberCount: 3, SubscribedToCount: 1}, nil
}

func (s *stubChannels) Subscribe(context.Context, string, string) (model.SubscriptionState, error) {
	return model.SubscriptionState{IsSubscribed: true}, nil
}

func (s *stubChannels) Unsubscribe(context.Context, string, string) (model.SubscriptionState, error) {
	return model.SubscriptionState{}, nil
}

func TestChannelHandler_Profile(t *testing.T) {
	channels := &stubChannels{}
	h := NewChannelHandler(channels)

	r := chi.NewRouter()
	r.Get("/channels/{username}", h.Profile)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/channels/studio", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"subscribersCount":3`)
	assert.Contains(t, rec.Body.String(), `"channelsSubscribedToCount":1`)
	assert.Empty(t, channels.viewer)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/channels/ghost", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierror.CodeNotFound, decodeResponse(t, rec).Error.Code)
}

func TestWriteErrorHidesUntypedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, os.ErrPermission)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, apierror.CodeInternal, body.Error.Code)
	assert.NotContains(t, rec.Body.String(), "permission")
}

func TestWriteErrorMapsSentinels(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, model.ErrObjectNotFound)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
