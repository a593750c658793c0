//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"go-channel-identity/internal/config"
	"go-channel-identity/internal/database"
	"go-channel-identity/internal/handler"
	"go-channel-identity/internal/metrics"
	"go-channel-identity/internal/middleware"
	"go-channel-identity/internal/objectstore"
	"go-channel-identity/internal/repository"
	"go-channel-identity/internal/router"
	"go-channel-identity/internal/security"
	"go-channel-identity/internal/service"
)

type testEnv struct {
	server    *httptest.Server
	db        *database.DB
	mediaRoot string
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, databaseURL, 4, 0)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE subscriptions, accounts`)
	require.NoError(t, err)

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	mediaRoot := filepath.Join(t.TempDir(), "media")
	tempDir := filepath.Join(t.TempDir(), "uploads")
	require.NoError(t, os.MkdirAll(tempDir, 0o755))

	cfg := &config.Config{
		AccessTokenSecret:  "integration-access",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenSecret: "integration-refresh",
		RefreshTokenTTL:    24 * time.Hour,
		RequestTimeout:     30 * time.Second,
		CORSOrigins:        []string{"*"},
		MaxUploadSize:      10 << 20,
		UploadTempDir:      tempDir,
	}

	tokens, err := security.NewTokenIssuer(security.TokenConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	require.NoError(t, err)
	passwords := security.NewPasswordHasher(4)
	m := metrics.New(prometheus.NewRegistry())

	store, err := objectstore.NewLocalStore(mediaRoot, "http://media.invalid/media")
	require.NoError(t, err)

	accounts := repository.NewAccountRepository(db.Pool)
	subscriptions := repository.NewSubscriptionRepository(db.Pool)
	mediaService := service.NewMediaService(accounts, store, m)
	accountService := service.NewAccountService(accounts, passwords, mediaService)

	srv := httptest.NewServer(router.New(cfg, middleware.NewAuthMiddleware(tokens), m, router.Handlers{
		Auth: handler.NewAuthHandler(service.NewSessionService(accounts, passwords, tokens, m), accountService, handler.AuthHandlerConfig{
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshTTL:    cfg.RefreshTokenTTL,
			MaxUploadSize: cfg.MaxUploadSize,
			UploadTempDir: cfg.UploadTempDir,
		}),
		Account: handler.NewAccountHandler(accountService, mediaService, cfg.MaxUploadSize, cfg.UploadTempDir),
		Channel: handler.NewChannelHandler(service.NewChannelService(accounts, subscriptions, m)),
		Health:  handler.NewHealthHandler(db),
		Media:   handler.NewMediaHandler(store),
	}))
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, db: db, mediaRoot: mediaRoot}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 200, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for name, data := range files {
		part, err := writer.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return &body, writer.FormDataContentType()
}

func (e *testEnv) register(t *testing.T, username string, password string) {
	t.Helper()

	body, contentType := multipartBody(t, map[string]string{
		"fullName": "User " + username,
		"email":    username + "@example.com",
		"username": username,
		"password": password,
	}, map[string][]byte{"avatar": pngBytes(t)})

	resp, err := http.Post(e.server.URL+"/api/v1/auth/register", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

type tokenData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (e *testEnv) login(t *testing.T, username string, password string) (*http.Response, tokenData) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	require.NoError(t, err)

	resp, err := http.Post(e.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var parsed struct {
		Data tokenData `json:"data"`
	}
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	}
	return resp, parsed.Data
}

func (e *testEnv) refresh(t *testing.T, refreshToken string) (*http.Response, tokenData) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	require.NoError(t, err)

	resp, err := http.Post(e.server.URL+"/api/v1/auth/refresh", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var parsed struct {
		Data tokenData `json:"data"`
	}
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	}
	return resp, parsed.Data
}

func doAuthRequest(t *testing.T, method string, url string, body []byte, contentType string, accessToken string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeData(t *testing.T, resp *http.Response, dst any) {
	t.Helper()

	envelope := struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}{Data: dst}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
}
