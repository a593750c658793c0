package service

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"go-channel-identity/internal/metrics"
	"go-channel-identity/internal/model"
	"go-channel-identity/internal/security"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]model.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[string]model.Account{}}
}

func (m *memAccounts) FindByID(_ context.Context, id string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byID[id]
	if !ok {
		return model.Account{}, model.ErrAccountNotFound
	}
	return a, nil
}

func (m *memAccounts) FindByUsername(_ context.Context, username string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.byID {
		if strings.EqualFold(a.Username, username) {
			return a, nil
		}
	}
	return model.Account{}, model.ErrAccountNotFound
}

func (m *memAccounts) FindByUsernameOrEmail(_ context.Context, username string, email string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.byID {
		if (username != "" && strings.EqualFold(a.Username, username)) ||
			(email != "" && strings.EqualFold(a.Email, email)) {
			return a, nil
		}
	}
	return model.Account{}, model.ErrAccountNotFound
}

func (m *memAccounts) Create(_ context.Context, account model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.byID {
		if strings.EqualFold(a.Username, account.Username) || strings.EqualFold(a.Email, account.Email) {
			return model.ErrAccountExists
		}
	}
	m.byID[account.ID] = account
	return nil
}

func (m *memAccounts) Update(_ context.Context, id string, patch model.AccountPatch) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byID[id]
	if !ok {
		return model.Account{}, model.ErrAccountNotFound
	}

	if patch.Email != nil {
		for otherID, other := range m.byID {
			if otherID != id && strings.EqualFold(other.Email, *patch.Email) {
				return model.Account{}, model.ErrAccountExists
			}
		}
		a.Email = *patch.Email
	}
	if patch.FullName != nil {
		a.FullName = *patch.FullName
	}
	if patch.PasswordHash != nil {
		a.PasswordHash = *patch.PasswordHash
	}
	if patch.AvatarURL != nil {
		a.AvatarURL = *patch.AvatarURL
	}
	if patch.CoverURL != nil {
		a.CoverURL = *patch.CoverURL
	}
	if patch.RefreshToken != nil {
		a.RefreshToken = *patch.RefreshToken
	}
	a.UpdatedAt = time.Now().UTC()

	m.byID[id] = a
	return a, nil
}

func (m *memAccounts) SwapRefreshToken(_ context.Context, id string, expected string, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byID[id]
	if !ok || a.RefreshToken == "" || a.RefreshToken != expected {
		return false, nil
	}
	a.RefreshToken = next
	m.byID[id] = a
	return true, nil
}

func (m *memAccounts) get(t *testing.T, id string) model.Account {
	t.Helper()

	a, err := m.FindByID(context.Background(), id)
	require.NoError(t, err)
	return a
}

type memSubscriptions struct {
	mu    sync.Mutex
	edges map[[2]string]struct{}
}

func newMemSubscriptions() *memSubscriptions {
	return &memSubscriptions{edges: map[[2]string]struct{}{}}
}

func (m *memSubscriptions) Subscribe(_ context.Context, subscriberID string, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.edges[[2]string{subscriberID, channelID}] = struct{}{}
	return nil
}

func (m *memSubscriptions) Unsubscribe(_ context.Context, subscriberID string, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.edges, [2]string{subscriberID, channelID})
	return nil
}

func (m *memSubscriptions) Stats(_ context.Context, channelID string, viewerID string) (model.SubscriptionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats model.SubscriptionStats
	for edge := range m.edges {
		if edge[1] == channelID {
			stats.SubscriberCount++
			if viewerID != "" && edge[0] == viewerID {
				stats.IsSubscribed = true
			}
		}
		if edge[0] == channelID {
			stats.SubscribedToCount++
		}
	}
	return stats, nil
}

func testHasher() *security.PasswordHasher {
	return security.NewPasswordHasher(4)
}

func testIssuer(t *testing.T) *security.TokenIssuer {
	t.Helper()

	issuer, err := security.NewTokenIssuer(security.TokenConfig{
		AccessSecret:  "access-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret-for-tests",
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)
	return issuer
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func seedAccount(t *testing.T, store *memAccounts, username string, password string) model.Account {
	t.Helper()

	hash, err := testHasher().Hash(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	account := model.Account{
		ID:           username + "-id",
		Username:     username,
		Email:        username + "@example.com",
		FullName:     strings.ToUpper(username[:1]) + username[1:],
		PasswordHash: hash,
		AvatarURL:    "http://media.test/" + username + "-avatar.png",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.Create(context.Background(), account))
	return account
}

// writePNG writes a small valid PNG into a fresh temp dir and returns its
// path.
func writePNG(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	path := filepath.Join(t.TempDir(), "upload.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, img))
	require.NoError(t, file.Close())
	return path
}

func requireGone(t *testing.T, path string) {
	t.Helper()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "expected %s to be removed", path)
}
