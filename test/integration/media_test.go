//go:build integration

package integration

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"go-channel-identity/internal/model"
)

func TestReplaceAvatarRemovesPreviousAsset(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "erin", "pw")
	_, tokens := env.login(t, "erin", "pw")

	me := doAuthRequest(t, http.MethodGet, env.server.URL+"/api/v1/accounts/me", nil, "", tokens.AccessToken)
	var before model.PublicAccount
	decodeData(t, me, &before)
	oldID := path.Base(before.Avatar)
	require.FileExists(t, filepath.Join(env.mediaRoot, oldID))

	body, contentType := multipartBody(t, nil, map[string][]byte{"avatar": pngBytes(t)})
	resp := doAuthRequest(t, http.MethodPatch, env.server.URL+"/api/v1/accounts/me/avatar", body.Bytes(), contentType, tokens.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var after model.PublicAccount
	decodeData(t, resp, &after)
	require.NotEqual(t, before.Avatar, after.Avatar)

	newID := path.Base(after.Avatar)
	require.FileExists(t, filepath.Join(env.mediaRoot, newID))
	_, err := os.Stat(filepath.Join(env.mediaRoot, oldID))
	require.True(t, os.IsNotExist(err))

	served, err := http.Get(env.server.URL + "/media/" + url.PathEscape(newID))
	require.NoError(t, err)
	defer served.Body.Close()
	require.Equal(t, http.StatusOK, served.StatusCode)
	require.Equal(t, "image/png", served.Header.Get("Content-Type"))
	data, err := io.ReadAll(served.Body)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestReplaceCoverRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "fred", "pw")
	_, tokens := env.login(t, "fred", "pw")

	body, contentType := multipartBody(t, nil, map[string][]byte{"coverImage": []byte("definitely not an image")})
	resp := doAuthRequest(t, http.MethodPatch, env.server.URL+"/api/v1/accounts/me/cover", body.Bytes(), contentType, tokens.AccessToken)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	entries, err := os.ReadDir(env.mediaRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the registration avatar is stored")
}
