package handler

import (
	"net/http"
	"time"

	"go-channel-identity/internal/middleware"
	"go-channel-identity/internal/model"
)

const refreshTokenCookie = "refreshToken"

// sessionCookies sets and clears the HttpOnly token cookies. Secure is
// configurable so local development over plain HTTP still works.
type sessionCookies struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (c sessionCookies) set(w http.ResponseWriter, pair model.TokenPair) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, pair.AccessToken, c.accessTTL))
	http.SetCookie(w, c.cookie(refreshTokenCookie, pair.RefreshToken, c.refreshTTL))
}

func (c sessionCookies) clear(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		cookie := c.cookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		http.SetCookie(w, cookie)
	}
}

func (c sessionCookies) cookie(name string, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
