package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-channel-identity/internal/model"
	"go-channel-identity/internal/security"
	"go-channel-identity/pkg/apierror"
)

// AccessTokenCookie is the cookie the auth handlers set on login.
const AccessTokenCookie = "accessToken"

type accessTokenParser interface {
	ParseAccessToken(token string) (*model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

// AuthMiddleware resolves an access token into claims once per request.
// Handlers read the identity from the context and pass it to services
// explicitly.
type AuthMiddleware struct {
	parser accessTokenParser
}

func NewAuthMiddleware(parser accessTokenParser) *AuthMiddleware {
	return &AuthMiddleware{parser: parser}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := accessTokenFromRequest(r)
		if token == "" {
			writeError(w, apierror.Unauthorized("authentication required"))
			return
		}

		claims, err := m.parser.ParseAccessToken(token)
		if errors.Is(err, security.ErrTokenExpired) {
			writeError(w, apierror.Unauthorized("access token expired"))
			return
		}
		if err != nil {
			writeError(w, apierror.Unauthorized("invalid access token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuth attaches claims when a valid access token is present and
// otherwise lets the request through anonymously.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := accessTokenFromRequest(r)
		if token != "" {
			if claims, err := m.parser.ParseAccessToken(token); err == nil {
				r = r.WithContext(withClaims(r.Context(), claims))
			}
		}

		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok && claims != nil
}

// AccountIDFromContext returns the authenticated account id, or "" for an
// anonymous request.
func AccountIDFromContext(ctx context.Context) string {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return ""
	}
	return claims.AccountID
}

func withClaims(ctx context.Context, claims *model.AuthClaims) context.Context {
	return context.WithValue(ctx, authClaimsContextKey, claims)
}

// accessTokenFromRequest prefers the Authorization header over the cookie.
func accessTokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}

	return ""
}
