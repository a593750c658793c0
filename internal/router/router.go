package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-channel-identity/internal/config"
	"go-channel-identity/internal/handler"
	"go-channel-identity/internal/metrics"
	"go-channel-identity/internal/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Account *handler.AccountHandler
	Channel *handler.ChannelHandler
	Health  *handler.HealthHandler
	// Media is nil unless media is kept on local disk.
	Media *handler.MediaHandler
}

func New(cfg *config.Config, auth *middleware.AuthMiddleware, m *metrics.Metrics, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging(m))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", m.Handler())

	if h.Media != nil {
		r.Get("/media/{publicId}", h.Media.Serve)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(a chi.Router) {
			a.Post("/register", h.Auth.Register)
			a.Post("/login", h.Auth.Login)
			a.Post("/refresh", h.Auth.Refresh)
			a.With(auth.RequireAuth).Post("/logout", h.Auth.Logout)
			a.With(auth.RequireAuth).Post("/change-password", h.Auth.ChangePassword)
		})

		api.Route("/accounts/me", func(me chi.Router) {
			me.Use(auth.RequireAuth)
			me.Get("/", h.Account.Me)
			me.Patch("/", h.Account.UpdateDetails)
			me.Patch("/avatar", h.Account.ReplaceAvatar)
			me.Patch("/cover", h.Account.ReplaceCover)
		})

		api.Route("/channels/{username}", func(ch chi.Router) {
			ch.With(auth.OptionalAuth).Get("/", h.Channel.Profile)
			ch.With(auth.RequireAuth).Post("/subscription", h.Channel.Subscribe)
			ch.With(auth.RequireAuth).Delete("/subscription", h.Channel.Unsubscribe)
		})
	})

	return r
}
