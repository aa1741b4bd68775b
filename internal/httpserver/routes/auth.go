package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/smartmark/smartmark/internal/httpserver/deps"
	"github.com/smartmark/smartmark/internal/httpserver/handlers"
	"github.com/smartmark/smartmark/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	limited := r.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.AuthRateBurst,
		RefillPerIPPerMin: d.AuthRatePerMin,
		TrustProxy:        d.TrustProxy,
	}))

	limited.Get("/auth/login", handlers.LoginPage(d))
	limited.Get("/auth/start", handlers.Login(d))
	limited.Get("/auth/callback", handlers.Callback(d))
	r.Post("/auth/signout", handlers.SignOut(d))
}
