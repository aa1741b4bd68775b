package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/smartmark/smartmark/internal/httpserver/deps"
	"github.com/smartmark/smartmark/internal/httpserver/handlers"
	"github.com/smartmark/smartmark/internal/httpserver/mw"
)

func init() { Register(registerStream) }

func registerStream(r chi.Router, d deps.Deps) {
	r.With(mw.RequireSession(d.Sessions, d.Logger)).Get("/ws", handlers.Stream(d))
}
