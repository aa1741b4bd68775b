package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/smartmark/smartmark/internal/httpserver/deps"
	"github.com/smartmark/smartmark/internal/httpserver/handlers"
	"github.com/smartmark/smartmark/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	protected := r.With(mw.RequireSession(d.Sessions, d.Logger))
	protected.Get("/api/bookmarks", handlers.ListBookmarks(d))
	protected.Post("/api/bookmarks", handlers.CreateBookmark(d))
	protected.Delete("/api/bookmarks/{id}", handlers.DeleteBookmark(d))
}
