package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartmark/smartmark/internal/auth"
	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/httpserver/deps"
	"github.com/smartmark/smartmark/internal/logger"
)

type createBookmarkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListBookmarks returns the caller's bookmarks, newest first.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := auth.SessionFrom(r.Context())

		list, err := d.Store.ListByOwner(r.Context(), sess.UserID)
		if err != nil {
			d.Logger.Error("failed to list bookmarks",
				logger.String("user_id", sess.UserID),
				logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list bookmarks"})
			return
		}
		if list == nil {
			list = []domain.Bookmark{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// CreateBookmark validates input, normalizes the URL and stores a new
// bookmark for the caller.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := auth.SessionFrom(r.Context())

		var req createBookmarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}

		title, url, err := domain.ValidateInput(req.Title, req.URL)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		b, err := d.Store.Insert(r.Context(), sess.UserID, title, url)
		if err != nil {
			d.Logger.Error("failed to insert bookmark",
				logger.String("user_id", sess.UserID),
				logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save bookmark"})
			return
		}

		writeJSON(w, http.StatusCreated, b)
	}
}

// DeleteBookmark removes one of the caller's bookmarks. Deleting a row
// that is already gone succeeds.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := auth.SessionFrom(r.Context())

		id := chi.URLParam(r, "id")
		if id == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing bookmark id"})
			return
		}

		if err := d.Store.Delete(r.Context(), sess.UserID, id); err != nil {
			d.Logger.Error("failed to delete bookmark",
				logger.String("user_id", sess.UserID),
				logger.String("id", id),
				logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to delete bookmark"})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
