// Package store defines the bookmark persistence contract. Handlers and
// sync sessions never touch the database directly; all access goes
// through this interface, and every operation is scoped to the owning
// user.
package store

import (
	"context"

	"github.com/smartmark/smartmark/internal/domain"
)

type Store interface {
	// ListByOwner returns all of one user's bookmarks ordered by
	// created_at descending, ties by id descending.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error)

	// Insert persists a new bookmark for ownerID and returns the
	// confirmed record with the store-assigned id and created_at.
	Insert(ctx context.Context, ownerID, title, url string) (domain.Bookmark, error)

	// Delete removes the bookmark with the given id if it belongs to
	// ownerID. Deleting a row that does not exist (or is not the
	// caller's) is not an error; the end state is the same.
	Delete(ctx context.Context, ownerID, id string) error
}
