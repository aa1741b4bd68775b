// Package sqlite persists bookmarks in SQLite, either a local file via
// the embedded modernc driver or a remote Turso database via libsql.
// Successful mutations publish change events so live sessions converge
// without polling.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/realtime"
	"github.com/smartmark/smartmark/internal/utils"
)

type Repository struct {
	db     *sql.DB
	events realtime.Publisher

	// Injection points for tests; default to uuid.NewString and UTC now.
	newID func() string
	now   func() time.Time
}

// Open connects to the database selected by dbURL, runs migrations, and
// wires the event publisher. authToken only applies to remote libsql
// URLs and is appended as a query parameter.
func Open(dbURL, authToken string, events realtime.Publisher) (*Repository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
		if authToken != "" && !strings.Contains(dbURL, "authToken=") {
			sep := "?"
			if strings.Contains(dbURL, "?") {
				sep = "&"
			}
			dbURL += sep + "authToken=" + authToken
		}
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{
		db:     db,
		events: events,
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_owner_created
		ON bookmarks(owner_id, created_at DESC);
	`
	_, err := db.Exec(query)
	return err
}

// ListByOwner returns all bookmarks for ownerID, newest first, ties
// broken by id descending so the order is total and stable.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, title, url, created_at
		 FROM bookmarks
		 WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer utils.Close(rows)

	bookmarks := make([]domain.Bookmark, 0)
	for rows.Next() {
		var b domain.Bookmark
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Title, &b.URL, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}

	return bookmarks, nil
}

// Insert assigns id and created_at server-side and returns the confirmed
// record. The caller never chooses the id.
func (r *Repository) Insert(ctx context.Context, ownerID, title, url string) (domain.Bookmark, error) {
	b := domain.Bookmark{
		ID:        r.newID(),
		Title:     title,
		URL:       url,
		OwnerID:   ownerID,
		CreatedAt: r.now(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookmarks (id, owner_id, title, url, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Title, b.URL, b.CreatedAt)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to insert bookmark: %w", err)
	}

	if r.events != nil {
		r.events.Publish(realtime.Event{
			Kind:     realtime.KindCreated,
			OwnerID:  b.OwnerID,
			ID:       b.ID,
			Bookmark: b,
		})
	}

	return b, nil
}

// Delete removes the row if it belongs to ownerID. A missing row is not
// an error and publishes nothing.
func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return nil
	}

	if r.events != nil {
		r.events.Publish(realtime.Event{
			Kind:    realtime.KindDeleted,
			OwnerID: ownerID,
			ID:      id,
		})
	}

	return nil
}

// Ping reports database liveness, used by readiness and infra endpoints.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}
