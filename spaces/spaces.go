// Package spaces stores named result snapshots. An invocation's output can
// be saved into a user's space, re-read later, and shared with specific
// users or everyone.
package spaces

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/vandanapadala-pg/hotcommands/errors"
)

// ContentType tags how a space's content should be rendered.
type ContentType string

const (
	ContentJSON ContentType = "json"
	ContentText ContentType = "text"
)

// Space is one named saved result owned by a user.
type Space struct {
	ID          int64       `json:"id"`
	UserID      string      `json:"user_id"`
	Name        string      `json:"space_name"`
	Content     string      `json:"content"`
	ContentType ContentType `json:"content_type"`
	Shared      bool        `json:"is_shared"`
	SharedWith  []string    `json:"shared_with,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ErrSpaceNotFound is returned for absent or invisible spaces.
var ErrSpaceNotFound = errors.Wrap(errors.ErrNotFound, "space not found")

// Store persists spaces.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const spaceColumns = "id, user_id, space_name, content, content_type, is_shared, shared_with, created_at, updated_at"

// Save upserts a space by (user, name). Saving over an existing name
// replaces its content and bumps updated_at, keeping sharing settings.
func (s *Store) Save(ctx context.Context, userID, name, content string, contentType ContentType) (*Space, error) {
	if name == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "space name is empty")
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spaces (user_id, space_name, content, content_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, space_name)
		DO UPDATE SET content = excluded.content, content_type = excluded.content_type, updated_at = excluded.updated_at`,
		userID, name, content, string(contentType), now, now,
	)
	if err != nil {
		return nil, errors.Wrap(err, "save space")
	}
	return s.get(ctx, userID, name)
}

// Get returns a space visible to caller: their own, one shared with them by
// name, or one shared with everyone.
func (s *Store) Get(ctx context.Context, caller, owner, name string) (*Space, error) {
	space, err := s.get(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	if caller != owner && !visibleTo(space, caller) {
		return nil, errors.Wrapf(ErrSpaceNotFound, "%s/%s", owner, name)
	}
	return space, nil
}

// List returns the caller's spaces, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]*Space, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+spaceColumns+" FROM spaces WHERE user_id = ? ORDER BY updated_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list spaces")
	}
	defer rows.Close()

	var out []*Space
	for rows.Next() {
		space, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, space)
	}
	return out, rows.Err()
}

// Share marks a space shared. An empty users list shares with everyone;
// otherwise only the named users may read it.
func (s *Store) Share(ctx context.Context, userID, name string, users []string) error {
	sharedWith := ""
	if len(users) > 0 {
		raw, err := json.Marshal(users)
		if err != nil {
			return errors.Wrap(err, "marshal shared users")
		}
		sharedWith = string(raw)
	}
	return s.exec(ctx, userID, name, `
		UPDATE spaces SET is_shared = 1, shared_with = ?, updated_at = ?
		WHERE user_id = ? AND space_name = ?`,
		sharedWith, time.Now().UTC(), userID, name)
}

// Unshare makes a space private again.
func (s *Store) Unshare(ctx context.Context, userID, name string) error {
	return s.exec(ctx, userID, name, `
		UPDATE spaces SET is_shared = 0, shared_with = '', updated_at = ?
		WHERE user_id = ? AND space_name = ?`,
		time.Now().UTC(), userID, name)
}

// Delete removes a space.
func (s *Store) Delete(ctx context.Context, userID, name string) error {
	return s.exec(ctx, userID, name,
		"DELETE FROM spaces WHERE user_id = ? AND space_name = ?", userID, name)
}

func (s *Store) exec(ctx context.Context, userID, name, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "update space")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrapf(ErrSpaceNotFound, "%s/%s", userID, name)
	}
	return nil
}

func (s *Store) get(ctx context.Context, userID, name string) (*Space, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+spaceColumns+" FROM spaces WHERE user_id = ? AND space_name = ?",
		userID, name,
	)
	space, err := scanSpace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrSpaceNotFound, "%s/%s", userID, name)
	}
	return space, err
}

func visibleTo(space *Space, caller string) bool {
	if !space.Shared {
		return false
	}
	if len(space.SharedWith) == 0 {
		return true
	}
	for _, user := range space.SharedWith {
		if user == caller {
			return true
		}
	}
	return false
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSpace(row rowScanner) (*Space, error) {
	var space Space
	var contentType, sharedWith string
	if err := row.Scan(
		&space.ID, &space.UserID, &space.Name, &space.Content, &contentType,
		&space.Shared, &sharedWith, &space.CreatedAt, &space.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan space")
	}
	space.ContentType = ContentType(contentType)
	if sharedWith != "" {
		if err := json.Unmarshal([]byte(sharedWith), &space.SharedWith); err != nil {
			return nil, errors.Wrap(err, "unmarshal shared users")
		}
	}
	return &space, nil
}
