package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nordmark-digital/portal/internal/model"
)

// SessionStore is the persistence contract for bearer sessions.
type SessionStore interface {
	Create(ctx context.Context, userID uint64, token string, expiresAt time.Time) error
	// ResolveUser returns the owning user of a live session token.
	// Absent or expired sessions yield sql.ErrNoRows; expired rows are
	// left in place (lazy expiry).
	ResolveUser(ctx context.Context, token string, now time.Time) (model.User, error)
	DeleteByToken(ctx context.Context, token string) error
}

// SessionRepo implements SessionStore on MySQL.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row. The token column is unique; a collision
// surfaces as an insert error, which callers must treat as fatal for
// the creation attempt.
func (r *SessionRepo) Create(ctx context.Context, userID uint64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token, expires_at) VALUES (?,?,?)",
		userID, token, expiresAt)
	return err
}

// ResolveUser joins the session to its user and checks expiry in Go so
// an expired row reads the same as a missing one.
func (r *SessionRepo) ResolveUser(ctx context.Context, token string, now time.Time) (model.User, error) {
	var (
		u         model.User
		name      sql.NullString
		expiresAt time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.name, u.role, u.created_at, s.expires_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.token=? LIMIT 1`,
		token).Scan(&u.ID, &u.Email, &name, &u.Role, &u.CreatedAt, &expiresAt)
	if err != nil {
		return model.User{}, err
	}
	if now.After(expiresAt) || now.Equal(expiresAt) {
		return model.User{}, sql.ErrNoRows
	}
	u.Name = name.String
	return u, nil
}

// DeleteByToken removes every session row carrying the token. Matching
// on the token rather than a single id is deliberate: logout must not
// leave a duplicate row behind.
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE token=?", token)
	return err
}
