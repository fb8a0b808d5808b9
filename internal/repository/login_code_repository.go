package repository

import (
	"context"
	"database/sql"
	"time"
)

// LoginCodeStore is the persistence contract for one-time login codes.
// Rows also serve as the audit trail behind the code-request and
// verification rate limits, hence the time-window count methods.
type LoginCodeStore interface {
	Create(ctx context.Context, email, code string, expiresAt time.Time, ip string) error
	InvalidateForEmail(ctx context.Context, email string) error
	// Consume atomically marks the newest matching unused, unexpired code
	// as used and reports whether a row was claimed. Concurrent calls for
	// the same code cannot both succeed.
	Consume(ctx context.Context, email, code string, now time.Time) (bool, error)
	CountForEmailSince(ctx context.Context, email string, since time.Time) (int, error)
	CountForIPSince(ctx context.Context, ip string, since time.Time) (int, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) error
}

// LoginCodeRepo implements LoginCodeStore on MySQL.
type LoginCodeRepo struct{ DB *sql.DB }

func NewLoginCodeRepo(db *sql.DB) *LoginCodeRepo { return &LoginCodeRepo{DB: db} }

// Create inserts a fresh code row.
func (r *LoginCodeRepo) Create(ctx context.Context, email, code string, expiresAt time.Time, ip string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO login_codes (email, code, expires_at, ip_address) VALUES (?,?,?,?)",
		email, code, expiresAt, nullable(ip))
	return err
}

// InvalidateForEmail retires all outstanding codes for an email before
// a new one is issued, so the last code issued wins. The rows are
// marked used rather than deleted: they are also the audit trail the
// code-request rate limit counts, and a physical delete would reset
// that count. PurgeOlderThan handles the eventual cleanup.
func (r *LoginCodeRepo) InvalidateForEmail(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE login_codes SET used=1 WHERE email=? AND used=0", email)
	return err
}

// Consume is a single conditional update rather than a read-then-write:
// the `used=0` guard makes single-use enforcement atomic under
// concurrent verification attempts.
func (r *LoginCodeRepo) Consume(ctx context.Context, email, code string, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE login_codes SET used=1 WHERE email=? AND code=? AND used=0 AND expires_at > ? ORDER BY created_at DESC LIMIT 1",
		email, code, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountForEmailSince counts code rows issued for an email inside the
// trailing rate-limit window.
func (r *LoginCodeRepo) CountForEmailSince(ctx context.Context, email string, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM login_codes WHERE email=? AND created_at >= ?",
		email, since).Scan(&n)
	return n, err
}

// CountForIPSince counts code rows originating from an IP inside the
// trailing rate-limit window.
func (r *LoginCodeRepo) CountForIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM login_codes WHERE ip_address=? AND created_at >= ?",
		ip, since).Scan(&n)
	return n, err
}

// PurgeOlderThan removes stale code rows. The cutoff must lie outside
// every rate-limit window so derived counts are unaffected.
func (r *LoginCodeRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM login_codes WHERE created_at < ?", cutoff)
	return err
}
