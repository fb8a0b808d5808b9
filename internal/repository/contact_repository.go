package repository

import (
	"context"
	"database/sql"
	"time"
)

// ContactStore is the persistence contract for the contact-form audit
// trail. Every submission attempt is recorded, spam included, so
// repeated abuse still counts toward the submission rate limit.
type ContactStore interface {
	Record(ctx context.Context, email, ip string) error
	CountForEmailSince(ctx context.Context, email string, since time.Time) (int, error)
	CountForIPSince(ctx context.Context, ip string, since time.Time) (int, error)
}

// ContactRepo implements ContactStore on MySQL.
type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

// Record writes one audit row.
func (r *ContactRepo) Record(ctx context.Context, email, ip string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO contact_submissions (email, ip_address) VALUES (?,?)",
		nullable(email), nullable(ip))
	return err
}

// CountForEmailSince counts submissions for an email inside the
// trailing rate-limit window.
func (r *ContactRepo) CountForEmailSince(ctx context.Context, email string, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contact_submissions WHERE email=? AND created_at >= ?",
		email, since).Scan(&n)
	return n, err
}

// CountForIPSince counts submissions from an IP inside the trailing
// rate-limit window.
func (r *ContactRepo) CountForIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contact_submissions WHERE ip_address=? AND created_at >= ?",
		ip, since).Scan(&n)
	return n, err
}
