package model

import "time"

// ContactSubmission is a lightweight audit row written for every
// contact-form attempt, including ones rejected as spam, so repeated
// abuse still counts toward the submission rate limit.
type ContactSubmission struct {
	ID        uint64    // contact_submissions.id
	Email     string    // contact_submissions.email (nullable)
	IPAddress string    // contact_submissions.ip_address (nullable)
	CreatedAt time.Time // contact_submissions.created_at
}
