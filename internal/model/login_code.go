package model

import "time"

// LoginCode models a row in the `login_codes` table.  A code is a
// short-lived 6-digit credential mailed to a user.  Issuing a new code
// retires any earlier codes for the same email, so at most one valid
// code exists per address; verification still filters on used/expiry as
// defense in depth.  Rows double as the audit trail for the code-request
// and verification rate limits, so they must not be deleted inside any
// rate-limit window.
//
// Fields:
//  ID        – primary key identifier.
//  Email     – address the code was issued for (not required to match a user).
//  Code      – 6-digit numeric string.
//  ExpiresAt – issuance time + 10 minutes.
//  Used      – set exactly once on successful verification.
//  IPAddress – requester IP when known (empty when NULL).
//  CreatedAt – timestamp of creation.
type LoginCode struct {
	ID        uint64    // login_codes.id
	Email     string    // login_codes.email
	Code      string    // login_codes.code
	ExpiresAt time.Time // login_codes.expires_at
	Used      bool      // login_codes.used
	IPAddress string    // login_codes.ip_address (nullable)
	CreatedAt time.Time // login_codes.created_at
}

// CodeTTL is how long an issued login code stays valid.
const CodeTTL = 10 * time.Minute
