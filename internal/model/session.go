package model

import "time"

// Session models a row in the `sessions` table.  The token is an opaque
// random bearer secret delivered via an HTTP-only cookie.  Expired rows
// are inert rather than purged; resolution treats them as absent.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  Token     – opaque random token (unique).
//  ExpiresAt – issuance time + 2 hours, never extended.
//  CreatedAt – timestamp of creation.
type Session struct {
	ID        uint64    // sessions.id
	UserID    uint64    // sessions.user_id
	Token     string    // sessions.token
	ExpiresAt time.Time // sessions.expires_at
	CreatedAt time.Time // sessions.created_at
}
