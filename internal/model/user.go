package model

import "time"

// Role values stored in users.role.  There is no public self-registration:
// client accounts are provisioned by an administrator.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User represents a portal account as stored in the `users` table.
// Emails are unique, lower-cased and trimmed before they reach the
// repository layer.  Handlers define separate response types with JSON
// tags; these structs stay internal to the repositories.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Email     – unique normalized email address.
//  Name      – optional display name (empty when NULL).
//  Role      – "admin" or "client".
//  CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    // users.id
	Email     string    // users.email
	Name      string    // users.name (nullable)
	Role      string    // users.role
	CreatedAt time.Time // users.created_at
}
