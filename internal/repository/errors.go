// Package repository defines sentinel errors shared across the
// repositories so handlers can map failures onto HTTP responses without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrEmailExists is returned when a user insert collides with the unique
// email index. Handlers should translate this into an HTTP 400 response.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a targeted row does not exist, for
// example deleting a user by an unknown id. Handlers should translate
// this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")
