// Package session owns the bearer-token format and the cookie that
// transports it. Tokens are opaque random strings resolved against the
// sessions table; there is nothing to parse or verify client-side.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

// CookieName is the session cookie sent to browsers.
const CookieName = "session_token"

// TTL is the fixed session lifetime. Sessions are not renewed on use.
const TTL = 2 * time.Hour

// NewToken returns a 64-character hex token from 32 bytes of
// cryptographically secure randomness. At this entropy a collision on
// the unique token column is not expected in practice; if one occurs
// the insert fails and session creation errors out.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Cookie builds the session cookie. HttpOnly and SameSite=Lax always;
// Secure only in production so local development over plain HTTP keeps
// working. Max-Age and Expires mirror the session's own expiry.
func Cookie(token string, expiresAt time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds the expired cookie that logs a browser out.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
