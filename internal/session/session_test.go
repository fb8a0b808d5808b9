package session

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	tok, err := NewToken()
	require.NoError(t, err)
	assert.Len(t, tok, 64) // 32 bytes hex encoded

	other, err := NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}

func TestCookieAttributes(t *testing.T) {
	expires := time.Now().Add(TTL)
	c := Cookie("abc123", expires, true)

	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "abc123", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, expires, c.Expires)
	// Max-Age mirrors the session expiry
	assert.InDelta(t, TTL.Seconds(), float64(c.MaxAge), 2)
}

func TestCookieInsecureOutsideProd(t *testing.T) {
	c := Cookie("abc123", time.Now().Add(TTL), false)
	assert.False(t, c.Secure)
}

func TestClearCookie(t *testing.T) {
	c := ClearCookie(true)
	assert.Equal(t, CookieName, c.Name)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}
