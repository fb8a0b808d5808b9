package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nordmark-digital/portal/internal/repository"
	"github.com/nordmark-digital/portal/internal/session"
)

// SessionAuth returns an Echo middleware that resolves the session
// cookie against the store and injects the authenticated user into the
// request context under "user", "user_id" and "role". Requests without
// a cookie, with an unknown token, or with an expired session get a
// 401. Wrapping protected routes with this middleware is the only way
// handlers learn who is calling.
func SessionAuth(sessions repository.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := sessions.ResolveUser(ctx, cookie.Value, time.Now().UTC())
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
				}
				c.Logger().Errorf("session resolve failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred"})
			}

			c.Set("user", u)
			c.Set("user_id", u.ID)
			c.Set("role", u.Role)
			return next(c)
		}
	}
}
