package handler

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nordmark-digital/portal/internal/config"
	"github.com/nordmark-digital/portal/internal/mailer"
	"github.com/nordmark-digital/portal/internal/model"
	"github.com/nordmark-digital/portal/internal/ratelimit"
	"github.com/nordmark-digital/portal/internal/repository"
	"github.com/nordmark-digital/portal/internal/session"
)

// codePurgeAge is how old a login-code row must be before the
// opportunistic purge removes it. Must exceed every rate-limit window
// so derived counts never lose events.
const codePurgeAge = 24 * time.Hour

// EventPublisher emits best-effort domain events. Errors are the
// caller's to ignore; a nil publisher disables eventing.
type EventPublisher interface {
	LoginCompleted(ctx context.Context, email string, userID uint64, ip string) error
	ContactReceived(ctx context.Context, name, email, ip string) error
}

// AuthHandler bundles dependencies for the passwordless login endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    repository.UserStore
	Codes    repository.LoginCodeStore
	Sessions repository.SessionStore
	Mail     mailer.Mailer
	Events   EventPublisher
}

func NewAuthHandler(cfg config.Config, u repository.UserStore, c repository.LoginCodeStore, s repository.SessionStore, m mailer.Mailer, ev EventPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Codes: c, Sessions: s, Mail: m, Events: ev}
}

// ----- DTOs -----

type sendCodeReq struct {
	Email string `json:"email"`
}
type verifyCodeReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// SendCode issues a one-time login code. The response is the same
// generic success for known and unknown emails so the endpoint cannot
// be used to enumerate accounts.
func (h *AuthHandler) SendCode(c echo.Context) error {
	var req sendCodeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	ip := c.RealIP()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Primary limit keyed by email. This path gates account access, so
	// a store failure here fails closed.
	rl, err := ratelimit.Check(ctx, email, ratelimit.CodeRequestPerEmail, h.Codes.CountForEmailSince)
	if err != nil {
		c.Logger().Errorf("send-code: rate limit check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send code"})
	}
	if !rl.Allowed {
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error": fmt.Sprintf("Too many code requests. Please wait %d minutes before requesting another code.", rl.WaitMinutes()),
		})
	}

	// Secondary limit keyed by IP: best-effort, never blocks the
	// primary action on a store error.
	if ip != "" {
		ipRL, err := ratelimit.Check(ctx, ip, ratelimit.CodeRequestPerIP, h.Codes.CountForIPSince)
		if err != nil {
			c.Logger().Warnf("send-code: ip rate limit check failed, allowing: %v", err)
		} else if !ipRL.Allowed {
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error": fmt.Sprintf("Too many code requests from this IP. Please wait %d minutes before requesting another code.", ipRL.WaitMinutes()),
			})
		}
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Unknown address: same response shape, no mail sent.
			return c.JSON(http.StatusOK, echo.Map{"message": "Code sent successfully"})
		}
		c.Logger().Errorf("send-code: user lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send code"})
	}

	code, err := generateCode()
	if err != nil {
		c.Logger().Errorf("send-code: code generation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send code"})
	}

	now := time.Now().UTC()
	if err := h.Codes.PurgeOlderThan(ctx, now.Add(-codePurgeAge)); err != nil {
		c.Logger().Warnf("send-code: stale code purge failed: %v", err)
	}
	// Retire older codes first so the last code issued wins.
	if err := h.Codes.InvalidateForEmail(ctx, email); err != nil {
		c.Logger().Errorf("send-code: invalidating old codes failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send code"})
	}
	if err := h.Codes.Create(ctx, email, code, now.Add(model.CodeTTL), ip); err != nil {
		c.Logger().Errorf("send-code: storing code failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send code"})
	}

	if err := h.Mail.Send(loginCodeMail(u.Email, code)); err != nil {
		// The user needs this mail to proceed; surface the failure.
		c.Logger().Errorf("send-code: mail dispatch failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send code"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Code sent successfully"})
}

// VerifyCode exchanges a valid one-time code for a session cookie. All
// verification failures collapse into one generic error so callers
// cannot tell a wrong code from an expired or reused one.
func (h *AuthHandler) VerifyCode(c echo.Context) error {
	var req verifyCodeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and code are required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	code := strings.TrimSpace(req.Code)
	ip := c.RealIP()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rl, err := ratelimit.Check(ctx, email, ratelimit.VerifyPerEmail, h.Codes.CountForEmailSince)
	if err != nil {
		c.Logger().Errorf("verify-code: rate limit check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred"})
	}
	if !rl.Allowed {
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error": fmt.Sprintf("Too many verification attempts. Please wait %d minutes before trying again.", rl.WaitMinutes()),
		})
	}

	if ip != "" {
		ipRL, err := ratelimit.Check(ctx, ip, ratelimit.VerifyPerIP, h.Codes.CountForIPSince)
		if err != nil {
			c.Logger().Warnf("verify-code: ip rate limit check failed, allowing: %v", err)
		} else if !ipRL.Allowed {
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error": fmt.Sprintf("Too many verification attempts from this IP. Please wait %d minutes before trying again.", ipRL.WaitMinutes()),
			})
		}
	}

	// One conditional update enforces single use: of two concurrent
	// attempts with the same code, exactly one claims the row.
	ok, err := h.Codes.Consume(ctx, email, code, time.Now().UTC())
	if err != nil {
		c.Logger().Errorf("verify-code: consume failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred"})
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired code. Please request a new code."})
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		c.Logger().Errorf("verify-code: user lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred"})
	}

	token, err := session.NewToken()
	if err != nil {
		c.Logger().Errorf("verify-code: token generation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred"})
	}
	expiresAt := time.Now().UTC().Add(session.TTL)
	if err := h.Sessions.Create(ctx, u.ID, token, expiresAt); err != nil {
		c.Logger().Errorf("verify-code: session create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred"})
	}

	if h.Events != nil {
		_ = h.Events.LoginCompleted(ctx, u.Email, u.ID, ip)
	}

	c.SetCookie(session.Cookie(token, expiresAt, h.Cfg.IsProd()))
	return c.JSON(http.StatusOK, echo.Map{"message": "Code verified successfully"})
}

// Logout deletes the store-side session and clears the cookie. The
// cookie is cleared even when the store delete fails, so a browser is
// always logged out locally.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Sessions.DeleteByToken(ctx, cookie.Value); err != nil {
			c.Logger().Errorf("logout: session delete failed: %v", err)
		}
	}
	c.SetCookie(session.ClearCookie(h.Cfg.IsProd()))
	return c.Redirect(http.StatusSeeOther, h.Cfg.PortalURL)
}

// Me returns the authenticated user. SessionAuth middleware put it in
// the context.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := c.Get("user").(model.User)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": userPart{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role},
	})
}

// generateCode returns a uniformly random 6-digit code in
// [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// loginCodeMail renders the code-delivery mail.
func loginCodeMail(to, code string) mailer.Message {
	return mailer.Message{
		To:      to,
		Subject: "Your Client Portal Login Code",
		HTML: fmt.Sprintf(`<h2>Your Login Code</h2>
<p>Your login code for the Nordmark Digital Client Portal is:</p>
<h1 style="font-size: 36px; letter-spacing: 8px; text-align: center; margin: 30px 0;">%s</h1>
<p>This code will expire in 10 minutes.</p>
<p>If you didn't request this code, please ignore this email.</p>`, code),
		Text: fmt.Sprintf("Your login code for the Nordmark Digital Client Portal is: %s\n\nThis code will expire in 10 minutes.\n\nIf you didn't request this code, please ignore this email.", code),
	}
}
