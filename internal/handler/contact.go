package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nordmark-digital/portal/internal/config"
	"github.com/nordmark-digital/portal/internal/guard"
	"github.com/nordmark-digital/portal/internal/mailer"
	"github.com/nordmark-digital/portal/internal/ratelimit"
	"github.com/nordmark-digital/portal/internal/repository"
)

// ContactHandler bundles dependencies for the public contact form.
type ContactHandler struct {
	Cfg         config.Config
	Submissions repository.ContactStore
	Mail        mailer.Mailer
	Events      EventPublisher
}

func NewContactHandler(cfg config.Config, s repository.ContactStore, m mailer.Mailer, ev EventPublisher) *ContactHandler {
	return &ContactHandler{Cfg: cfg, Submissions: s, Mail: m, Events: ev}
}

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Message string `json:"message"`
	// Website is the honeypot field; real users never see it.
	Website string `json:"website"`
	// FormLoadTime is the client-reported render time in Unix millis.
	FormLoadTime int64 `json:"formLoadTime"`
}

// Contact screens, rate-limits, and forwards a contact-form submission.
// Every attempt is recorded in the audit table, spam included, so
// repeated abuse keeps counting toward the rate limit. Rate limiting on
// this path fails open: a store outage must not take the marketing form
// down with it.
func (h *ContactHandler) Contact(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email, and message are required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	ip := c.RealIP()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	decision := guard.Screen(guard.Submission{
		Fields:   []string{req.Name, req.Email, req.Message, req.Company, req.Phone},
		Message:  req.Message,
		Honeypot: req.Website,
		LoadedAt: req.FormLoadTime,
	}, time.Now())
	if decision.Blocked {
		h.record(ctx, c, email, ip)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": blockMessage(decision.Reason)})
	}

	if rl, limited := h.checkLimit(ctx, c, email, ip); limited {
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error": fmt.Sprintf("Too many submissions. Please wait %d minutes before submitting again.", rl.WaitMinutes()),
		})
	}

	if err := h.Mail.Send(contactMail(h.Cfg, req)); err != nil {
		c.Logger().Errorf("contact: mail dispatch failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}

	h.record(ctx, c, email, ip)
	if h.Events != nil {
		_ = h.Events.ContactReceived(ctx, req.Name, email, ip)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Message sent successfully"})
}

// checkLimit applies the 3-per-hour cap on the larger of the email and
// IP submission counts. Store errors on either side log a warning and
// count as allowed.
func (h *ContactHandler) checkLimit(ctx context.Context, c echo.Context, email, ip string) (ratelimit.Result, bool) {
	results := make([]ratelimit.Result, 0, 2)

	if rl, err := ratelimit.Check(ctx, email, ratelimit.ContactSubmission, h.Submissions.CountForEmailSince); err != nil {
		c.Logger().Warnf("contact: email rate limit check failed, allowing: %v", err)
	} else {
		results = append(results, rl)
	}
	if ip != "" {
		if rl, err := ratelimit.Check(ctx, ip, ratelimit.ContactSubmission, h.Submissions.CountForIPSince); err != nil {
			c.Logger().Warnf("contact: ip rate limit check failed, allowing: %v", err)
		} else {
			results = append(results, rl)
		}
	}

	switch len(results) {
	case 0:
		return ratelimit.Result{Allowed: true}, false
	case 1:
		return results[0], !results[0].Allowed
	default:
		combined := ratelimit.Combine(results[0], results[1])
		return combined, !combined.Allowed
	}
}

// record writes the audit row. Best-effort: a failed write is logged
// and the request proceeds.
func (h *ContactHandler) record(ctx context.Context, c echo.Context, email, ip string) {
	if err := h.Submissions.Record(ctx, email, ip); err != nil {
		c.Logger().Warnf("contact: recording submission failed: %v", err)
	}
}

func blockMessage(reason string) string {
	switch reason {
	case guard.ReasonTooFast:
		return "Please take your time filling out the form"
	case guard.ReasonLinkDensity:
		return "Too many links in message"
	default:
		return "Spam detected"
	}
}

// contactMail renders the notification sent to the agency inbox, with
// Reply-To pointing at the submitter.
func contactMail(cfg config.Config, req contactReq) mailer.Message {
	var html, text strings.Builder

	fmt.Fprintf(&html, "<h2>New Contact Form Submission</h2>")
	fmt.Fprintf(&html, "<p><strong>Name:</strong> %s</p>", req.Name)
	fmt.Fprintf(&html, "<p><strong>Email:</strong> %s</p>", req.Email)
	if req.Phone != "" {
		fmt.Fprintf(&html, "<p><strong>Phone:</strong> %s</p>", req.Phone)
	}
	if req.Company != "" {
		fmt.Fprintf(&html, "<p><strong>Company:</strong> %s</p>", req.Company)
	}
	fmt.Fprintf(&html, "<p><strong>Message:</strong></p><p>%s</p>",
		strings.ReplaceAll(req.Message, "\n", "<br>"))

	fmt.Fprintf(&text, "New Contact Form Submission\n\nName: %s\nEmail: %s\n", req.Name, req.Email)
	if req.Phone != "" {
		fmt.Fprintf(&text, "Phone: %s\n", req.Phone)
	}
	if req.Company != "" {
		fmt.Fprintf(&text, "Company: %s\n", req.Company)
	}
	fmt.Fprintf(&text, "\nMessage:\n%s\n", req.Message)

	return mailer.Message{
		To:      cfg.ContactEmail,
		ReplyTo: req.Email,
		Subject: fmt.Sprintf("New Contact Form Submission from %s", req.Name),
		HTML:    html.String(),
		Text:    text.String(),
	}
}
