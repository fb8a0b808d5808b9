// Package mailer wraps the outbound SMTP transport behind a small
// interface so handlers can be tested without a mail server.
package mailer

import (
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
)

// Message is one outbound mail. HTML and Text are alternative bodies;
// either may be empty but not both.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends a message or reports why it could not.
type Mailer interface {
	Send(msg Message) error
}

// SMTP is a Mailer over a single SMTP relay using PLAIN auth. The
// net/smtp client upgrades to STARTTLS when the server offers it.
type SMTP struct {
	Host     string // relay hostname, without port
	Port     string // relay port, usually 587
	User     string
	Password string
	From     string // sender address; falls back to User when empty
}

// Send builds a multipart/alternative MIME message and submits it.
func (m *SMTP) Send(msg Message) error {
	if m.Host == "" || m.User == "" || m.Password == "" {
		return fmt.Errorf("mailer: smtp configuration missing")
	}
	from := m.From
	if from == "" {
		from = m.User
	}

	body, contentType, err := buildBody(msg)
	if err != nil {
		return fmt.Errorf("mailer: build message: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n\r\n", contentType)
	b.WriteString(body)

	addr := m.Host + ":" + m.Port
	auth := smtp.PlainAuth("", m.User, m.Password, m.Host)
	if err := smtp.SendMail(addr, auth, from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("mailer: send via %s: %w", addr, err)
	}
	return nil
}

// buildBody renders the text and HTML parts. A single-part message is
// emitted when only one body is present.
func buildBody(msg Message) (body, contentType string, err error) {
	switch {
	case msg.HTML == "" && msg.Text == "":
		return "", "", fmt.Errorf("empty message body")
	case msg.HTML == "":
		return msg.Text + "\r\n", `text/plain; charset="utf-8"`, nil
	case msg.Text == "":
		return msg.HTML + "\r\n", `text/html; charset="utf-8"`, nil
	}

	var buf strings.Builder
	w := multipart.NewWriter(&buf)
	// text/plain first so clients preferring the last part pick HTML
	for _, part := range []struct{ ctype, content string }{
		{`text/plain; charset="utf-8"`, msg.Text},
		{`text/html; charset="utf-8"`, msg.HTML},
	} {
		pw, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return "", "", err
		}
		if _, err := pw.Write([]byte(part.content)); err != nil {
			return "", "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", "", err
	}
	return buf.String(), fmt.Sprintf(`multipart/alternative; boundary="%s"`, w.Boundary()), nil
}
