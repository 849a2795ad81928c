// Package mailer delivers finished audit reports by email.
//
// The SMTP implementation is stdlib net/smtp with hand-built MIME: report
// delivery needs exactly one message shape (text body plus PDF attachments),
// which does not justify a mail dependency.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"github.com/jonesrussell/audit-engine/internal/config"
	"github.com/jonesrussell/audit-engine/internal/logging"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("mailer not configured")

// Attachment is one file attached to an outbound message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound email.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer sends messages. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.Mail
	log logging.Logger

	// sendMail is swappable for tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates an SMTP mailer.
func New(cfg config.Mail, log logging.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log, sendMail: smtp.SendMail}
}

// Configured reports whether an SMTP host is set.
func (m *SMTPMailer) Configured() bool {
	return m.cfg.Host != ""
}

// Send delivers one message. ctx is honored up to the SMTP dial; net/smtp
// does not support mid-transaction cancellation.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.cfg.Host == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := buildMIME(m.cfg.From, msg)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.sendMail(addr, auth, m.cfg.From, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	m.log.Info("mail sent",
		"to", msg.To, "subject", msg.Subject, "attachments", len(msg.Attachments))
	return nil
}

// buildMIME assembles a multipart/mixed message with a plain-text body and
// base64 attachments.
func buildMIME(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/plain; charset=utf-8")
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, fmt.Errorf("create body part: %w", err)
	}
	if _, err := bodyPart.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("write body: %w", err)
	}

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create attachment part %s: %w", att.Filename, err)
		}

		encoded := base64.StdEncoding.EncodeToString(att.Data)
		// 76-char lines per RFC 2045.
		for len(encoded) > 0 {
			n := min(76, len(encoded))
			if _, err := part.Write([]byte(encoded[:n] + "\r\n")); err != nil {
				return nil, fmt.Errorf("write attachment %s: %w", att.Filename, err)
			}
			encoded = encoded[n:]
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}
