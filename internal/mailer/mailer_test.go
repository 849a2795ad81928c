package mailer

import (
	"context"
	"errors"
	"testing"

	"net/smtp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/audit-engine/internal/config"
	"github.com/jonesrussell/audit-engine/internal/logging"
)

func testMessage() Message {
	return Message{
		To:      "owner@example.com",
		Subject: "Your website audit AR-0120",
		Body:    "Both reports are attached.",
		Attachments: []Attachment{
			{Filename: "AR-0120-visitor.pdf", ContentType: "application/pdf", Data: []byte("%PDF fake")},
		},
	}
}

func TestSend_NotConfigured(t *testing.T) {
	m := New(config.Mail{}, logging.NewNop())
	assert.False(t, m.Configured())

	err := m.Send(context.Background(), testMessage())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSend_UsesSMTPRelay(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotRaw []byte

	m := New(config.Mail{
		Host: "smtp.example.com", Port: 587,
		Username: "mailer", Password: "secret",
		From: "audits@example.com",
	}, logging.NewNop())
	m.sendMail = func(addr string, _ smtp.Auth, from string, to []string, raw []byte) error {
		gotAddr, gotFrom, gotTo, gotRaw = addr, from, to, raw
		return nil
	}

	require.NoError(t, m.Send(context.Background(), testMessage()))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "audits@example.com", gotFrom)
	assert.Equal(t, []string{"owner@example.com"}, gotTo)

	raw := string(gotRaw)
	assert.Contains(t, raw, "Subject: Your website audit AR-0120")
	assert.Contains(t, raw, "multipart/mixed")
	assert.Contains(t, raw, `filename="AR-0120-visitor.pdf"`)
	assert.Contains(t, raw, "Content-Transfer-Encoding: base64")
	assert.Contains(t, raw, "Both reports are attached.")
}

func TestSend_RelayFailure(t *testing.T) {
	m := New(config.Mail{Host: "smtp.example.com", Port: 587, From: "a@example.com"}, logging.NewNop())
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("relay refused")
	}

	err := m.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay refused")
}

func TestSend_CancelledContext(t *testing.T) {
	m := New(config.Mail{Host: "smtp.example.com", Port: 587}, logging.NewNop())
	called := false
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, testMessage())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestBuildMIME_NoAttachments(t *testing.T) {
	raw, err := buildMIME("audits@example.com", Message{
		To: "x@example.com", Subject: "s", Body: "plain body",
	})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "plain body")
	assert.NotContains(t, string(raw), "Content-Disposition: attachment")
}
