package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Host: "smtp.mailtrap.io"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(Config{Host: "smtp.mailtrap.io", User: "u", Pass: "p"})
	assert.Error(t, err)

	m, err := New(Config{Host: "smtp.mailtrap.io", User: "u", Pass: "p", From: "noreply@fitcoach.app"})
	require.NoError(t, err)
	assert.Equal(t, "2525", m.cfg.Port)
}

func TestSend(t *testing.T) {
	m, err := New(Config{Host: "smtp.mailtrap.io", Port: "587", User: "u", Pass: "p", From: "noreply@fitcoach.app"})
	require.NoError(t, err)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.Send(context.Background(), "ana@example.com", "Welcome to Premium", "<p>Thanks!</p>"))

	assert.Equal(t, "smtp.mailtrap.io:587", gotAddr)
	assert.Equal(t, "noreply@fitcoach.app", gotFrom)
	assert.Equal(t, []string{"ana@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Welcome to Premium\r\n")
	assert.Contains(t, string(gotMsg), "Content-Type: text/html; charset=UTF-8")
}

func TestSend_Errors(t *testing.T) {
	m, err := New(Config{Host: "h", User: "u", Pass: "p", From: "f@x"})
	require.NoError(t, err)
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("dial failed") }

	assert.Error(t, m.Send(context.Background(), "", "s", "b"))
	assert.Error(t, m.Send(context.Background(), "a@b", "", "b"))
	assert.ErrorContains(t, m.Send(context.Background(), "a@b", "s", "b"), "dial failed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "a@b", "s", "b"), context.Canceled)
}

func TestBuildMessage_PlainText(t *testing.T) {
	msg := string(buildMessage("f@x", "t@x", "Hi", "plain body"))
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, msg, "\r\n\r\nplain body\r\n")
}
