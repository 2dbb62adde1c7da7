package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSMTPClient struct {
	from    string
	rcpts   []string
	body    bytes.Buffer
	quit    bool
	authErr error
	authed  bool
}

func (f *fakeSMTPClient) Mail(from string) error { f.from = from; return nil }
func (f *fakeSMTPClient) Rcpt(rcpt string) error { f.rcpts = append(f.rcpts, rcpt); return nil }

func (f *fakeSMTPClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.body}, nil
}

func (f *fakeSMTPClient) Quit() error  { f.quit = true; return nil }
func (f *fakeSMTPClient) Close() error { return nil }

func (f *fakeSMTPClient) StartTLS(*tls.Config) error { return nil }

func (f *fakeSMTPClient) Auth(smtp.Auth) error {
	f.authed = true
	return f.authErr
}

func (f *fakeSMTPClient) Extension(string) (bool, string) { return false, "" }

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newTestMailer(t *testing.T, cfg SMTPSettings) (*smtpMailer, *fakeSMTPClient) {
	t.Helper()

	mailer, err := NewSMTPMailer(cfg)
	require.NoError(t, err)

	m := mailer.(*smtpMailer)
	fake := &fakeSMTPClient{}
	m.dialFn = func(ctx context.Context, cfg SMTPSettings) (net.Conn, smtpClient, error) {
		server, client := net.Pipe()
		_ = client.Close()
		return server, fake, nil
	}
	return m, fake
}

func TestSendDisabledReturnsSentinel(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{
		To:      []string{"user@example.com"},
		Subject: "Hi",
	})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestNewSMTPMailerValidatesWhenEnabled(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com"})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com", Port: 587})
	require.NoError(t, err)
}

func TestSendDeliversMessage(t *testing.T) {
	m, fake := newTestMailer(t, SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "noreply@boxhub.test",
	})

	err := m.Send(context.Background(), Message{
		To:      []string{"a@example.com", "a@example.com", "b@example.com"},
		Subject: "Welcome",
		HTML:    "<p>Hello</p>",
	})
	require.NoError(t, err)

	require.Equal(t, "noreply@boxhub.test", fake.from)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, fake.rcpts, "duplicate recipients collapse")
	require.True(t, fake.quit)

	body := fake.body.String()
	require.Contains(t, body, "Subject: Welcome")
	require.Contains(t, body, "Content-Type: text/html; charset=UTF-8")
	require.Contains(t, body, "<p>Hello</p>")
}

func TestSendRejectsInvalidAddresses(t *testing.T) {
	m, _ := newTestMailer(t, SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "noreply@boxhub.test",
	})

	err := m.Send(context.Background(), Message{To: []string{"not an address"}})
	require.Error(t, err)

	err = m.Send(context.Background(), Message{To: nil})
	require.Error(t, err)
}

func TestFormatMessageEscapesHeaderNewlines(t *testing.T) {
	out := formatMessage("from@example.com", []string{"to@example.com"}, "Line1\r\nBcc: evil@example.com", "<p>hi</p>")
	require.NotContains(t, out, "\nBcc: evil@example.com")
	require.Contains(t, out, "Subject: Line1  Bcc: evil@example.com")
}
