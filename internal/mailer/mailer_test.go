package mailer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/emailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
)

type fakeSender struct {
	sent []postmark.Email
	resp postmark.EmailResponse
	err  error
}

func (f *fakeSender) SendEmail(_ context.Context, e postmark.Email) (postmark.EmailResponse, error) {
	f.sent = append(f.sent, e)
	return f.resp, f.err
}

func writePage(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "welcome.html")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSend_UsesTitleAsSubject(t *testing.T) {
	s := &fakeSender{}
	m := NewWithSender(Config{From: "builder@example.com", Tag: "preview"}, s)
	page := writePage(t, "<html><head><title> Welcome aboard </title></head><body>hi</body></html>")

	require.NoError(t, m.Send(testContext(t), Message{Page: page, To: []string{"a@example.com", "b@example.com"}}))
	require.Len(t, s.sent, 1)
	require.Equal(t, "Welcome aboard", s.sent[0].Subject)
	require.Equal(t, "a@example.com,b@example.com", s.sent[0].To)
	require.Equal(t, "builder@example.com", s.sent[0].From)
	require.Equal(t, "preview", s.sent[0].Tag)
	require.Contains(t, s.sent[0].HTMLBody, "<body>hi</body>")
}

func TestSend_FallsBackToPageName(t *testing.T) {
	s := &fakeSender{}
	m := NewWithSender(Config{From: "builder@example.com"}, s)
	require.NoError(t, m.Send(testContext(t), Message{Page: writePage(t, "<p>x</p>"), To: []string{"a@example.com"}}))
	require.Equal(t, "welcome", s.sent[0].Subject)
}

func TestSend_PostmarkErrorCode(t *testing.T) {
	s := &fakeSender{resp: postmark.EmailResponse{ErrorCode: 300, Message: "Invalid email request"}}
	m := NewWithSender(Config{From: "builder@example.com"}, s)

	err := m.Send(testContext(t), Message{Page: writePage(t, "<p>x</p>"), To: []string{"a@example.com"}})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryMail))
	require.Contains(t, err.Error(), "Invalid email request")
}

func TestSend_TransportError(t *testing.T) {
	s := &fakeSender{err: errors.New("connection refused")}
	m := NewWithSender(Config{From: "builder@example.com"}, s)
	err := m.Send(testContext(t), Message{Page: writePage(t, "<p>x</p>"), To: []string{"a@example.com"}})
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryMail))
}

func TestSend_RequiresRecipients(t *testing.T) {
	m := NewWithSender(Config{From: "builder@example.com"}, &fakeSender{})
	err := m.Send(testContext(t), Message{Page: "unused"})
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("POSTMARK_SERVER_TOKEN", "server")
	t.Setenv("MAIL_FROM", "builder@example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "server", cfg.ServerToken)
	require.Equal(t, "emailbuilder-preview", cfg.Tag)

	m, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("POSTMARK_SERVER_TOKEN", "")
	t.Setenv("MAIL_FROM", "")
	os.Unsetenv("POSTMARK_SERVER_TOKEN")
	os.Unsetenv("MAIL_FROM")

	_, err := LoadConfig()
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestResolvePage(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Root = filepath.Join(base, "builder")
	cfg.OutputRoot = base
	p, err := config.NewPaths(cfg, "promo")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(p.Dist, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(p.Dist, "welcome.html"), []byte("x"), 0o600))

	path, err := ResolvePage(p, "welcome")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(p.Dist, "welcome.html"), path)

	require.NoError(t, os.MkdirAll(p.ReleasePages, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(p.ReleasePages, "welcome.html"), []byte("x"), 0o600))
	path, err = ResolvePage(p, "welcome.html")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(p.ReleasePages, "welcome.html"), path)

	_, err = ResolvePage(p, "missing")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
	_, err = ResolvePage(p, "../etc/passwd")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestParseRecipients(t *testing.T) {
	got, err := ParseRecipients([]string{"a@example.com, b@example.com", "c@example.com"})
	require.NoError(t, err)
	require.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, got)

	_, err = ParseRecipients([]string{" , "})
	require.ErrorIs(t, err, ErrNoRecipients)
}
