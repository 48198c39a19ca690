// Package mailer sends built pages to test inboxes through Postmark so a
// template can be checked in real clients before release.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/caarlos0/env/v11"
	"github.com/mrz1836/postmark"

	"git.home.luguber.info/inful/emailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
)

// Config holds Postmark credentials and the sender identity, read from the environment.
type Config struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	From         string `env:"MAIL_FROM,required"`
	Tag          string `env:"MAIL_TAG" envDefault:"emailbuilder-preview"`
}

// LoadConfig parses Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid mail configuration").Build()
	}
	return cfg, nil
}

// Sender is the subset of the Postmark client used here.
type Sender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// Mailer sends pages.
type Mailer struct {
	cfg    Config
	sender Sender
}

// New creates a Postmark-backed mailer.
func New(cfg Config) (*Mailer, error) {
	if cfg.ServerToken == "" {
		return nil, ferrors.ConfigError("POSTMARK_SERVER_TOKEN is required").Build()
	}
	if cfg.From == "" {
		return nil, ferrors.ConfigError("MAIL_FROM is required").Build()
	}
	return NewWithSender(cfg, postmark.NewClient(cfg.ServerToken, cfg.AccountToken)), nil
}

// NewWithSender creates a mailer over any Sender.
func NewWithSender(cfg Config, s Sender) *Mailer {
	return &Mailer{cfg: cfg, sender: s}
}

// Message is one page ready to send.
type Message struct {
	Page    string
	To      []string
	Subject string
}

// ResolvePage finds the built file for page: the released copy first, then dist.
func ResolvePage(paths config.Paths, page string) (string, error) {
	name := page
	if filepath.Ext(name) == "" {
		name += ".html"
	}
	if filepath.Base(name) != name {
		return "", ferrors.ValidationError("page must be a file name").WithContext("page", page).Build()
	}
	for _, dir := range []string{paths.ReleasePages, paths.Dist} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ferrors.NotFoundError("page not built").WithContext("page", page).
		WithContext("project", paths.Project).Build()
}

// Send mails the file at msg.Page. An empty subject uses the page <title>.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ferrors.ValidationError("at least one recipient is required").Build()
	}
	raw, err := os.ReadFile(msg.Page)
	if err != nil {
		return ferrors.FileSystemError("failed to read page").WithCause(err).
			WithContext("path", msg.Page).Build()
	}
	subject := msg.Subject
	if subject == "" {
		subject = Title(raw)
	}
	if subject == "" {
		subject = strings.TrimSuffix(filepath.Base(msg.Page), filepath.Ext(msg.Page))
	}

	resp, err := m.sender.SendEmail(ctx, postmark.Email{
		From:       m.cfg.From,
		To:         strings.Join(msg.To, ","),
		Subject:    subject,
		Tag:        m.cfg.Tag,
		HTMLBody:   string(raw),
		TrackOpens: false,
	})
	if err == nil && resp.ErrorCode > 0 {
		err = fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	if err != nil {
		return ferrors.MailError("failed to send email").WithCause(err).
			WithContext("page", msg.Page).Build()
	}
	slog.Info("Sent page", logfields.Page(filepath.Base(msg.Page)), slog.String("to", strings.Join(msg.To, ",")),
		slog.String("message_id", resp.MessageID))
	return nil
}

// Title returns the trimmed <title> text of an HTML document.
func Title(doc []byte) string {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(d.Find("title").First().Text())
}

// ErrNoRecipients is returned by ParseRecipients for an empty list.
var ErrNoRecipients = errors.New("no recipients")

// ParseRecipients splits comma separated addresses.
func ParseRecipients(values []string) ([]string, error) {
	var out []string
	for _, v := range values {
		for _, addr := range strings.Split(v, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				out = append(out, addr)
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoRecipients
	}
	return out, nil
}
