package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/emailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/emailbuilder/internal/mailer"
)

// SendCmd mails one built page to test recipients.
type SendCmd struct {
	Project string   `name:"projectname" short:"p" required:"" env:"EMAILBUILDER_PROJECT" help:"Project directory under the builder root."`
	Page    string   `name:"page" required:"" help:"Page to send, e.g. welcome or welcome.html."`
	To      []string `name:"to" required:"" env:"MAIL_TO" help:"Recipient addresses (repeat or comma separate)."`
	Subject string   `name:"subject" help:"Subject line; defaults to the page <title>."`

	sender mailer.Sender
}

func (s *SendCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	paths, err := config.NewPaths(cfg, s.Project)
	if err != nil {
		return err
	}
	to, err := mailer.ParseRecipients(s.To)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid --to").Build()
	}
	page, err := mailer.ResolvePage(paths, s.Page)
	if err != nil {
		return err
	}

	mcfg, err := mailer.LoadConfig()
	if err != nil {
		return err
	}
	var m *mailer.Mailer
	if s.sender != nil {
		m = mailer.NewWithSender(mcfg, s.sender)
	} else if m, err = mailer.New(mcfg); err != nil {
		return err
	}
	return m.Send(ctx, mailer.Message{Page: page, To: to, Subject: s.Subject})
}
