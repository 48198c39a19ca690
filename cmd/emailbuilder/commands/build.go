package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/emailbuilder/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	ProjectFlags `embed:""`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	builder, err := pipeline.New(cfg, b.Project, b.Environments())
	if err != nil {
		return err
	}
	defer func() {
		_ = builder.Close()
	}()

	_, err = builder.Build(ctx)
	return err
}
