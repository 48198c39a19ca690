package commands

import (
	"context"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/emailbuilder/internal/build"
	"git.home.luguber.info/inful/emailbuilder/internal/metrics"
	"git.home.luguber.info/inful/emailbuilder/internal/pipeline"
	"git.home.luguber.info/inful/emailbuilder/internal/preview"
)

// ServeCmd builds once, then serves dist and rebuilds on change.
type ServeCmd struct {
	ProjectFlags `embed:""`
	Port         int  `name:"port" env:"EMAILBUILDER_PORT" help:"Preview server port (default from config, 3000)."`
	NoLiveReload bool `name:"no-live-reload" help:"Disable LiveReload SSE and script injection."`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	builder, err := pipeline.New(cfg, s.Project, s.Environments(), pipeline.WithRecorder(recorder))
	if err != nil {
		return err
	}
	defer func() {
		_ = builder.Close()
	}()

	if _, err := builder.Build(ctx); err != nil {
		return err
	}

	return preview.Run(ctx, preview.Options{
		Paths: builder.Paths(),
		Port:  cfg.Server.Port,
		Rebuild: func(ctx context.Context, t build.Trigger) error {
			_, err := builder.Rebuild(ctx, t)
			return err
		},
		Recorder:     recorder,
		Metrics:      metrics.HTTPHandler(reg),
		NoLiveReload: s.NoLiveReload || cfg.Server.NoLiveReload,
	})
}
