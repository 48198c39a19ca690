package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/emailbuilder/internal/build"
	"git.home.luguber.info/inful/emailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/emailbuilder/internal/inky"
	"git.home.luguber.info/inful/emailbuilder/internal/inliner"
	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
	"git.home.luguber.info/inful/emailbuilder/internal/metrics"
	"git.home.luguber.info/inful/emailbuilder/internal/pages"
	"git.home.luguber.info/inful/emailbuilder/internal/release"
	"git.home.luguber.info/inful/emailbuilder/internal/styles"
	"git.home.luguber.info/inful/emailbuilder/internal/workspace"
)

// Builder owns the stage implementations for one project and environment set.
type Builder struct {
	cfg   *config.Config
	paths config.Paths
	envs  config.Environments

	workspace *workspace.Manager
	pages     *pages.Compiler
	styles    *styles.Builder
	inliner   *inliner.Inliner

	sass     styles.Compiler
	recorder metrics.Recorder
	stages   map[build.StageName]build.Stage
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithSassCompiler replaces the Dart Sass compiler.
func WithSassCompiler(c styles.Compiler) Option {
	return func(b *Builder) { b.sass = c }
}

// New creates a builder for project. envs is the resolved environment set.
func New(cfg *config.Config, project string, envs config.Environments, opts ...Option) (*Builder, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	paths, err := config.NewPaths(cfg, project)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		cfg:      cfg,
		paths:    paths,
		envs:     envs,
		recorder: metrics.NoopRecorder{},
	}
	for _, o := range opts {
		o(b)
	}
	if b.sass == nil {
		b.sass = styles.NewDartSass(cfg.Sass.Binary)
	}

	b.workspace = workspace.NewManager(paths, envs)
	b.pages = pages.NewCompiler(paths, cfg.Pages.DefaultLayout, inky.New())
	b.styles = styles.NewBuilder(paths, cfg.Sass.IncludePaths, b.sass)
	b.inliner = inliner.New(cfg.Inline)
	b.stages = map[build.StageName]build.Stage{
		build.StageReset:   b.stageReset,
		build.StagePages:   b.stagePages,
		build.StageStyles:  b.stageStyles,
		build.StageInline:  b.stageInline,
		build.StageClean:   b.stageClean,
		build.StageRelease: b.stageRelease,
	}
	return b, nil
}

// Paths returns the resolved project paths.
func (b *Builder) Paths() config.Paths { return b.paths }

// Build runs the full plan.
func (b *Builder) Build(ctx context.Context) (*build.Report, error) {
	return b.run(ctx, "build", FullPlan)
}

// Rebuild runs the plan for a watcher trigger.
func (b *Builder) Rebuild(ctx context.Context, t build.Trigger) (*build.Report, error) {
	if refreshes(t) {
		b.pages.Refresh()
	}
	return b.run(ctx, t.String(), PlanFor(t))
}

// Close releases the Sass compiler when it holds a process.
func (b *Builder) Close() error {
	if c, ok := b.sass.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *Builder) run(ctx context.Context, trigger string, plan []build.StageName) (*build.Report, error) {
	st := build.NewState(b.paths.Project, b.recorder)
	st.Logger = st.Logger.With(logfields.Trigger(trigger))
	st.Report.Environments = b.envs.Active()

	p := build.NewPipeline()
	for _, name := range plan {
		fn, ok := b.stages[name]
		if !ok {
			return st.Report, ferrors.InternalError("unknown stage").WithContext("stage", string(name)).Build()
		}
		p.Add(name, fn)
	}
	st.Logger.Debug("Running plan", slog.Any("stages", p.Names()))

	start := time.Now()
	err := build.RunStages(ctx, st, p.Build())
	st.Report.Finish()
	b.recorder.ObserveBuildDuration(time.Since(start))
	b.recorder.IncBuildOutcome(string(st.Report.Outcome))

	if dir := b.cfg.Report.Dir; dir != "" {
		if perr := st.Report.Persist(dir); perr != nil {
			st.Logger.Warn("Failed to persist build report", logfields.Path(dir), logfields.Error(perr))
		}
	}

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	st.Logger.Log(ctx, level, "Build finished", slog.String("summary", st.Report.Summary()))
	if err != nil {
		var se *build.StageError
		if errors.As(err, &se) && se.Err != nil {
			return st.Report, se.Err
		}
		return st.Report, err
	}
	return st.Report, nil
}

func (b *Builder) stageReset(_ context.Context, _ *build.State) error {
	if err := b.workspace.Reset(); err != nil {
		return err
	}
	return b.workspace.EnsureDist()
}

func (b *Builder) stagePages(ctx context.Context, st *build.State) error {
	written, err := b.pages.Compile(ctx)
	st.Pages = written
	st.Report.PagesBuilt = len(written)
	b.recorder.AddPagesBuilt(len(written))
	return err
}

func (b *Builder) stageStyles(ctx context.Context, _ *build.State) error {
	return b.styles.Build(ctx)
}

func (b *Builder) stageInline(ctx context.Context, st *build.State) error {
	n, err := b.inliner.InlineDist(ctx, b.paths)
	st.Logger.Debug("Inlined pages", logfields.Count(n))
	return err
}

func (b *Builder) stageClean(_ context.Context, _ *build.State) error {
	return b.workspace.Clean()
}

func (b *Builder) stageRelease(_ context.Context, st *build.State) error {
	res, err := release.Distribute(b.paths, b.envs)
	st.Report.Released = len(res.Pages)
	return err
}
