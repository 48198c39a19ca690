package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/emailbuilder/internal/config"
	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (optional)" default:"emailbuilder.yaml" env:"EMAILBUILDER_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging" env:"EMAILBUILDER_VERBOSE"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build a project and release it to the active environments"`
	Serve ServeCmd `cmd:"" default:"withargs" help:"Build, release, then serve dist with live reload while watching sources"`
	Send  SendCmd  `cmd:"" help:"Send a built page to test recipients via Postmark"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ProjectFlags selects the project and its release environments.
type ProjectFlags struct {
	Project     string `name:"projectname" short:"p" required:"" env:"EMAILBUILDER_PROJECT" help:"Project directory under the builder root."`
	Environment string `name:"environment" short:"e" env:"EMAILBUILDER_ENVIRONMENT" help:"Release environment: dev, stage, prod, all (or true)."`
}

// Environments resolves the environment flag and warns when nothing will be released.
func (p ProjectFlags) Environments() config.Environments {
	envs := config.ResolveEnvironments(p.Environment)
	if !envs.Any() {
		slog.Warn("No environment selected; only the shared pages folder is written",
			logfields.Environment(p.Environment))
	}
	return envs
}

// Args returns the process arguments with a bare --environment/-e rewritten
// to "--environment=true", matching the gulp flag it replaces.
func Args() []string {
	return normalizeArgs(os.Args[1:])
}

func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a != "--environment" && a != "-e" {
			out = append(out, a)
			continue
		}
		next := ""
		if i+1 < len(args) {
			next = args[i+1]
		}
		if next == "" || next[0] == '-' {
			out = append(out, "--environment=true")
			continue
		}
		out = append(out, a)
	}
	return out
}

func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}
