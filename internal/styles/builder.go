package styles

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/emailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
)

// Builder runs the style stage for one project: compile, prune, write.
type Builder struct {
	paths        config.Paths
	includePaths []string
	compiler     Compiler
}

// NewBuilder creates a style builder.
func NewBuilder(paths config.Paths, includePaths []string, compiler Compiler) *Builder {
	return &Builder{paths: paths, includePaths: includePaths, compiler: compiler}
}

// Build writes the pruned stylesheet to dist/css. Compilation and pruning
// failures return a warning-severity StyleError after writing whatever CSS
// is available; only filesystem failures are fatal.
func (b *Builder) Build(ctx context.Context) error {
	if err := os.MkdirAll(b.paths.DistCSS, 0o750); err != nil {
		return ferrors.FileSystemError("failed to create css directory").WithCause(err).
			WithContext("path", b.paths.DistCSS).Build()
	}

	compiled, err := b.compiler.Compile(ctx, b.paths.SCSSEntry, b.includePaths)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("Sass compilation failed", logfields.Path(b.paths.SCSSEntry), logfields.Error(err))
		if werr := b.write(""); werr != nil {
			return werr
		}
		return ferrors.StyleError("sass compilation failed").WithCause(err).
			WithSeverity(ferrors.SeverityWarning).
			WithContext("path", b.paths.SCSSEntry).Build()
	}

	docs, err := b.readDist()
	if err != nil {
		return err
	}
	pruner, err := NewPruner(docs...)
	if err == nil {
		var pruned string
		if pruned, err = pruner.Prune(compiled); err == nil {
			slog.Debug("Pruned unused CSS", logfields.Count(len(docs)),
				slog.Int("bytes_before", len(compiled)), slog.Int("bytes_after", len(pruned)))
			return b.write(pruned)
		}
	}

	slog.Warn("CSS pruning failed, keeping full stylesheet", logfields.Error(err))
	if werr := b.write(compiled); werr != nil {
		return werr
	}
	return ferrors.StyleError("css pruning failed").WithCause(err).
		WithSeverity(ferrors.SeverityWarning).Build()
}

func (b *Builder) write(css string) error {
	if err := os.WriteFile(b.paths.CSSFile, []byte(css), 0o600); err != nil {
		return ferrors.FileSystemError("failed to write stylesheet").WithCause(err).
			WithContext("path", b.paths.CSSFile).Build()
	}
	return nil
}

// readDist returns every built HTML document, in lexical path order.
func (b *Builder) readDist() ([]string, error) {
	var docs []string
	err := filepath.WalkDir(b.paths.Dist, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, string(raw))
		return nil
	})
	if err != nil {
		return nil, ferrors.FileSystemError("failed to read built pages").WithCause(err).
			WithContext("path", b.paths.Dist).Build()
	}
	return docs, nil
}
