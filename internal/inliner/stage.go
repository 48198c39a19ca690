package inliner

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

// InlineDist inlines the compiled stylesheet into every HTML file under
// dist, rewriting them in place. It returns the number of files processed.
func (in *Inliner) InlineDist(ctx context.Context, paths config.Paths) (int, error) {
	stylesheet, err := os.ReadFile(paths.CSSFile)
	if err != nil {
		return 0, ferrors.InlineError("failed to read stylesheet").WithCause(err).
			WithContext("path", paths.CSSFile).Build()
	}

	var files []string
	err = filepath.WalkDir(paths.Dist, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path == paths.DistCSS {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".html") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, ferrors.FileSystemError("failed to list built pages").WithCause(err).
			WithContext("path", paths.Dist).Build()
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return i, ferrors.FileSystemError("failed to read page").WithCause(err).
				WithContext("path", path).Build()
		}
		out, err := in.Inline(string(stylesheet), raw)
		if err != nil {
			return i, ferrors.InlineError("failed to inline css").WithCause(err).
				WithContext("path", path).Build()
		}
		if err := os.WriteFile(path, out, 0o600); err != nil {
			return i, ferrors.FileSystemError("failed to write page").WithCause(err).
				WithContext("path", path).Build()
		}
		slog.Debug("Inlined css", logfields.Path(path))
	}
	return len(files), nil
}
