// Package release distributes built pages to the shared pages folder and to
// the extension-stripped template directory of each active environment.
package release

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/emailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
)

// Result lists what a distribution wrote.
type Result struct {
	Pages        []string
	Environments []string
}

// Distribute copies every top-level dist/*.html file into paths.ReleasePages
// and, for each active environment, into paths.EnvDir(env) without the
// extension. Content is copied byte for byte.
func Distribute(paths config.Paths, envs config.Environments) (Result, error) {
	entries, err := os.ReadDir(paths.Dist)
	if err != nil {
		return Result{}, ferrors.ReleaseError("failed to read dist").WithCause(err).
			WithContext("path", paths.Dist).Build()
	}

	res := Result{Environments: envs.Active()}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			continue
		}
		src := filepath.Join(paths.Dist, e.Name())
		if err := copyFile(src, filepath.Join(paths.ReleasePages, e.Name())); err != nil {
			return res, err
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		for _, env := range res.Environments {
			if err := copyFile(src, filepath.Join(paths.EnvDir(env), stem)); err != nil {
				return res, err
			}
		}
		res.Pages = append(res.Pages, e.Name())
	}
	slog.Info("Released pages", logfields.Project(paths.Project), logfields.Count(len(res.Pages)),
		logfields.Environment(envs.String()))
	return res, nil
}

func copyFile(src, dst string) error {
	wrap := func(err error, msg string) error {
		return ferrors.ReleaseError(msg).WithCause(err).
			WithContextMap(ferrors.ErrorContext{"source": src, "destination": dst}).Build()
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return wrap(err, "failed to create release directory")
	}
	in, err := os.Open(src)
	if err != nil {
		return wrap(err, "failed to open page")
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return wrap(err, "failed to create release file")
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return wrap(err, "failed to copy page")
	}
	if err := out.Close(); err != nil {
		return wrap(err, "failed to close release file")
	}
	return nil
}
