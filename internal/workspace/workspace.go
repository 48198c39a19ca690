package workspace

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/emailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
)

// Manager handles output directory lifecycle for one project.
type Manager struct {
	paths config.Paths
	envs  config.Environments
}

// NewManager creates a workspace manager for the given paths and active environments.
func NewManager(paths config.Paths, envs config.Environments) *Manager {
	return &Manager{paths: paths, envs: envs}
}

// Reset removes the project's dist directory. A missing directory is not an error.
func (m *Manager) Reset() error {
	return remove(m.paths.Dist)
}

// Clean removes the legacy templates/<project>/pages directory and the
// template directory of every active environment.
func (m *Manager) Clean() error {
	if err := remove(m.paths.LegacyPagesDir()); err != nil {
		return err
	}
	for _, env := range m.envs.Active() {
		if err := remove(m.paths.EnvDir(env)); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDist creates the dist and dist/css directories.
func (m *Manager) EnsureDist() error {
	for _, dir := range []string{m.paths.Dist, m.paths.DistCSS} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.FileSystemError("failed to create output directory").WithCause(err).
				WithContext("path", dir).Build()
		}
	}
	return nil
}

func remove(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return ferrors.FileSystemError("failed to remove directory").WithCause(err).
			WithContext("path", dir).Build()
	}
	slog.Debug("Removed directory", logfields.Path(dir))
	return nil
}
