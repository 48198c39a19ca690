package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/emailbuilder/internal/config"
)

func newPaths(t *testing.T) config.Paths {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Root = filepath.Join(base, "builder")
	cfg.OutputRoot = base
	p, err := config.NewPaths(cfg, "newsletter")
	require.NoError(t, err)
	return p
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestReset_RemovesDist(t *testing.T) {
	p := newPaths(t)
	touch(t, filepath.Join(p.Dist, "index.html"))
	touch(t, p.CSSFile)

	require.NoError(t, NewManager(p, config.Environments{}).Reset())
	require.NoDirExists(t, p.Dist)
}

func TestReset_MissingDistIsNotAnError(t *testing.T) {
	p := newPaths(t)
	require.NoError(t, NewManager(p, config.Environments{}).Reset())
}

func TestClean_OnlyActiveEnvironments(t *testing.T) {
	p := newPaths(t)
	for _, env := range []string{config.EnvDev, config.EnvStage, config.EnvProd} {
		touch(t, filepath.Join(p.EnvDir(env), "index"))
	}
	touch(t, filepath.Join(p.LegacyPagesDir(), "index.html"))

	require.NoError(t, NewManager(p, config.ResolveEnvironments("stage")).Clean())

	require.NoDirExists(t, p.LegacyPagesDir())
	require.NoDirExists(t, p.EnvDir(config.EnvStage))
	require.DirExists(t, p.EnvDir(config.EnvDev))
	require.DirExists(t, p.EnvDir(config.EnvProd))
}

func TestClean_AllRemovesEveryEnvironment(t *testing.T) {
	p := newPaths(t)
	for _, env := range []string{config.EnvDev, config.EnvStage, config.EnvProd} {
		touch(t, filepath.Join(p.EnvDir(env), "index"))
	}

	require.NoError(t, NewManager(p, config.ResolveEnvironments("all")).Clean())
	for _, env := range []string{config.EnvDev, config.EnvStage, config.EnvProd} {
		require.NoDirExists(t, p.EnvDir(env))
	}
}

func TestEnsureDist(t *testing.T) {
	p := newPaths(t)
	require.NoError(t, NewManager(p, config.Environments{}).EnsureDist())
	require.DirExists(t, p.DistCSS)
}
