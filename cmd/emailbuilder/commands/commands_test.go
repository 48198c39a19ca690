package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("emailbuilder"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	ctx, err := parser.Parse(normalizeArgs(args))
	require.NoError(t, err)
	return cli, ctx
}

func TestNormalizeArgs(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{[]string{"build", "-p", "promo", "--environment"}, []string{"build", "-p", "promo", "--environment=true"}},
		{[]string{"build", "--environment", "-p", "promo"}, []string{"build", "--environment=true", "-p", "promo"}},
		{[]string{"build", "-e", "dev", "-p", "promo"}, []string{"build", "-e", "dev", "-p", "promo"}},
		{[]string{"build", "--environment=prod"}, []string{"build", "--environment=prod"}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, normalizeArgs(tc.in))
	}
}

func TestParse_EnvFallbacks(t *testing.T) {
	t.Setenv("EMAILBUILDER_PROJECT", "promo")
	t.Setenv("EMAILBUILDER_ENVIRONMENT", "stage")

	cli, ctx := parse(t, "build")
	require.Equal(t, "build", ctx.Command())
	require.Equal(t, "promo", cli.Build.Project)
	require.Equal(t, []string{"stage"}, cli.Build.Environments().Active())
}

func TestParse_BareEnvironmentMeansAll(t *testing.T) {
	cli, _ := parse(t, "serve", "--projectname", "promo", "--environment", "--port", "4000")
	require.Equal(t, "true", cli.Serve.Environment)
	require.Equal(t, []string{"dev", "stage", "prod"}, cli.Serve.Environments().Active())
	require.Equal(t, 4000, cli.Serve.Port)
}

func writeProject(t *testing.T) (configPath, base string) {
	t.Helper()
	base = t.TempDir()
	files := map[string]string{
		"builder/layouts/default.html":   "<html><head><title>{{title}}</title><!-- <style> --></head><body>{{> body}}</body></html>",
		"builder/promo/pages/hello.html": "---\ntitle: Hello there\n---\n<p>hi</p>",
		"builder/promo/scss/app.scss":    "p { color: red; }",
	}
	for rel, content := range files {
		path := filepath.Join(base, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	configPath = filepath.Join(base, "emailbuilder.yaml")
	cfg := "root: " + filepath.Join(base, "builder") + "\n" +
		"output_root: " + base + "\n" +
		"sass:\n  binary: " + filepath.Join(base, "no-such-sass") + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))
	return configPath, base
}

func TestBuildCmd_ReleasesWithStyleWarning(t *testing.T) {
	configPath, base := writeProject(t)
	cli, ctx := parse(t, "--config", configPath, "build", "-p", "promo", "-e", "dev")

	require.NoError(t, ctx.Run(&Global{}, cli))
	require.FileExists(t, filepath.Join(base, "pages", "hello.html"))
	require.FileExists(t, filepath.Join(base, "templates", "promo", "dev", "hello"))
	require.FileExists(t, filepath.Join(base, "builder", "promo", "dist", "css", "app.css"))
}

func TestBuildCmd_InvalidProject(t *testing.T) {
	configPath, _ := writeProject(t)
	cli, ctx := parse(t, "--config", configPath, "build", "-p", "..")
	require.Error(t, ctx.Run(&Global{}, cli))
}

type recordingSender struct {
	sent []postmark.Email
}

func (r *recordingSender) SendEmail(_ context.Context, e postmark.Email) (postmark.EmailResponse, error) {
	r.sent = append(r.sent, e)
	return postmark.EmailResponse{MessageID: "abc"}, nil
}

func TestSendCmd_UsesPageTitle(t *testing.T) {
	configPath, _ := writeProject(t)
	cli, ctx := parse(t, "--config", configPath, "build", "-p", "promo")
	require.NoError(t, ctx.Run(&Global{}, cli))

	t.Setenv("POSTMARK_SERVER_TOKEN", "server-token")
	t.Setenv("MAIL_FROM", "builder@example.com")
	cli, ctx = parse(t, "--config", configPath, "send", "-p", "promo", "--page", "hello", "--to", "a@example.com,b@example.com")
	rec := &recordingSender{}
	cli.Send.sender = rec

	require.NoError(t, ctx.Run(&Global{}, cli))
	require.Len(t, rec.sent, 1)
	require.Equal(t, "Hello there", rec.sent[0].Subject)
	require.Equal(t, "a@example.com,b@example.com", rec.sent[0].To)
	require.Equal(t, "builder@example.com", rec.sent[0].From)
}

func TestSendCmd_MissingPage(t *testing.T) {
	configPath, _ := writeProject(t)
	t.Setenv("POSTMARK_SERVER_TOKEN", "server-token")
	t.Setenv("MAIL_FROM", "builder@example.com")
	cli, ctx := parse(t, "--config", configPath, "send", "-p", "promo", "--page", "nope", "--to", "a@example.com")
	cli.Send.sender = &recordingSender{}
	require.Error(t, ctx.Run(&Global{}, cli))
}
