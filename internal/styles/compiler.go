package styles

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"

	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
)

// Compiler turns a Sass entry file into CSS.
type Compiler interface {
	Compile(ctx context.Context, entry string, includePaths []string) (string, error)
}

// DartSass drives a Dart Sass binary over the embedded protocol. The
// process is started on first use and reused until Close.
type DartSass struct {
	binary  string
	timeout time.Duration

	mu sync.Mutex
	t  *godartsass.Transpiler
}

// NewDartSass creates a compiler for binary; empty means "sass" on PATH.
func NewDartSass(binary string) *DartSass {
	if binary == "" {
		binary = "sass"
	}
	return &DartSass{binary: binary, timeout: 30 * time.Second}
}

func (d *DartSass) transpiler() (*godartsass.Transpiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t != nil && !d.t.IsShutDown() {
		return d.t, nil
	}
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: d.binary,
		Timeout:                  d.timeout,
		LogEventHandler: func(e godartsass.LogEvent) {
			slog.Warn("Sass message", slog.String("message", e.Message), slog.Int("type", int(e.Type)))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start dart sass %q: %w", d.binary, err)
	}
	d.t = t
	return t, nil
}

// Compile implements Compiler. Imports resolve against the entry's directory
// and includePaths.
func (d *DartSass) Compile(ctx context.Context, entry string, includePaths []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := os.ReadFile(entry)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(entry)
	if err != nil {
		return "", err
	}
	t, err := d.transpiler()
	if err != nil {
		return "", err
	}

	paths := append([]string{filepath.Dir(abs)}, includePaths...)
	syntax := godartsass.SourceSyntaxSCSS
	if filepath.Ext(entry) == ".sass" {
		syntax = godartsass.SourceSyntaxSASS
	}
	start := time.Now()
	res, err := t.Execute(godartsass.Args{
		Source:       string(src),
		URL:          (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		IncludePaths: paths,
		OutputStyle:  godartsass.OutputStyleExpanded,
		SourceSyntax: syntax,
	})
	if err != nil {
		return "", err
	}
	slog.Debug("Sass compiled", logfields.Path(entry), logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return res.CSS, nil
}

// Close stops the Dart Sass process.
func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t == nil {
		return nil
	}
	err := d.t.Close()
	d.t = nil
	return err
}
