package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/emailbuilder/internal/build"
	"git.home.luguber.info/inful/emailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
	"git.home.luguber.info/inful/emailbuilder/internal/metrics"
)

// Broadcaster notifies browsers that the output changed.
type Broadcaster interface {
	Broadcast(hash string)
}

// Options configures Run.
type Options struct {
	Paths config.Paths
	Port  int
	// Rebuild runs the stages for a trigger. Its error is logged and the
	// reload is still sent so the browser shows the latest output.
	Rebuild      func(ctx context.Context, t build.Trigger) error
	Recorder     metrics.Recorder
	Metrics      http.Handler
	NoLiveReload bool
	// Listener overrides Port when set.
	Listener net.Listener
}

var reloadSeq atomic.Uint64

// ReloadAfter wraps rebuild so every completed run sends exactly one
// broadcast. A nil broadcaster only records the metric.
func ReloadAfter(rebuild func(context.Context, build.Trigger) error, b Broadcaster, rec metrics.Recorder) RebuildFunc {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return func(ctx context.Context, t build.Trigger) {
		slog.Info("Change detected; rebuilding", logfields.Trigger(t.String()))
		hash := strconv.FormatUint(reloadSeq.Add(1), 10) + "-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		if err := rebuild(ctx, t); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("Rebuild failed", logfields.Trigger(t.String()), logfields.Error(err))
			hash = "error-" + hash
		}
		if b != nil {
			b.Broadcast(hash)
		}
		rec.IncReload(t.String())
	}
}

// Run serves dist and rebuilds on change until ctx is canceled.
func Run(ctx context.Context, opts Options) error {
	var hub *LiveReloadHub
	var b Broadcaster
	if !opts.NoLiveReload {
		hub = NewLiveReloadHub()
		b = hub
	}

	ln := opts.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(opts.Port)))
		if err != nil {
			return ferrors.ServerError("failed to listen").WithCause(err).
				WithContext("port", opts.Port).Build()
		}
	}

	srv := &http.Server{
		Handler:           NewRouter(opts.Paths.Dist, hub, opts.Metrics),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	url := "http://" + ln.Addr().String()
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		url = fmt.Sprintf("http://localhost:%d", tcp.Port)
	}
	slog.Info("Preview server listening", logfields.Project(opts.Paths.Project), logfields.URL(url))

	queue := NewQueue(ReloadAfter(opts.Rebuild, b, opts.Recorder))
	watcher, err := NewWatcher(NewClassifier(opts.Paths), queue)
	if err != nil {
		_ = srv.Close()
		return ferrors.ServerError("failed to start watcher").WithCause(err).Build()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go queue.Run(runCtx)
	go watcher.Run(runCtx)

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok && err != nil {
			cancel()
			_ = watcher.Close()
			return ferrors.ServerError("preview server failed").WithCause(err).Build()
		}
	}
	return shutdown(srv, hub, watcher)
}

func shutdown(srv *http.Server, hub *LiveReloadHub, w *Watcher) error {
	slog.Info("Shutting down preview server...")
	if hub != nil {
		hub.Shutdown()
	}
	if err := w.Close(); err != nil {
		slog.Warn("watcher close error", logfields.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}
