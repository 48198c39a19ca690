package preview

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/emailbuilder/internal/build"
	"git.home.luguber.info/inful/emailbuilder/internal/config"
	"git.home.luguber.info/inful/emailbuilder/internal/metrics"
)

type countingBroadcaster struct {
	mu     sync.Mutex
	hashes []string
}

func (c *countingBroadcaster) Broadcast(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes = append(c.hashes, hash)
}

func (c *countingBroadcaster) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hashes)
}

func newPaths(t *testing.T) config.Paths {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	p, err := config.NewPaths(cfg, "promo")
	require.NoError(t, err)
	for _, dir := range []string{p.Pages, p.Layouts, p.Partials, p.SCSS, p.Dist} {
		require.NoError(t, os.MkdirAll(dir, 0o750))
	}
	return p
}

func TestQueue_CoalescesWhileRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan build.Trigger, 4)
	var mu sync.Mutex
	var runs []build.Trigger

	q := NewQueue(func(_ context.Context, tr build.Trigger) {
		mu.Lock()
		runs = append(runs, tr)
		mu.Unlock()
		started <- tr
		<-release
	})
	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(build.TriggerPages)
	require.Equal(t, build.TriggerPages, <-started)

	q.Enqueue(build.TriggerPages)
	q.Enqueue(build.TriggerTemplates)
	q.Enqueue(build.TriggerPages)
	require.Equal(t, build.TriggerTemplates, q.Pending())

	release <- struct{}{}
	require.Equal(t, build.TriggerTemplates, <-started)
	release <- struct{}{}

	require.Never(t, func() bool { return len(started) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []build.Trigger{build.TriggerPages, build.TriggerTemplates}, runs)
}

func TestQueue_IgnoresNone(t *testing.T) {
	q := NewQueue(func(context.Context, build.Trigger) {})
	q.Enqueue(build.TriggerNone)
	require.Equal(t, build.TriggerNone, q.Pending())
}

func TestReloadAfter_BroadcastsOncePerRun(t *testing.T) {
	b := &countingBroadcaster{}
	var got []build.Trigger
	fn := ReloadAfter(func(_ context.Context, tr build.Trigger) error {
		got = append(got, tr)
		return nil
	}, b, metrics.NoopRecorder{})

	fn(testContext(t), build.TriggerPages)
	require.Equal(t, []build.Trigger{build.TriggerPages}, got)
	require.Equal(t, 1, b.count())

	failing := ReloadAfter(func(context.Context, build.Trigger) error { return errors.New("boom") }, b, nil)
	failing(testContext(t), build.TriggerStyles)
	require.Equal(t, 2, b.count())
	require.True(t, strings.HasPrefix(b.hashes[1], "error-"))
}

func TestClassifier(t *testing.T) {
	p := newPaths(t)
	c := NewClassifier(p)

	require.Equal(t, build.TriggerPages, c.Classify(filepath.Join(p.Pages, "index.html")))
	require.Equal(t, build.TriggerPages, c.Classify(filepath.Join(p.Pages, "a", "b.html")))
	require.Equal(t, build.TriggerTemplates, c.Classify(filepath.Join(p.Layouts, "default.html")))
	require.Equal(t, build.TriggerTemplates, c.Classify(filepath.Join(p.Partials, "footer.hbs")))
	require.Equal(t, build.TriggerStyles, c.Classify(filepath.Join(p.SCSS, "components", "_button.scss")))
	require.Equal(t, build.TriggerNone, c.Classify(filepath.Join(p.Pages, ".index.html.swp")))
	require.Equal(t, build.TriggerNone, c.Classify(filepath.Join(p.Pages, "index.html~")))
	require.Equal(t, build.TriggerNone, c.Classify(filepath.Join(p.Dist, "index.html")))
	require.Equal(t, build.TriggerNone, c.Classify(filepath.Join(p.SCSS, "notes.txt")))
}

func TestWatcher_PageChangeEnqueuesPagesTrigger(t *testing.T) {
	p := newPaths(t)
	runs := make(chan build.Trigger, 8)
	q := NewQueue(func(_ context.Context, tr build.Trigger) { runs <- tr })

	w, err := NewWatcher(NewClassifier(p), q)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	go w.Run(ctx)
	go q.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(p.Pages, "index.html"), []byte("<p>hi</p>"), 0o600))

	select {
	case tr := <-runs:
		require.Equal(t, build.TriggerPages, tr)
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild triggered")
	}
}

func TestRouter_InjectsScriptIntoHTML(t *testing.T) {
	p := newPaths(t)
	require.NoError(t, os.WriteFile(filepath.Join(p.Dist, "index.html"), []byte("<html><body><p>x</p></body></html>"), 0o600))
	require.NoError(t, os.MkdirAll(p.DistCSS, 0o750))
	require.NoError(t, os.WriteFile(p.CSSFile, []byte("p{color:red}"), 0o600))

	srv := httptest.NewServer(NewRouter(p.Dist, NewLiveReloadHub(), metrics.HTTPHandler(nil)))
	defer srv.Close()

	body := get(t, srv.URL+"/index.html")
	require.Contains(t, body, `<script async src="/__livereload.js"></script></body>`)

	require.Equal(t, "p{color:red}", get(t, srv.URL+"/css/app.css"))
	require.Contains(t, get(t, srv.URL+LiveReloadScriptPath), "EventSource('/__livereload')")
	require.Contains(t, get(t, srv.URL+"/metrics"), "go_goroutines")
}

func TestRouter_WithoutLiveReload(t *testing.T) {
	p := newPaths(t)
	require.NoError(t, os.WriteFile(filepath.Join(p.Dist, "index.html"), []byte("<html><body></body></html>"), 0o600))

	srv := httptest.NewServer(NewRouter(p.Dist, nil, nil))
	defer srv.Close()

	require.NotContains(t, get(t, srv.URL+"/index.html"), "__livereload")
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLiveReloadHub_StreamsBroadcasts(t *testing.T) {
	hub := NewLiveReloadHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	require.Equal(t, ": connected\n", readLine(t, r))
	readLine(t, r)
	require.True(t, strings.HasPrefix(readLine(t, r), "data: "))
	readLine(t, r)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	hub.Broadcast("abc")
	require.Equal(t, "data: {\"hash\":\"abc\"}\n", readLine(t, r))

	hub.Shutdown()
	require.Equal(t, 0, hub.Clients())
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return line
}
