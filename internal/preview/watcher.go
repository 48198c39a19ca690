package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/emailbuilder/internal/build"
	"git.home.luguber.info/inful/emailbuilder/internal/config"
	"git.home.luguber.info/inful/emailbuilder/internal/logfields"
)

// Classifier maps a changed path onto the trigger it requires.
type Classifier struct {
	pages     string
	templates []string
	styles    string
}

// NewClassifier builds a classifier for a project's source layout.
func NewClassifier(p config.Paths) Classifier {
	return Classifier{
		pages:     p.Pages,
		templates: []string{p.Layouts, p.Partials, p.Data},
		styles:    p.SCSS,
	}
}

// Roots lists the directories to watch.
func (c Classifier) Roots() []string {
	return append([]string{c.pages, c.styles}, c.templates...)
}

// Classify returns the trigger for path, or TriggerNone when it is not a watched source.
func (c Classifier) Classify(path string) build.Trigger {
	if shouldIgnoreEvent(path) {
		return build.TriggerNone
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case within(c.styles, path) && (ext == ".scss" || ext == ".sass"):
		return build.TriggerStyles
	case within(c.pages, path) && ext == ".html":
		return build.TriggerPages
	}
	for _, dir := range c.templates {
		if within(dir, path) && ext != "" {
			return build.TriggerTemplates
		}
	}
	return build.TriggerNone
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

// Watcher feeds filesystem events into a Queue.
type Watcher struct {
	fs         *fsnotify.Watcher
	classifier Classifier
	queue      *Queue
}

// NewWatcher watches every existing root of c recursively.
func NewWatcher(c Classifier, q *Queue) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, root := range c.Roots() {
		if st, err := os.Stat(root); err != nil || !st.IsDir() {
			continue
		}
		if err := addDirsRecursive(fw, root); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return &Watcher{fs: fw, classifier: c, queue: q}, nil
}

// Run forwards events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.fs, ev.Name)
			return
		}
	}
	t := w.classifier.Classify(ev.Name)
	if t == build.TriggerNone {
		return
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Trigger(t.String()), "op", ev.Op.String())
	w.queue.Enqueue(t)
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports hidden files and editor swap or backup files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db", base == "4913":
		return true
	}
	return false
}
