// Package reload rebuilds the lookup tables when their source files change.
//
// A reload always rebuilds every table from scratch and swaps the result into
// a data.Live in one step; tables that are being served are never modified.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/TomasB/geolocate/internal/data"
	"github.com/TomasB/geolocate/internal/metrics"
	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long a Watcher waits for further changes before
// reloading, so that a file written in several steps is loaded once.
const DefaultDelay = 500 * time.Millisecond

// Reloader rebuilds tables from a fixed set of sources.
type Reloader struct {
	src     data.Sources
	live    *data.Live
	metrics *metrics.Metrics

	// Delay overrides DefaultDelay when positive.
	Delay time.Duration

	// notify, when set, is called after every reload attempt.
	notify func(error)
}

// New returns a Reloader storing tables built from src into live. m may be nil.
func New(src data.Sources, live *data.Live, m *metrics.Metrics) *Reloader {
	return &Reloader{src: src, live: live, metrics: m}
}

// Reload rebuilds the tables. On failure the current tables stay in place.
func (r *Reloader) Reload() error {
	t, err := data.LoadTables(r.src)
	if r.metrics != nil {
		r.metrics.ObserveReload(err)
	}
	if r.notify != nil {
		defer r.notify(err)
	}
	if err != nil {
		slog.Error("reload failed, keeping previous tables", "error", err)
		return fmt.Errorf("reload: %w", err)
	}

	r.live.Store(t)
	if r.metrics != nil {
		r.metrics.ObserveTables(t)
	}
	slog.Info("tables reloaded",
		"ipv4_blocks", t.V4.Len(),
		"ipv6_blocks", t.V6.Len(),
		"countries", t.Countries.Len(),
	)
	return nil
}

// Watcher triggers reloads on file system events.
type Watcher struct {
	r     *Reloader
	fs    *fsnotify.Watcher
	files map[string]bool
}

// Watch starts watching the directories of the source files. Directories
// rather than files are watched so that files replaced by a rename are
// still picked up.
func (r *Reloader) Watch() (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{r: r, fs: fs, files: make(map[string]bool)}
	dirs := make(map[string]bool)
	for _, path := range []string{r.src.IPv4, r.src.IPv6, r.src.Countries} {
		path = filepath.Clean(path)
		w.files[path] = true

		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run handles events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	delay := w.r.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				slog.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
				fire = time.After(delay)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			w.r.Reload()
		}
	}
}
