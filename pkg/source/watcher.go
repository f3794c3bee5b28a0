package source

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// Watcher defaults.
const (
	DefaultDebounce       = 100 * time.Millisecond
	DefaultReloadInterval = time.Second
)

// Watcher reports changes to a single file. Bursts of events are
// debounced, and reloads are rate limited so a file rewritten in a loop
// cannot saturate the engine.
type Watcher struct {
	path     string
	debounce time.Duration
	limiter  *rate.Limiter
	logger   *log.Logger
	fs       *fsnotify.Watcher
}

// NewWatcher watches path. The parent directory is watched rather than the
// file itself so that editors which replace the file on save are handled.
func NewWatcher(path string, debounce, minInterval time.Duration, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if minInterval <= 0 {
		minInterval = DefaultReloadInterval
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		logger:   logger,
		fs:       fw,
	}, nil
}

// Run calls onChange after the file settles, until ctx ends or the
// watcher is closed. onChange runs on Run's goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	debounce := time.NewTimer(0)
	<-debounce.C
	defer debounce.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			pending = true
			debounce.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)

		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
			w.logger.Debug("graph file changed", "path", w.path)
			onChange()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fs.Close() }
