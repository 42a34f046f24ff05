// Package inbox imports CSV files dropped into a directory into the
// tracking board.
package inbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Importer replaces a tenant's board with CSV content.
type Importer interface {
	Import(ctx context.Context, tenantID string, r io.Reader) (int, error)
}

// Watcher imports .csv files created in its directory. Imported files are
// moved to processed/, rejected ones to failed/.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	tenantID string
	importer Importer
	logger   *slog.Logger

	debounce time.Duration
	pending  map[string]time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	closed  bool
}

// New creates the inbox directories and a stopped watcher.
func New(dir, tenantID string, importer Importer, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, d := range []string{dir, filepath.Join(dir, processedDir), filepath.Join(dir, failedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("creating inbox dir: %w", err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &Watcher{
		watcher:  fw,
		dir:      dir,
		tenantID: tenantID,
		importer: importer,
		logger:   logger,
		debounce: 200 * time.Millisecond,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the directory in the background. Files already waiting in
// the inbox are imported first.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if w.closed {
		return fmt.Errorf("inbox watcher already stopped")
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.running = true

	go w.run(ctx)
	w.logger.Info("inbox watcher started", "dir", w.dir)
	return nil
}

// Stop ends the watch and waits for the event loop to exit. A stopped
// watcher cannot be restarted.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running, closed := w.running, w.closed
	w.running, w.closed = false, true
	w.mu.Unlock()

	if closed {
		return
	}
	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("closing inbox watcher", "error", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	w.sweep(ctx)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if isCSV(event.Name) && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.pending[event.Name] = time.Now()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("inbox watcher error", "error", err)
		case now := <-ticker.C:
			for path, seen := range w.pending {
				if now.Sub(seen) < w.debounce {
					continue
				}
				delete(w.pending, path)
				w.process(ctx, path)
			}
		}
	}
}

func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Error("reading inbox", "error", err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() && isCSV(e.Name()) {
			w.process(ctx, filepath.Join(w.dir, e.Name()))
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		// moved or deleted before we got to it
		w.logger.Debug("inbox file vanished", "path", path, "error", err)
		return
	}
	n, importErr := w.importer.Import(ctx, w.tenantID, f)
	f.Close()

	dest := processedDir
	if importErr != nil {
		dest = failedDir
		w.logger.Warn("inbox import failed", "path", path, "error", importErr)
	} else {
		w.logger.Info("inbox import done", "path", path, "rows", n)
	}

	if err := os.Rename(path, filepath.Join(w.dir, dest, filepath.Base(path))); err != nil {
		w.logger.Error("moving inbox file", "path", path, "error", err)
	}
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
