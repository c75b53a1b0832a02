package report

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher re-runs a render whenever files below a directory change or
// Trigger is called. Triggers that arrive while a render is running
// collapse into a single follow-up render.
type Watcher struct {
	dir      string
	render   func(ctx context.Context) error
	logger   *slog.Logger
	debounce time.Duration
	pending  chan struct{}
}

func NewWatcher(dir string, render func(ctx context.Context) error, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		render:   render,
		logger:   logger,
		debounce: defaultDebounce,
		pending:  make(chan struct{}, 1),
	}
}

// Trigger requests a render without blocking.
func (w *Watcher) Trigger() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

// Run renders once, then on every change until ctx is cancelled. Render
// errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.dir); err != nil {
		return err
	}

	w.Trigger()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.watchLoop(gctx, fsw) })
	g.Go(func() error { return w.renderLoop(gctx) })

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Has(fsnotify.Create) {
				if err := w.addTree(fsw, event.Name); err != nil {
					w.logger.Debug("not watching new path", slog.String("path", event.Name), slog.Any("error", err))
				}
			}
			w.logger.Debug("change detected", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			w.Trigger()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) renderLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.pending:
		}

		timer := time.NewTimer(w.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		// events that landed during the debounce are covered by this render
		select {
		case <-w.pending:
		default:
		}

		start := time.Now()
		if err := w.safeRender(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("render failed", slog.Any("error", err))
			continue
		}
		w.logger.Info("render finished", slog.Duration("took", time.Since(start)))
	}
}

// safeRender reports a panicking render as an error.
func (w *Watcher) safeRender(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panicked: %v", r)
		}
	}()
	return w.render(ctx)
}
