package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/hbswatch/internal/filter"
)

// Handler receives coalesced template events. Calls never overlap.
type Handler interface {
	// OnChanges is called with templates that were created or modified.
	OnChanges(ctx context.Context, paths []string)

	// OnRemovals is called with templates that were deleted or renamed away.
	OnRemovals(ctx context.Context, paths []string)

	// Reload is called on SIGHUP.
	Reload(ctx context.Context)
}

// Options configures the watch behaviour.
type Options struct {
	// Root is the project directory to watch recursively.
	Root string

	// Matcher selects the template files of interest. Required.
	Matcher *filter.Matcher

	// Debounce is the quiet period before a batch is delivered.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Root:     ".",
		Debounce: 250 * time.Millisecond,
		Logger:   slog.Default(),
	}
}

// Run starts the file watcher and blocks until the context is cancelled
// or a SIGINT/SIGTERM signal is received. Events still pending at that
// point are dropped.
func Run(ctx context.Context, opts Options, h Handler) error {
	if opts.Matcher == nil {
		return fmt.Errorf("watch: matcher is required")
	}

	if opts.Root == "" {
		opts.Root = "."
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, opts.Root); err != nil {
		return fmt.Errorf("watching %s: %w", opts.Root, err)
	}

	// Trap SIGINT / SIGTERM for graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	opts.Logger.Debug("watching", slog.String("root", opts.Root), slog.Duration("debounce", opts.Debounce))

	var (
		batcher = NewBatcher()
		timer   *time.Timer
		fire    <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-sigCtx.Done():
			return nil

		case <-hup:
			h.Reload(sigCtx)

		case <-fire:
			fire = nil

			deliver(sigCtx, h, batcher.Flush())

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !record(watcher, opts, batcher, event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}

			fire = timer.C

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// deliver hands removals to h before changes.
func deliver(ctx context.Context, h Handler, batch Batch) {
	if len(batch.Removed) > 0 {
		h.OnRemovals(ctx, batch.Removed)
	}

	if len(batch.Changed) > 0 {
		h.OnChanges(ctx, batch.Changed)
	}
}

// record classifies event and adds matching templates to b. It reports
// whether anything was recorded.
func record(watcher *fsnotify.Watcher, opts Options, b *Batcher, event fsnotify.Event) bool {
	if !isRelevant(event) {
		return false
	}

	name := filepath.Clean(event.Name)

	// A new directory may already hold templates (mkdir -p, mv).
	if event.Has(fsnotify.Create) {
		if info, statErr := os.Stat(name); statErr == nil && info.IsDir() {
			if err := addRecursive(watcher, name); err != nil {
				opts.Logger.Warn("watching new directory failed", slog.String("path", name), slog.String("error", err.Error()))
			}

			files, err := filter.Walk(name)
			if err != nil {
				return false
			}

			n := b.Len()

			for _, f := range opts.Matcher.Filter(opts.Root, files) {
				b.Add(f, false)
			}

			return b.Len() > n
		}
	}

	if !opts.Matcher.Match(filter.Rel(opts.Root, name)) {
		return false
	}

	b.Add(name, event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename))

	return true
}

// addRecursive walks root and adds all directories to the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories (e.g., .git).
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}

			return watcher.Add(path)
		}

		return nil
	})
}

// isRelevant filters out events that can never concern a template.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, remove, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	// Ignore editor temporary files and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
