package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/hbswatch/internal/config"
	"github.com/hupe1980/hbswatch/internal/logging"
	"github.com/hupe1980/hbswatch/internal/runner"
	"github.com/hupe1980/hbswatch/internal/watch"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch templates and precompile them on change",
		Long: `Watch monitors the project directory for template changes and
compiles each changed template into <output-folder>/<name>.js. Deleting
or renaming a template deletes its artifact.

Changes are batched over the --debounce window. Unless --run-at-start=false
every template is compiled once when watching begins. Send SIGHUP to
recompile everything; SIGINT or SIGTERM stops the watcher.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd)
		},
	}

	registerRunnerFlags(cmd)

	// Watch-specific flags.
	f := cmd.Flags()
	f.Bool("run-at-start", true, "compile every template when watching begins")
	f.Duration("debounce", config.DefaultDebounce, "quiet period used to batch file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command) error {
	cfg := config.FromContext(ctx)

	r, matcher, err := newRunner(ctx)
	if err != nil {
		return err
	}

	h := &watchHandler{runner: r, out: cmd.ErrOrStderr(), quiet: cfg.Quiet}

	res, err := r.Start(ctx)
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("starting: %w", err)}
	}

	if cfg.RunAtStart {
		h.status("(initial)", res, nil)
	}

	defer r.Stop(ctx)

	watchOpts := watch.Options{
		Root:     cfg.Dir,
		Matcher:  matcher,
		Debounce: cfg.Debounce,
		Logger:   logging.FromContext(ctx),
	}

	return watch.Run(ctx, watchOpts, h)
}

// watchHandler feeds watch batches to the runner and prints one status
// line per batch.
type watchHandler struct {
	runner *runner.Runner
	out    io.Writer
	quiet  bool
}

func (h *watchHandler) OnChanges(ctx context.Context, paths []string) {
	h.status(trigger(paths, "changed"), h.runner.OnChanges(ctx, paths), nil)
}

func (h *watchHandler) OnRemovals(ctx context.Context, paths []string) {
	h.status(trigger(paths, "removed"), h.runner.OnRemovals(ctx, paths), nil)
}

func (h *watchHandler) Reload(ctx context.Context) {
	res, err := h.runner.Reload(ctx)
	h.status("(reload)", res, err)
}

// status prints the outcome of one batch.
func (h *watchHandler) status(trigger string, res runner.BatchResult, err error) {
	if h.quiet {
		return
	}

	now := time.Now().Format("15:04:05")

	switch {
	case err != nil:
		_, _ = fmt.Fprintf(h.out, "[%s] %s → ERROR: %v\n", now, trigger, err)
	case res.Failed > 0:
		_, _ = fmt.Fprintf(h.out, "[%s] %s → FAILED (%d compiled, %d failed, %d removed)\n",
			now, trigger, res.Compiled, res.Failed, res.Removed)
	default:
		_, _ = fmt.Fprintf(h.out, "[%s] %s → OK (%d compiled, %d removed)\n",
			now, trigger, res.Compiled, res.Removed)
	}
}

// trigger names a batch by its only path, or by its size.
func trigger(paths []string, verb string) string {
	if len(paths) == 1 {
		return paths[0]
	}

	return fmt.Sprintf("%d templates %s", len(paths), verb)
}
