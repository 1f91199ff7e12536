// Package runner maps watch batches onto compiler invocations: changed
// templates are compiled to <output>/<basename>.js, removed templates have
// that artifact deleted. Batches run sequentially on the caller's goroutine
// and a failing template never stops the rest of its batch.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/sourcegraph/conc/panics"

	"github.com/hupe1980/hbswatch/internal/compiler"
	"github.com/hupe1980/hbswatch/internal/filter"
	"github.com/hupe1980/hbswatch/internal/logging"
	"github.com/hupe1980/hbswatch/internal/output"
)

// ArtifactExt is appended to the template file name to form the artifact name.
const ArtifactExt = ".js"

// Options configures a Runner.
type Options struct {
	// Root is the project directory enumerated by RunAll.
	Root string

	// OutputFolder receives every artifact. Empty writes each artifact
	// next to its template.
	OutputFolder string

	// RegisterPartials compiles templates as partials.
	RegisterPartials bool

	// RunAtStart runs RunAll from Start.
	RunAtStart bool

	// Quiet drops every compile/delete message, failures included.
	Quiet bool

	// Extension is stripped from file names to derive template names.
	Extension string

	// Matcher selects templates during RunAll. Defaults to
	// filter.DefaultPatterns semantics when nil.
	Matcher *filter.Matcher

	// Rules holds per-template overrides. May be nil.
	Rules *filter.Rules

	// Logger receives progress messages.
	Logger *slog.Logger
}

// DefaultOptions mirrors the plugin defaults: artifacts next to their
// templates, no partials, full compile at start, not quiet.
func DefaultOptions() Options {
	return Options{
		Root:       ".",
		RunAtStart: true,
		Extension:  ".handlebars",
		Logger:     slog.Default(),
	}
}

// BatchResult tallies one batch.
type BatchResult struct {
	Compiled int
	Failed   int
	Removed  int
	Failures []string
}

// Add merges other into r.
func (r *BatchResult) Add(other BatchResult) {
	r.Compiled += other.Compiled
	r.Failed += other.Failed
	r.Removed += other.Removed
	r.Failures = append(r.Failures, other.Failures...)
}

// Runner drives a Compiler from watch batches.
type Runner struct {
	opts     Options
	compiler compiler.Compiler
	matcher  *filter.Matcher
	logger   *slog.Logger
}

// New creates a Runner around c.
func New(c compiler.Compiler, opts Options) (*Runner, error) {
	if c == nil {
		return nil, fmt.Errorf("compiler must not be nil")
	}

	if opts.Root == "" {
		opts.Root = "."
	}

	matcher := opts.Matcher
	if matcher == nil {
		m, err := filter.NewMatcher([]string{"*.handlebars", "**/*.handlebars"})
		if err != nil {
			return nil, err
		}

		matcher = m
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Quiet {
		logger = logging.Discard()
	}

	return &Runner{
		opts:     opts,
		compiler: c,
		matcher:  matcher,
		logger:   logging.Component(logger, "runner"),
	}, nil
}

// Options returns the runner configuration.
func (r *Runner) Options() Options {
	return r.opts
}

// Start creates the output folder when one is configured and, with
// RunAtStart, compiles every template.
func (r *Runner) Start(ctx context.Context) (BatchResult, error) {
	if err := r.EnsureOutput(); err != nil {
		return BatchResult{}, err
	}

	r.logger.Info("started watching templates",
		slog.String("root", r.opts.Root),
		slog.String("output_folder", r.describeOutput()),
	)

	if !r.opts.RunAtStart {
		return BatchResult{}, nil
	}

	return r.RunAll(ctx)
}

// EnsureOutput creates the configured output folder if it is missing.
func (r *Runner) EnsureOutput() error {
	if r.opts.OutputFolder == "" {
		return nil
	}

	return output.EnsureDir(r.opts.OutputFolder)
}

// Stop is called once the watch loop ends.
func (r *Runner) Stop(_ context.Context) {
	r.logger.Info("stopped watching templates")
}

// Reload recompiles every template.
func (r *Runner) Reload(ctx context.Context) (BatchResult, error) {
	r.logger.Info("reloading")
	return r.RunAll(ctx)
}

// Sources lists the templates below Root that match the watch patterns.
func (r *Runner) Sources() ([]string, error) {
	files, err := filter.Select(r.opts.Root, r.matcher)
	if err != nil {
		return nil, fmt.Errorf("listing templates in %s: %w", r.opts.Root, err)
	}

	return files, nil
}

// RunAll treats every template below Root as changed.
func (r *Runner) RunAll(ctx context.Context) (BatchResult, error) {
	paths, err := r.Sources()
	if err != nil {
		return BatchResult{}, err
	}

	return r.OnChanges(ctx, paths), nil
}

// OnChanges compiles each path into its target directory.
func (r *Runner) OnChanges(ctx context.Context, paths []string) BatchResult {
	var res BatchResult

	for _, p := range paths {
		if r.CompileOne(ctx, p, r.TargetDir(p)) {
			res.Compiled++
			continue
		}

		res.Failed++
		res.Failures = append(res.Failures, p)
	}

	return res
}

// OnRemovals deletes the artifact of each removed template. Missing
// artifacts are skipped silently.
func (r *Runner) OnRemovals(_ context.Context, paths []string) BatchResult {
	var res BatchResult

	for _, p := range paths {
		dst := r.OutputPath(p)

		removed, err := output.Remove(dst)
		if err != nil {
			r.logger.Error("deleting artifact failed", slog.String("path", dst), slog.String("error", err.Error()))
			res.Failed++
			res.Failures = append(res.Failures, p)

			continue
		}

		if removed {
			res.Removed++
			r.logger.Info("deleted artifact",
				slog.String("artifact", filepath.Base(dst)),
				slog.String("output_folder", filepath.Dir(dst)),
			)
		}
	}

	return res
}

// Clean deletes the artifact of every template below Root.
func (r *Runner) Clean(ctx context.Context) (BatchResult, error) {
	paths, err := r.Sources()
	if err != nil {
		return BatchResult{}, err
	}

	return r.OnRemovals(ctx, paths), nil
}

// CompileOne compiles path into outputDir/<basename>.js. Errors and panics
// raised by the compiler are logged and reported as false.
func (r *Runner) CompileOne(ctx context.Context, path, outputDir string) bool {
	dst := filepath.Join(outputDir, filepath.Base(path)+ArtifactExt)

	var (
		pc  panics.Catcher
		err error
	)

	pc.Try(func() {
		err = compiler.CompileToFile(ctx, r.compiler, path, dst, r.compileOptions(path), output.WithLogger(r.logger))
	})

	if rec := pc.Recovered(); rec != nil {
		err = fmt.Errorf("compiler panicked: %w", rec.AsError())
	}

	if err != nil {
		r.logger.Error("precompilation failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}

	r.logger.Info("precompiled template", slog.String("path", path), slog.String("output_folder", outputDir))

	return true
}

// TargetDir is the directory receiving path's artifact: a matching rule's
// output folder, else the global output folder, else the template's own
// directory.
func (r *Runner) TargetDir(path string) string {
	if rule, ok := r.opts.Rules.Lookup(filter.Rel(r.opts.Root, path)); ok && rule.OutputFolder != "" {
		return rule.OutputFolder
	}

	if r.opts.OutputFolder != "" {
		return r.opts.OutputFolder
	}

	return filepath.Dir(path)
}

// OutputPath returns the artifact path for template path.
func (r *Runner) OutputPath(path string) string {
	return filepath.Join(r.TargetDir(path), filepath.Base(path)+ArtifactExt)
}

func (r *Runner) compileOptions(path string) compiler.Options {
	opts := compiler.Options{
		Extension: r.opts.Extension,
		Partial:   r.opts.RegisterPartials,
	}

	if rule, ok := r.opts.Rules.Lookup(filter.Rel(r.opts.Root, path)); ok && rule.Partial != nil {
		opts.Partial = *rule.Partial
	}

	return opts
}

func (r *Runner) describeOutput() string {
	if r.opts.OutputFolder == "" {
		return "alongside templates"
	}

	return r.opts.OutputFolder
}
