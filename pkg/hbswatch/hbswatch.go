// Package hbswatch provides a public Go API for precompiling Handlebars
// templates and for watching a project tree for template changes.
//
// This package exposes the hbswatch runner as a library, allowing
// programmatic use without the CLI.
//
// Basic usage:
//
//	n, err := hbswatch.CompileAll(ctx, "web/templates",
//	    hbswatch.WithOutputFolder("public/js/templates"),
//	)
//
// Watching:
//
//	err := hbswatch.Watch(ctx, "web/templates",
//	    hbswatch.WithOutputFolder("public/js/templates"),
//	    hbswatch.WithRegisterPartials(),
//	)
package hbswatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/hbswatch/internal/compiler"
	"github.com/hupe1980/hbswatch/internal/config"
	"github.com/hupe1980/hbswatch/internal/filter"
	"github.com/hupe1980/hbswatch/internal/logging"
	"github.com/hupe1980/hbswatch/internal/runner"
	"github.com/hupe1980/hbswatch/internal/watch"
)

// ErrCompileFailed is returned when at least one template failed to compile.
var ErrCompileFailed = errors.New("template compilation failed")

// Option configures compilation and watching.
// Use the With* functions to create Options.
type Option func(*options)

type options struct {
	outputFolder     string
	registerPartials bool
	skipRunAtStart   bool
	quiet            bool
	extension        string
	patterns         []string
	compiler         string
	handlebarsBin    string
	versionCheck     string
	debounce         time.Duration
	logger           *slog.Logger
}

// WithOutputFolder writes every artifact into dir instead of next to its template.
func WithOutputFolder(dir string) Option { return func(o *options) { o.outputFolder = dir } }

// WithRegisterPartials compiles templates as partials.
func WithRegisterPartials() Option { return func(o *options) { o.registerPartials = true } }

// WithoutRunAtStart skips the initial full compile in Watch.
func WithoutRunAtStart() Option { return func(o *options) { o.skipRunAtStart = true } }

// WithQuiet silences compile and delete messages.
func WithQuiet() Option { return func(o *options) { o.quiet = true } }

// WithExtension sets the template extension (default: ".handlebars").
func WithExtension(ext string) Option { return func(o *options) { o.extension = ext } }

// WithPatterns sets the glob patterns selecting templates.
func WithPatterns(patterns ...string) Option { return func(o *options) { o.patterns = patterns } }

// WithExecCompiler uses the handlebars npm precompiler found at bin. An
// optional semver constraint is checked against its reported version.
func WithExecCompiler(bin, versionConstraint string) Option {
	return func(o *options) {
		o.compiler = compiler.KindExec
		o.handlebarsBin = bin
		o.versionCheck = versionConstraint
	}
}

// WithDebounce sets the quiet period used to batch file events in Watch.
func WithDebounce(d time.Duration) Option { return func(o *options) { o.debounce = d } }

// WithLogger sets the logger receiving progress messages.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func buildOptions(opts []Option) *options {
	o := &options{
		extension: config.DefaultExtension,
		patterns:  config.DefaultWatch,
		compiler:  compiler.KindBuiltin,
		debounce:  config.DefaultDebounce,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logging.Discard()
	}

	return o
}

func newRunner(dir string, o *options) (*runner.Runner, *filter.Matcher, error) {
	matcher, err := filter.NewMatcher(o.patterns)
	if err != nil {
		return nil, nil, err
	}

	c, err := compiler.New(o.compiler,
		compiler.WithBinary(o.handlebarsBin),
		compiler.WithVersionConstraint(o.versionCheck),
	)
	if err != nil {
		return nil, nil, err
	}

	r, err := runner.New(c, runner.Options{
		Root:             dir,
		OutputFolder:     o.outputFolder,
		RegisterPartials: o.registerPartials,
		RunAtStart:       !o.skipRunAtStart,
		Quiet:            o.quiet,
		Extension:        o.extension,
		Matcher:          matcher,
		Logger:           o.logger,
	})
	if err != nil {
		return nil, nil, err
	}

	return r, matcher, nil
}

// CompileAll compiles every template below dir once and returns how many
// were written. Templates that fail are skipped and reported through
// ErrCompileFailed after the rest have been compiled.
func CompileAll(ctx context.Context, dir string, opts ...Option) (int, error) {
	if dir == "" {
		return 0, fmt.Errorf("project directory must not be empty")
	}

	r, _, err := newRunner(dir, buildOptions(opts))
	if err != nil {
		return 0, err
	}

	if err := r.EnsureOutput(); err != nil {
		return 0, err
	}

	res, err := r.RunAll(ctx)
	if err != nil {
		return res.Compiled, err
	}

	if res.Failed > 0 {
		return res.Compiled, fmt.Errorf("%w: %v", ErrCompileFailed, res.Failures)
	}

	return res.Compiled, nil
}

// Compile returns the JavaScript for a single template without writing it.
func Compile(ctx context.Context, src string, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)

	c, err := compiler.New(o.compiler,
		compiler.WithBinary(o.handlebarsBin),
		compiler.WithVersionConstraint(o.versionCheck),
	)
	if err != nil {
		return nil, err
	}

	return c.Compile(ctx, src, compiler.Options{Extension: o.extension, Partial: o.registerPartials})
}

// Watch compiles templates below dir as they change until ctx is done or
// the process receives SIGINT/SIGTERM.
func Watch(ctx context.Context, dir string, opts ...Option) error {
	if dir == "" {
		return fmt.Errorf("project directory must not be empty")
	}

	o := buildOptions(opts)

	r, matcher, err := newRunner(dir, o)
	if err != nil {
		return err
	}

	if _, err := r.Start(ctx); err != nil {
		return err
	}
	defer r.Stop(ctx)

	h := handler{r: r, logger: o.logger}
	if o.quiet {
		h.logger = logging.Discard()
	}

	return watch.Run(ctx, watch.Options{
		Root:     dir,
		Matcher:  matcher,
		Debounce: o.debounce,
		Logger:   o.logger,
	}, h)
}

// handler adapts a runner to watch.Handler.
type handler struct {
	r      *runner.Runner
	logger *slog.Logger
}

func (h handler) OnChanges(ctx context.Context, paths []string)  { h.r.OnChanges(ctx, paths) }
func (h handler) OnRemovals(ctx context.Context, paths []string) { h.r.OnRemovals(ctx, paths) }

func (h handler) Reload(ctx context.Context) {
	if _, err := h.r.Reload(ctx); err != nil {
		h.logger.Error("reload failed", slog.String("error", err.Error()))
	}
}
