package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// ErrUnsupportedVersion is returned when the precompiler version does not
// satisfy the configured constraint.
var ErrUnsupportedVersion = errors.New("unsupported handlebars version")

// runFunc executes name with args and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Exec compiles templates with the handlebars npm precompiler
// (`npm install -g handlebars`). The executable's stdout is the artifact.
type Exec struct {
	bin        string
	constraint string
	extraArgs  []string
	run        runFunc

	versionOnce sync.Once
	versionErr  error
}

// ExecOption configures an Exec compiler.
type ExecOption func(*Exec)

// WithBinary overrides the precompiler executable (default "handlebars").
func WithBinary(bin string) ExecOption {
	return func(e *Exec) {
		if bin != "" {
			e.bin = bin
		}
	}
}

// WithVersionConstraint requires the precompiler version to satisfy a
// semver constraint such as ">= 4.0, < 5". Empty disables the check.
func WithVersionConstraint(constraint string) ExecOption {
	return func(e *Exec) {
		e.constraint = constraint
	}
}

// WithExtraArgs appends arguments (e.g. "--min") to every invocation.
func WithExtraArgs(args ...string) ExecOption {
	return func(e *Exec) {
		e.extraArgs = append(e.extraArgs, args...)
	}
}

// withRunner replaces process execution.
func withRunner(fn runFunc) ExecOption {
	return func(e *Exec) {
		e.run = fn
	}
}

// NewExec creates an Exec compiler.
func NewExec(opts ...ExecOption) *Exec {
	e := &Exec{
		bin: "handlebars",
		run: runCommand,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Compile runs the precompiler on src. The version constraint is checked
// on first use only.
func (e *Exec) Compile(ctx context.Context, src string, opts Options) ([]byte, error) {
	if err := e.checkVersion(ctx); err != nil {
		return nil, err
	}

	out, err := e.run(ctx, e.bin, e.args(src, opts)...)
	if err != nil {
		return nil, fmt.Errorf("precompiling %s: %w", src, err)
	}

	return out, nil
}

func (e *Exec) args(src string, opts Options) []string {
	ext := strings.TrimPrefix(opts.Extension, ".")
	if ext == "" {
		ext = "handlebars"
	}

	args := []string{"-e", ext}

	if opts.Partial {
		args = append(args, "-p")
	}

	args = append(args, e.extraArgs...)

	return append(args, src)
}

// Version returns the precompiler's reported version.
func (e *Exec) Version(ctx context.Context) (*semver.Version, error) {
	out, err := e.run(ctx, e.bin, "-v")
	if err != nil {
		return nil, fmt.Errorf("querying %s version: %w", e.bin, err)
	}

	v, err := semver.NewVersion(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, fmt.Errorf("parsing %s version %q: %w", e.bin, strings.TrimSpace(string(out)), err)
	}

	return v, nil
}

func (e *Exec) checkVersion(ctx context.Context) error {
	if e.constraint == "" {
		return nil
	}

	e.versionOnce.Do(func() {
		c, err := semver.NewConstraint(e.constraint)
		if err != nil {
			e.versionErr = fmt.Errorf("invalid handlebars version constraint %q: %w", e.constraint, err)
			return
		}

		v, err := e.Version(ctx)
		if err != nil {
			e.versionErr = err
			return
		}

		if !c.Check(v) {
			e.versionErr = fmt.Errorf("%w: %s does not satisfy %q", ErrUnsupportedVersion, v, e.constraint)
		}
	})

	return e.versionErr
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s not found on PATH: %w", name, err)
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, path, args...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}

		return nil, err
	}

	return stdout.Bytes(), nil
}
