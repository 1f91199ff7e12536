package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sourcegraph/conc/panics"

	"github.com/hupe1980/hbswatch/internal/plan"
)

// Check compiles each template in memory and compares the result with the
// artifact on disk. Nothing is written.
func (r *Runner) Check(ctx context.Context, paths []string) *plan.Report {
	report := &plan.Report{}

	for _, p := range paths {
		report.Add(r.checkOne(ctx, p))
	}

	return report
}

// CheckAll checks every template below Root.
func (r *Runner) CheckAll(ctx context.Context) (*plan.Report, error) {
	paths, err := r.Sources()
	if err != nil {
		return nil, err
	}

	return r.Check(ctx, paths), nil
}

func (r *Runner) checkOne(ctx context.Context, path string) plan.Entry {
	entry := plan.Entry{Source: path, Output: r.OutputPath(path)}

	var (
		pc       panics.Catcher
		compiled []byte
		err      error
	)

	pc.Try(func() {
		compiled, err = r.compiler.Compile(ctx, path, r.compileOptions(path))
	})

	if rec := pc.Recovered(); rec != nil {
		err = fmt.Errorf("compiler panicked: %w", rec.AsError())
	}

	if err != nil {
		entry.Status = plan.StatusError
		entry.Err = err

		return entry
	}

	existing, err := os.ReadFile(entry.Output)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		entry.Status = plan.StatusMissing
		return entry
	case err != nil:
		entry.Status = plan.StatusError
		entry.Err = fmt.Errorf("reading %s: %w", entry.Output, err)

		return entry
	}

	opts := plan.DefaultDiffOptions()
	opts.OldLabel = entry.Output
	opts.NewLabel = path

	diff, err := plan.ComputeDiff(string(existing), string(compiled), opts)
	if err != nil {
		entry.Status = plan.StatusError
		entry.Err = err

		return entry
	}

	entry.Diff = diff
	entry.Status = plan.StatusUpToDate

	if diff.HasDifferences {
		entry.Status = plan.StatusStale
	}

	return entry
}
