package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/hbswatch/internal/config"
	"github.com/hupe1980/hbswatch/internal/plan"
)

type checkOptions struct {
	diff bool
}

func newCheckCommand() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [template...]",
		Short: "Report artifacts that are missing or out of date",
		Long: `Check compiles templates in memory and compares the result with the
artifacts on disk. Nothing is written. Use it in CI to ensure compiled
templates are committed up to date.

Exit codes:
  0  Every artifact is up to date
  1  A template failed to compile
  2  Invalid arguments or configuration
  8  Missing or stale artifacts detected`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd, args, opts)
		},
	}

	registerRunnerFlags(cmd)

	cmd.Flags().BoolVar(&opts.diff, "diff", false, "show a unified diff for stale artifacts")

	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, paths []string, opts *checkOptions) error {
	cfg := config.FromContext(ctx)

	r, _, err := newRunner(ctx)
	if err != nil {
		return err
	}

	var report *plan.Report

	if len(paths) == 0 {
		report, err = r.CheckAll(ctx)
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
	} else {
		report = r.Check(ctx, paths)
	}

	plan.WriteReport(cmd.OutOrStdout(), report, opts.diff, !cfg.NoColor)

	counts := report.Counts()

	if n := counts[plan.StatusError]; n > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d template(s) failed to compile", n)}
	}

	if report.HasDrift() {
		return &ExitError{
			Code: 8,
			Err:  fmt.Errorf("%d artifact(s) out of date", len(report.OutOfDate())),
		}
	}

	return nil
}
