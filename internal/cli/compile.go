package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/hbswatch/internal/runner"
)

func newCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [template...]",
		Short: "Compile templates once",
		Long: `Compile precompiles the given templates, or every template matched
by --watch below --dir when none are given, and exits.

Exit codes:
  0  Every template compiled
  1  At least one template failed
  2  Invalid arguments or configuration`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), cmd, args)
		},
	}

	registerRunnerFlags(cmd)

	return cmd
}

func runCompile(ctx context.Context, cmd *cobra.Command, paths []string) error {
	r, _, err := newRunner(ctx)
	if err != nil {
		return err
	}

	if err := r.EnsureOutput(); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	var res runner.BatchResult

	if len(paths) == 0 {
		res, err = r.RunAll(ctx)
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
	} else {
		res = r.OnChanges(ctx, paths)
	}

	if !r.Options().Quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d template(s) compiled, %d failed\n", res.Compiled, res.Failed)
	}

	if res.Failed > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d template(s) failed to compile", res.Failed)}
	}

	return nil
}
