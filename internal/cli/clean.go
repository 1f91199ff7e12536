package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the compiled artifact of every template",
		Long: `Clean deletes <output-folder>/<name>.js for every template matched
by --watch below --dir. Templates themselves are never touched and
missing artifacts are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			r, _, err := newRunner(ctx)
			if err != nil {
				return err
			}

			res, err := r.Clean(ctx)
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}

			if !r.Options().Quiet {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d artifact(s) removed\n", res.Removed)
			}

			if res.Failed > 0 {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d artifact(s) could not be removed", res.Failed)}
			}

			return nil
		},
	}

	registerRunnerFlags(cmd)

	return cmd
}
