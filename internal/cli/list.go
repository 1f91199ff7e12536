package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/hbswatch/internal/runner"
)

type listOptions struct {
	format string
}

// listEntry describes one template and where its artifact goes.
type listEntry struct {
	Source string `json:"source" yaml:"source"`
	Output string `json:"output" yaml:"output"`
}

func newListCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List matched templates and their artifact paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	registerRunnerFlags(cmd)

	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: text, json, yaml")

	return cmd
}

func runList(ctx context.Context, w io.Writer, opts *listOptions) error {
	switch opts.format {
	case "text", "json", "yaml":
	default:
		return &ExitError{Code: 2, Err: fmt.Errorf("invalid format %q: must be one of text, json, yaml", opts.format)}
	}

	r, _, err := newRunner(ctx)
	if err != nil {
		return err
	}

	entries, err := listEntries(r)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(entries); err != nil {
			return err
		}

		return enc.Close()
	default:
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s → %s\n", e.Source, e.Output)
		}

		return nil
	}
}

func listEntries(r *runner.Runner) ([]listEntry, error) {
	sources, err := r.Sources()
	if err != nil {
		return nil, err
	}

	entries := make([]listEntry, 0, len(sources))
	for _, s := range sources {
		entries = append(entries, listEntry{Source: s, Output: r.OutputPath(s)})
	}

	return entries, nil
}
