package plan

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffResult is a unified diff between an artifact on disk and a fresh
// compilation of its template.
type DiffResult struct {
	Unified        string
	HasDifferences bool
	Hunks          []string
}

// DiffOptions configures diff computation.
type DiffOptions struct {
	OldLabel string
	NewLabel string
	Context  int
}

// DefaultDiffOptions labels the sides "on-disk" and "compiled" with three
// lines of context.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		OldLabel: "on-disk",
		NewLabel: "compiled",
		Context:  3,
	}
}

// ComputeDiff computes a unified diff between two artifact bodies.
func ComputeDiff(oldDoc, newDoc string, opts DiffOptions) (*DiffResult, error) {
	diff := difflib.UnifiedDiff{
		A:        splitLines(oldDoc),
		B:        splitLines(newDoc),
		FromFile: opts.OldLabel,
		ToFile:   opts.NewLabel,
		Context:  opts.Context,
	}

	unified, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	result := &DiffResult{
		Unified:        unified,
		HasDifferences: unified != "",
	}

	if result.HasDifferences {
		result.Hunks = extractHunks(unified)
	}

	return result, nil
}

// extractHunks splits unified diff output at each "@@" header. The file
// header lines stay attached to the first hunk.
func extractHunks(unified string) []string {
	var (
		hunks   []string
		current strings.Builder
	)

	for _, line := range strings.Split(strings.TrimSuffix(unified, "\n"), "\n") {
		if strings.HasPrefix(line, "@@") && current.Len() > 0 && strings.Contains(current.String(), "@@") {
			hunks = append(hunks, current.String())
			current.Reset()
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		hunks = append(hunks, current.String())
	}

	return hunks
}

// WriteDiff writes the diff to w, colouring added and removed lines when
// color is true.
func WriteDiff(w io.Writer, result *DiffResult, color bool) {
	if !result.HasDifferences {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	for _, line := range strings.Split(strings.TrimSuffix(result.Unified, "\n"), "\n") {
		if !color {
			_, _ = fmt.Fprintln(w, line)
			continue
		}

		writeColorLine(w, line)
	}
}

func writeColorLine(w io.Writer, line string) {
	const (
		red   = "\033[31m"
		green = "\033[32m"
		cyan  = "\033[36m"
		bold  = "\033[1m"
		reset = "\033[0m"
	)

	var prefix string

	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		prefix = bold
	case strings.HasPrefix(line, "@@"):
		prefix = cyan
	case strings.HasPrefix(line, "-"):
		prefix = red
	case strings.HasPrefix(line, "+"):
		prefix = green
	default:
		_, _ = fmt.Fprintln(w, line)
		return
	}

	_, _ = fmt.Fprintf(w, "%s%s%s\n", prefix, line, reset)
}

// splitLines keeps the trailing newline on each element, as difflib expects.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}

	return strings.SplitAfter(s, "\n")
}
