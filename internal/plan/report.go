// Package plan compares freshly compiled templates with the artifacts
// already on disk and reports which ones are out of date.
package plan

import (
	"fmt"
	"io"
)

// Status classifies one artifact.
type Status string

// Artifact states.
const (
	StatusUpToDate Status = "up-to-date"
	StatusStale    Status = "stale"
	StatusMissing  Status = "missing"
	StatusError    Status = "error"
)

// Entry is the check outcome for one template.
type Entry struct {
	Source string      `json:"source" yaml:"source"`
	Output string      `json:"output" yaml:"output"`
	Status Status      `json:"status" yaml:"status"`
	Diff   *DiffResult `json:"-" yaml:"-"`
	Err    error       `json:"-" yaml:"-"`
}

// Report collects entries in the order templates were checked.
type Report struct {
	Entries []Entry
}

// Add appends an entry.
func (r *Report) Add(e Entry) {
	r.Entries = append(r.Entries, e)
}

// OutOfDate returns every entry that is not up to date.
func (r *Report) OutOfDate() []Entry {
	var out []Entry

	for _, e := range r.Entries {
		if e.Status != StatusUpToDate {
			out = append(out, e)
		}
	}

	return out
}

// HasDrift reports whether any artifact is stale, missing or failed.
func (r *Report) HasDrift() bool {
	return len(r.OutOfDate()) > 0
}

// Counts tallies entries by status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, e := range r.Entries {
		counts[e.Status]++
	}

	return counts
}

// WriteReport prints one line per out-of-date artifact followed by a
// summary. With showDiff, stale artifacts are followed by their diff.
func WriteReport(w io.Writer, r *Report, showDiff, color bool) {
	for _, e := range r.OutOfDate() {
		switch e.Status {
		case StatusError:
			_, _ = fmt.Fprintf(w, "%-8s %s: %v\n", e.Status, e.Source, e.Err)
		case StatusStale:
			_, _ = fmt.Fprintf(w, "%-8s %s (%d hunk(s))\n", e.Status, e.Output, len(e.Diff.Hunks))

			if showDiff {
				WriteDiff(w, e.Diff, color)
			}
		default:
			_, _ = fmt.Fprintf(w, "%-8s %s\n", e.Status, e.Output)
		}
	}

	c := r.Counts()
	_, _ = fmt.Fprintf(w, "%d template(s): %d up-to-date, %d stale, %d missing, %d failed\n",
		len(r.Entries), c[StatusUpToDate], c[StatusStale], c[StatusMissing], c[StatusError])
}
