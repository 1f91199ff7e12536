package watch

// Batch is one flush of coalesced events.
type Batch struct {
	Changed []string
	Removed []string
}

// Empty reports whether the batch carries no paths.
func (b Batch) Empty() bool {
	return len(b.Changed) == 0 && len(b.Removed) == 0
}

// Batcher coalesces file events by path. The last operation recorded for a
// path wins and paths keep the order in which they were first seen.
// A Batcher is not safe for concurrent use.
type Batcher struct {
	order   []string
	removed map[string]bool
}

// NewBatcher creates an empty Batcher.
func NewBatcher() *Batcher {
	return &Batcher{removed: make(map[string]bool)}
}

// Add records a change (removed=false) or a removal of path.
func (b *Batcher) Add(path string, removed bool) {
	if _, seen := b.removed[path]; !seen {
		b.order = append(b.order, path)
	}

	b.removed[path] = removed
}

// Len returns the number of distinct pending paths.
func (b *Batcher) Len() int {
	return len(b.order)
}

// Flush returns the pending batch and resets the Batcher.
func (b *Batcher) Flush() Batch {
	var batch Batch

	for _, p := range b.order {
		if b.removed[p] {
			batch.Removed = append(batch.Removed, p)
		} else {
			batch.Changed = append(batch.Changed, p)
		}
	}

	b.order = nil
	b.removed = make(map[string]bool)

	return batch
}
