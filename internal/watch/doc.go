// Package watch monitors a project tree with fsnotify and hands template
// changes and removals to a Handler in batches. Events arriving within the
// debounce window are coalesced, the last operation per path winning, and
// every batch is delivered on the watch goroutine.
package watch
