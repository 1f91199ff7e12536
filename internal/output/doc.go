// Package output writes and removes compiled template artifacts.
//
// [FileWriter] replaces an artifact atomically and creates its directory on
// demand, [EnsureDir] prepares an output folder up front, and [Remove]
// deletes a stale artifact, treating an already missing file as done.
package output
