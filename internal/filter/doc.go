// Package filter decides which files are Handlebars templates.
//
// A [Matcher] holds the watch patterns, [Walk] and [Select] enumerate a
// project tree the way a full recompile needs it, and [Rules] attach
// per-pattern overrides (partial registration, output folder) to the
// templates they match.
package filter
