package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Matcher
// ---------------------------------------------------------------------------

func TestMatcher_DefaultPatterns(t *testing.T) {
	m, err := NewMatcher([]string{"*.handlebars", "**/*.handlebars"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"index.handlebars", true},
		{"templates/index.handlebars", true},
		{"app/templates/users/show.handlebars", true},
		{"./templates/index.handlebars", true},
		{"index.handlebars.js", false},
		{"templates/index.hbs", false},
		{"README.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}
}

func TestMatcher_SingleStarStaysInDirectory(t *testing.T) {
	m, err := NewMatcher([]string{"templates/*.hbs"})
	require.NoError(t, err)

	assert.True(t, m.Match("templates/a.hbs"))
	assert.False(t, m.Match("templates/nested/a.hbs"))
}

func TestMatcher_NoPatterns(t *testing.T) {
	_, err := NewMatcher(nil)
	require.Error(t, err)
}

func TestMatcher_Patterns(t *testing.T) {
	m, err := NewMatcher([]string{"a/*.hbs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/*.hbs"}, m.Patterns())
}

func TestMatcher_Filter(t *testing.T) {
	m, err := NewMatcher([]string{"**/*.handlebars"})
	require.NoError(t, err)

	root := filepath.Join("project")
	paths := []string{
		filepath.Join(root, "views", "a.handlebars"),
		filepath.Join(root, "views", "a.handlebars.js"),
		filepath.Join(root, "views", "b.handlebars"),
	}

	got := m.Filter(root, paths)
	assert.Equal(t, []string{paths[0], paths[2]}, got)
}

func TestRel(t *testing.T) {
	assert.Equal(t, "views/a.handlebars", Rel("/srv/app", "/srv/app/views/a.handlebars"))
	assert.Equal(t, "views/a.handlebars", Rel(".", "views/a.handlebars"))
	assert.Equal(t, "/elsewhere/a.handlebars", Rel("/srv/app", "/elsewhere/a.handlebars"))
}

// ---------------------------------------------------------------------------
// Walk / Select
// ---------------------------------------------------------------------------

func writeFile(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{{title}}"), 0o644))
}

func TestWalk_SkipsHiddenDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.handlebars"))
	writeFile(t, filepath.Join(dir, "views", "a.handlebars"))
	writeFile(t, filepath.Join(dir, ".git", "HEAD"))
	writeFile(t, filepath.Join(dir, ".cache", "x.handlebars"))

	files, err := Walk(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "b.handlebars"),
		filepath.Join(dir, "views", "a.handlebars"),
	}, files)
}

func TestWalk_NonExistentRoot(t *testing.T) {
	_, err := Walk("/nonexistent/dir/12345")
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.handlebars"))
	writeFile(t, filepath.Join(dir, "index.handlebars.js"))
	writeFile(t, filepath.Join(dir, "partials", "row.handlebars"))
	writeFile(t, filepath.Join(dir, "style.css"))

	m, err := NewMatcher([]string{"*.handlebars", "**/*.handlebars"})
	require.NoError(t, err)

	got, err := Select(dir, m)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "index.handlebars"),
		filepath.Join(dir, "partials", "row.handlebars"),
	}, got)
}
