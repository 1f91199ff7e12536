package hbswatch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hbswatch/pkg/hbswatch"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestCompileAll_EmptyDir(t *testing.T) {
	_, err := hbswatch.CompileAll(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be empty")
}

func TestCompileAll_WritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.handlebars"), "{{a}}")
	writeFile(t, filepath.Join(dir, "nested", "b.handlebars"), "{{b}}")

	out := filepath.Join(dir, "out")

	n, err := hbswatch.CompileAll(context.Background(), dir, hbswatch.WithOutputFolder(out))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(out, "a.handlebars.js"))
	assert.FileExists(t, filepath.Join(out, "b.handlebars.js"))
}

func TestCompileAll_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.handlebars"), "{{a}}")
	writeFile(t, filepath.Join(dir, "bad.handlebars"), "{{#each items}}")

	n, err := hbswatch.CompileAll(context.Background(), dir)
	require.ErrorIs(t, err, hbswatch.ErrCompileFailed)
	assert.Equal(t, 1, n)
	assert.FileExists(t, filepath.Join(dir, "good.handlebars.js"))
}

func TestCompileAll_CustomExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "card.hbs"), "{{title}}")

	n, err := hbswatch.CompileAll(context.Background(), dir,
		hbswatch.WithPatterns("*.hbs", "**/*.hbs"),
		hbswatch.WithExtension(".hbs"),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(dir, "card.hbs.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `templates["card"]`)
}

func TestCompile_Partial(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "row.handlebars")
	writeFile(t, src, "<td>{{x}}</td>")

	js, err := hbswatch.Compile(context.Background(), src, hbswatch.WithRegisterPartials())
	require.NoError(t, err)
	assert.Contains(t, string(js), `Handlebars.registerPartial("row", "<td>{{x}}</td>");`)
}

func TestWatch_CompilesAtStartAndOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.handlebars"), "{{a}}")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- hbswatch.Watch(ctx, dir, hbswatch.WithDebounce(50*time.Millisecond))
	}()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "a.handlebars.js"))
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	// Let the watcher register the root before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "b.handlebars"), "{{b}}")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "b.handlebars.js"))
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop in time")
	}
}

func TestWatch_EmptyDir(t *testing.T) {
	err := hbswatch.Watch(context.Background(), "")
	require.Error(t, err)
}
