package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/hbswatch/internal/compiler"
	"github.com/hupe1980/hbswatch/internal/runner"
)

// newProject lays out a small template tree and returns its root.
func newProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"index.handlebars":          "<h1>{{title}}</h1>",
		"views/users.handlebars":    "{{#each users}}<li>{{name}}</li>{{/each}}",
		"partials/row.handlebars":   "<tr>{{cell}}</tr>",
		"README.md":                 "not a template",
		".cache/ignored.handlebars": "{{x}}",
	}

	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}

	return dir
}

// ---------------------------------------------------------------------------
// compile
// ---------------------------------------------------------------------------

func TestCompile_AllTemplatesAlongsideSources(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := executeCommand("compile", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 template(s) compiled, 0 failed")

	assert.FileExists(t, filepath.Join(dir, "index.handlebars.js"))
	assert.FileExists(t, filepath.Join(dir, "views", "users.handlebars.js"))
	assert.FileExists(t, filepath.Join(dir, "partials", "row.handlebars.js"))
	assert.NoFileExists(t, filepath.Join(dir, ".cache", "ignored.handlebars.js"))
	assert.NoFileExists(t, filepath.Join(dir, "README.md.js"))
}

func TestCompile_OutputFolderAndPartials(t *testing.T) {
	dir := newProject(t)
	out := filepath.Join(dir, "public", "js")

	_, _, err := executeCommand("compile", "--dir", dir, "-o", out, "--register-partials")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "row.handlebars.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `Handlebars.registerPartial("row", "<tr>{{cell}}</tr>");`)
	assert.NoFileExists(t, filepath.Join(dir, "partials", "row.handlebars.js"))
}

func TestCompile_ExplicitPaths(t *testing.T) {
	dir := newProject(t)
	src := filepath.Join(dir, "index.handlebars")

	_, _, err := executeCommand("compile", "--dir", dir, src)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "index.handlebars.js"))
	assert.NoFileExists(t, filepath.Join(dir, "views", "users.handlebars.js"))
}

func TestCompile_FailureExitsWithCode1(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.handlebars"), []byte("{{#if x}}unclosed"), 0o644))

	_, _, err := executeCommand("compile", "--dir", dir)
	requireExitCode(t, err, 1)
	assert.Contains(t, err.Error(), "1 template(s) failed to compile")

	// The rest of the batch still compiled.
	assert.FileExists(t, filepath.Join(dir, "index.handlebars.js"))
	assert.NoFileExists(t, filepath.Join(dir, "broken.handlebars.js"))
}

func TestCompile_QuietPrintsNothing(t *testing.T) {
	dir := newProject(t)

	stdout, stderr, err := executeCommand("compile", "--dir", dir, "--quiet")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestCompile_RulesFromConfigFile(t *testing.T) {
	dir := newProject(t)
	cfgFile := filepath.Join(dir, ".hbswatch.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
rules:
  - match: "partials/**"
    partial: true
    outputFolder: `+filepath.Join(dir, "public", "partials")+`
`), 0o644))

	_, _, err := executeCommand("--config", cfgFile, "compile", "--dir", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "public", "partials", "row.handlebars.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Handlebars.registerPartial")
	assert.FileExists(t, filepath.Join(dir, "index.handlebars.js"))
}

func TestCompile_InvalidRules(t *testing.T) {
	dir := newProject(t)
	cfgFile := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("rules:\n  - partial: true\n"), 0o644))

	_, _, err := executeCommand("--config", cfgFile, "compile", "--dir", dir)
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), "match is required")
}

// ---------------------------------------------------------------------------
// clean
// ---------------------------------------------------------------------------

func TestClean_RemovesArtifacts(t *testing.T) {
	dir := newProject(t)

	_, _, err := executeCommand("compile", "--dir", dir)
	require.NoError(t, err)

	stdout, _, err := executeCommand("clean", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 artifact(s) removed")

	assert.NoFileExists(t, filepath.Join(dir, "index.handlebars.js"))
	assert.FileExists(t, filepath.Join(dir, "index.handlebars"))

	// A second clean is a no-op.
	stdout, _, err = executeCommand("clean", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 artifact(s) removed")
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func TestCheck_MissingArtifactsExit8(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := executeCommand("check", "--dir", dir, "--no-color")
	requireExitCode(t, err, 8)
	assert.Contains(t, stdout, "3 missing")
}

func TestCheck_UpToDateAfterCompile(t *testing.T) {
	dir := newProject(t)

	_, _, err := executeCommand("compile", "--dir", dir)
	require.NoError(t, err)

	stdout, _, err := executeCommand("check", "--dir", dir, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 up-to-date")
}

func TestCheck_StaleWithDiff(t *testing.T) {
	dir := newProject(t)

	_, _, err := executeCommand("compile", "--dir", dir)
	require.NoError(t, err)

	src := filepath.Join(dir, "index.handlebars")
	require.NoError(t, os.WriteFile(src, []byte("<h2>{{title}}</h2>"), 0o644))

	stdout, _, err := executeCommand("check", "--dir", dir, "--no-color", "--diff")
	requireExitCode(t, err, 8)
	assert.Contains(t, stdout, "stale")
	assert.Contains(t, stdout, "<h2>{{title}}</h2>")
}

func TestCheck_CompileErrorExit1(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.handlebars"), []byte("{{#if x}}unclosed"), 0o644))

	_, _, err := executeCommand("check", "--dir", dir, "--no-color")
	requireExitCode(t, err, 1)
}

// ---------------------------------------------------------------------------
// list
// ---------------------------------------------------------------------------

func TestList_Text(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := executeCommand("list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(dir, "index.handlebars")+" → "+filepath.Join(dir, "index.handlebars.js"))
	assert.NotContains(t, stdout, "README.md")
}

func TestList_JSON(t *testing.T) {
	dir := newProject(t)
	out := filepath.Join(dir, "public")

	stdout, _, err := executeCommand("list", "--dir", dir, "-o", out, "--format", "json")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 3)

	for _, e := range entries {
		assert.Equal(t, out, filepath.Dir(e.Output))
	}
}

func TestList_YAML(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := executeCommand("list", "--dir", dir, "--format", "yaml")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &entries))
	assert.Len(t, entries, 3)
}

func TestList_InvalidFormat(t *testing.T) {
	_, _, err := executeCommand("list", "--format", "xml")
	requireExitCode(t, err, 2)
}

func TestList_CustomWatchPatterns(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := executeCommand("list", "--dir", dir, "--watch", "views/*.handlebars", "--format", "json")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(dir, "views", "users.handlebars"), entries[0].Source)
}

// ---------------------------------------------------------------------------
// watch
// ---------------------------------------------------------------------------

var fakeOK = compiler.Func(func(context.Context, string, compiler.Options) ([]byte, error) {
	return []byte("ok"), nil
})

func TestWatch_InvalidDir(t *testing.T) {
	_, _, err := executeCommand("watch", "--dir", "/nonexistent/project/12345", "--run-at-start=false")
	require.Error(t, err)
}

func TestWatch_RejectsArgs(t *testing.T) {
	_, _, err := executeCommand("watch", "extra")
	require.Error(t, err)
}

func TestWatchHandler_Status(t *testing.T) {
	dir := newProject(t)

	r, err := runner.New(fakeOK, runner.DefaultOptions())
	require.NoError(t, err)

	var out bytes.Buffer
	h := &watchHandler{runner: r, out: &out}

	h.OnChanges(context.Background(), []string{filepath.Join(dir, "index.handlebars")})
	assert.Contains(t, out.String(), "index.handlebars → OK (1 compiled, 0 removed)")

	h.OnRemovals(context.Background(), []string{filepath.Join(dir, "index.handlebars"), filepath.Join(dir, "gone.handlebars")})
	assert.Contains(t, out.String(), "2 templates removed → OK (0 compiled, 1 removed)")
}

func TestWatchHandler_Quiet(t *testing.T) {
	r, err := runner.New(fakeOK, runner.DefaultOptions())
	require.NoError(t, err)

	var out bytes.Buffer
	h := &watchHandler{runner: r, out: &out, quiet: true}

	h.OnRemovals(context.Background(), []string{"missing.handlebars"})
	assert.Empty(t, out.String())
}
