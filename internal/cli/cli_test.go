package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/termmeta/internal/paths"
	"github.com/mesh-intelligence/termmeta/internal/sqlite"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	t.Setenv(paths.EnvConfigDir, "")
	t.Setenv(paths.EnvDataDir, "")
	t.Setenv(envLogLevel, "")
	return cliEnv{configDir: t.TempDir(), dataDir: t.TempDir()}
}

func (e cliEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := Execute(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	code, out, errOut := e.run(args...)
	require.Equal(t, exitSuccess, code, "stderr: %s", errOut)
	return out
}

func (e cliEnv) writeConfig(t *testing.T, s settings) {
	t.Helper()
	data, err := yaml.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(paths.ConfigFile(e.configDir), data, 0o644))
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "version")
	assert.Contains(t, out, "termmeta v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestInit_WritesDefaultConfig(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "init")
	assert.Contains(t, out, "termmeta initialized successfully")

	data, err := os.ReadFile(paths.ConfigFile(env.configDir))
	require.NoError(t, err)
	var got settings
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, types.BackendSQLite, got.Backend)
	assert.Equal(t, types.StorageRows, got.Storage)
	assert.Equal(t, types.DefaultLayouts(), got.Layouts)

	assert.FileExists(t, filepath.Join(env.dataDir, sqlite.DatabaseFile))

	// A second init keeps the existing file.
	require.NoError(t, os.WriteFile(paths.ConfigFile(env.configDir), []byte("backend: sqlite\nlog_level: info\n"), 0o644))
	env.mustRun(t, "init")
	data, err = os.ReadFile(paths.ConfigFile(env.configDir))
	require.NoError(t, err)
	assert.Equal(t, "backend: sqlite\nlog_level: info\n", string(data))
}

func TestTermLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "term", "add", "category", "World News")
	assert.Equal(t, "created category 1 (world-news)\n", out)

	out = env.mustRun(t, "term", "get", "category", "1")
	var term types.Term
	require.NoError(t, json.Unmarshal([]byte(out), &term))
	assert.Equal(t, "World News", term.Name)
	assert.Equal(t, types.DefaultTermMeta(), term.Meta)

	out = env.mustRun(t, "term", "list", "category")
	assert.Contains(t, out, "world-news")

	out = env.mustRun(t, "--json", "term", "list", "category")
	var terms []types.Term
	require.NoError(t, json.Unmarshal([]byte(out), &terms))
	require.Len(t, terms, 1)

	env.mustRun(t, "term", "delete", "category", "1")
	code, _, errOut := env.run("term", "get", "category", "1")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "not found")
}

func TestTermAdd_DuplicateIsUserError(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "term", "add", "category", "News")

	code, _, errOut := env.run("term", "add", "category", "news")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "duplicate")

	code, _, _ = env.run("term", "add", "category", "!!!")
	assert.Equal(t, exitUserError, code)
}

func TestMetaSetAndShow(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "term", "add", "post_tag", "Go")

	env.mustRun(t, "meta", "set", "post_tag", "1",
		`headline=Gopher\'s corner`,
		"intro_text=&#169; 2024",
		"layout=full-width-content",
		"archive_description=<em>ok</em><script>bad()</script>",
	)

	out := env.mustRun(t, "meta", "show", "post_tag", "1")
	var meta types.TermMeta
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	assert.Equal(t, "Gopher's corner", meta[types.FieldHeadline])
	assert.Equal(t, "© 2024", meta[types.FieldIntroText])
	assert.Equal(t, "full-width-content", meta[types.FieldLayout])
	assert.Equal(t, "<em>ok</em>", meta[types.FieldArchiveDescription])
	assert.Equal(t, "0", meta[types.FieldDisplayTitle])

	out = env.mustRun(t, "meta", "show", "--raw", "post_tag", "1")
	var raw types.TermMeta
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	assert.Equal(t, `Gopher\'s corner`, raw[types.FieldHeadline])
	assert.NotContains(t, raw, types.FieldDisplayTitle)

	// Set replaces the whole entry.
	env.mustRun(t, "meta", "set", "post_tag", "1", "headline=Only")
	out = env.mustRun(t, "meta", "show", "--raw", "post_tag", "1")
	raw = types.TermMeta{}
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	assert.Equal(t, types.TermMeta{types.FieldHeadline: "Only"}, raw)

	env.mustRun(t, "meta", "delete", "1")
	out = env.mustRun(t, "meta", "show", "--raw", "post_tag", "1")
	assert.Equal(t, "{}\n", out)
}

func TestMetaSet_UnfilteredHTML(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "term", "add", "category", "Raw")
	env.mustRun(t, "meta", "set", "--unfiltered-html", "category", "1", "archive_description=<script>x</script>")

	out := env.mustRun(t, "meta", "show", "--raw", "category", "1")
	assert.Contains(t, out, `<script>`)
}

func TestMetaSet_InvalidArgs(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "term", "add", "category", "News")

	code, _, _ := env.run("meta", "set", "category", "1", "no-equals-sign")
	assert.Equal(t, exitUserError, code)

	code, _, _ = env.run("meta", "set", "category", "zero", "a=b")
	assert.Equal(t, exitUserError, code)

	code, _, _ = env.run("meta", "set", "genre", "1", "a=b")
	assert.Equal(t, exitUserError, code)
}

func TestForm_RendersSections(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "term", "add", "category", "News")
	env.mustRun(t, "meta", "set", "category", "1", "headline=Hot & new", "layout=sidebar-content")

	out := env.mustRun(t, "form", "category", "1")
	assert.Contains(t, out, "Category Archive Settings")
	assert.Contains(t, out, `value="Hot &amp; new"`)
	assert.Contains(t, out, `value="sidebar-content" checked`)
}

func TestForm_PrivateTaxonomy(t *testing.T) {
	env := newCLIEnv(t)
	s := defaultSettings()
	s.Taxonomies = append(s.Taxonomies, types.Taxonomy{Name: "internal", SingularLabel: "Internal"})
	env.writeConfig(t, s)

	env.mustRun(t, "term", "add", "internal", "Hidden")
	code, _, errOut := env.run("form", "internal", "1")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "no edit sections")
}

func TestExportImport(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "term", "add", "category", "A")
	env.mustRun(t, "term", "add", "category", "B")
	env.mustRun(t, "meta", "set", "category", "1", "headline=one")
	env.mustRun(t, "meta", "set", "category", "2", "headline=two")

	snapshot := filepath.Join(t.TempDir(), "meta.jsonl")
	out := env.mustRun(t, "export", snapshot)
	assert.Contains(t, out, "exported 2 term(s)")

	other := newCLIEnv(t)
	out = other.mustRun(t, "import", snapshot)
	assert.Contains(t, out, "imported 2 term(s)")

	code, _, _ := other.run("import", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Equal(t, exitUserError, code)
}

func TestMigrate(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "init")

	backend := sqlite.NewBackend()
	require.NoError(t, backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: env.dataDir}))
	options, err := backend.Options()
	require.NoError(t, err)
	require.NoError(t, options.UpdateOption(context.Background(), "legacy-meta", []byte(`{"7":{"headline":"old"}}`)))
	require.NoError(t, backend.Detach())

	out := env.mustRun(t, "migrate", "--key", "legacy-meta")
	assert.Equal(t, "migrated 1 term(s) from option \"legacy-meta\"\n", out)

	out = env.mustRun(t, "migrate", "--key", "legacy-meta")
	assert.Contains(t, out, "migrated 0 term(s)")
}

func TestMigrate_BlobStorageRefused(t *testing.T) {
	env := newCLIEnv(t)
	s := defaultSettings()
	s.Storage = types.StorageBlob
	env.writeConfig(t, s)

	for _, args := range [][]string{{"migrate"}, {"migrate", "--key", "other-key"}} {
		code, _, errOut := env.run(args...)
		assert.Equal(t, exitUserError, code, args)
		assert.Contains(t, errOut, "switch storage to rows")
	}
}

func TestConfig_InvalidValues(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.WriteFile(paths.ConfigFile(env.configDir), []byte("backend: postgres\n"), 0o644))

	code, _, errOut := env.run("term", "list", "category")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "unknown backend")

	code, _, _ = env.run("--log-level", "loud", "term", "list", "category")
	assert.Equal(t, exitUserError, code)
}

func TestConfig_LogLevelFromEnv(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv(envLogLevel, "debug")

	_, _, errOut := env.run("term", "add", "category", "Logged")
	assert.True(t, strings.Contains(errOut, "level=DEBUG") || strings.Contains(errOut, "level=INFO"), errOut)
}

func TestUnknownCommand(t *testing.T) {
	env := newCLIEnv(t)
	code, _, errOut := env.run("frobnicate")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "unknown command")
}
