package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepcode-ai/deepcode/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestInitCreatesLocalConfigAndGitignore(t *testing.T) {
	dir := t.TempDir()
	res, err := Init(dir)
	require.NoError(t, err)
	assert.True(t, res.ConfigCreated)
	assert.True(t, res.GitignoreUpdated)

	local, err := config.ParseLocal(res.ConfigPath)
	require.NoError(t, err)
	assert.Contains(t, local.IgnorePatterns, ".deepcode")

	gi, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(gi), "# DeepCode\n.deepcode/\n")
}

func TestInitIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "node_modules")
	_, err := Init(dir)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "node_modules\n\n# DeepCode\n.deepcode/\n", string(first))

	writeFile(t, filepath.Join(dir, ".deepcode", "config.yaml"), "project:\n  name: mine\n")
	res, err := Init(dir)
	require.NoError(t, err)
	assert.False(t, res.ConfigCreated)
	assert.False(t, res.GitignoreUpdated)

	second, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	kept, err := os.ReadFile(filepath.Join(dir, ".deepcode", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "project:\n  name: mine\n", string(kept))
}

func TestInitRejectsMissingDir(t *testing.T) {
	_, err := Init(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
	_, err = Init("")
	assert.Error(t, err)
}

func TestInspectHonoursIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.py"), "")
	writeFile(t, filepath.Join(dir, "pkg", "util.py"), "")
	writeFile(t, filepath.Join(dir, "pkg", "util.pyc"), "")
	writeFile(t, filepath.Join(dir, "web", "app.js"), "")
	writeFile(t, filepath.Join(dir, "web", "node_modules", "dep", "index.js"), "")
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "")
	writeFile(t, filepath.Join(dir, "Makefile"), "")

	st, err := Inspect(dir, config.Default())
	require.NoError(t, err)
	assert.False(t, st.Initialized)
	assert.Equal(t, 4, st.Files)
	assert.Equal(t, 2, st.ByExt[".py"])
	assert.Equal(t, 1, st.ByExt[".js"])
	assert.Equal(t, 1, st.ByExt["(none)"])
	assert.Equal(t, []string{".py", "(none)"}, st.TopExtensions(2))

	_, err = Init(dir)
	require.NoError(t, err)
	st, err = Inspect(dir, config.Default())
	require.NoError(t, err)
	assert.True(t, st.Initialized)
}
