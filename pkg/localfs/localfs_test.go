package localfs

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, content, 0o600))
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func urls(c *Collection) []string {
	out := []string{}
	for _, r := range c.Resources {
		out = append(out, r.URL())
	}
	return out
}

func TestCollectDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.js"), []byte(`fetch("/api/users")`))
	writeFile(t, filepath.Join(dir, "config.json"), []byte(`{"k":"v"}`))
	writeFile(t, filepath.Join(dir, "logo.png"), pngHeader)
	writeFile(t, filepath.Join(dir, "node_modules", "lib", "index.js"), []byte(`"/api/hidden"`))
	writeFile(t, filepath.Join(dir, "vendor", "x.js"), []byte(`"/api/hidden"`))

	c, err := Collect([]string{dir}, DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, []string{filepath.Join(dir, "app.js"), filepath.Join(dir, "config.json")}, urls(c))
	assert.Contains(t, c.Resources[0].MimeType(), "javascript")
	assert.Contains(t, c.Resources[1].MimeType(), "json")

	content, err := c.Resources[0].FetchContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `fetch("/api/users")`, content)
}

func TestCollectSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.mjs")
	writeFile(t, path, []byte(`export const u = "/v1/items"`))

	c, err := Collect([]string{path}, DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, []string{path}, urls(c))
}

func TestCollectMissingPath(t *testing.T) {
	_, err := Collect([]string{filepath.Join(t.TempDir(), "nope")}, DefaultOptions())
	assert.ErrorContains(t, err, "cannot scan")
}

func TestCollectArchives(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.zip"), zipBytes(t, map[string]string{
		"static/main.js":      `axios.get("/api/orders")`,
		"node_modules/a/b.js": `"/api/ignored"`,
	}))
	writeFile(t, filepath.Join(dir, "renamed.bin"), zipBytes(t, map[string]string{
		"inner.js": `"/api/renamed"`,
	}))

	c, err := Collect([]string{dir}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "renamed.bin") + "!/inner.js",
		filepath.Join(dir, "site.zip") + "!/static/main.js",
	}, urls(c))

	content, err := c.Resources[1].FetchContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `axios.get("/api/orders")`, content)

	require.NoError(t, c.Close())
	_, err = c.Resources[1].FetchContent(context.Background())
	assert.Error(t, err, "extracted files are removed on Close")
}

func TestCollectArchivesDisabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.zip"), zipBytes(t, map[string]string{"main.js": `"/api/x"`}))

	c, err := Collect([]string{dir}, Options{Archives: false})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Empty(t, c.Resources)
}

func TestFetchContentCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.js")
	writeFile(t, path, []byte("x"))
	f := &File{path: path, name: path}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchContent(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
