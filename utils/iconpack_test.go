package utils

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pack.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestExtractIconPack(t *testing.T) {
	t.Run("extracts files and directories", func(t *testing.T) {
		src := writeZip(t, map[string]string{
			"manifest.json":      `{"icons":{}}`,
			"icons/streak_3.png": "png-bytes",
		})
		dest := t.TempDir()

		require.NoError(t, ExtractIconPack(src, dest))

		data, err := os.ReadFile(filepath.Join(dest, "icons", "streak_3.png"))
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))
	})

	t.Run("rejects path traversal entries", func(t *testing.T) {
		src := writeZip(t, map[string]string{
			"../escape.png": "bad",
		})
		err := ExtractIconPack(src, t.TempDir())
		assert.ErrorContains(t, err, "illegal file path")
	})

	t.Run("rejects a non-zip file", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "not-a-zip.zip")
		require.NoError(t, os.WriteFile(src, []byte("plain text"), 0o644))
		assert.Error(t, ExtractIconPack(src, t.TempDir()))
	})
}

func TestResolveWithin(t *testing.T) {
	root := t.TempDir()

	t.Run("plain relative path resolves inside root", func(t *testing.T) {
		got, err := ResolveWithin(root, "icons/streak_3.png")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "icons", "streak_3.png"), got)
	})

	t.Run("traversal entries are rejected", func(t *testing.T) {
		for _, rel := range []string{
			"../../../../etc/passwd",
			"..",
			"icons/../../escape.png",
		} {
			_, err := ResolveWithin(root, rel)
			assert.ErrorContains(t, err, "illegal file path", "rel=%q", rel)
		}
	})

	t.Run("dot segments that stay inside are fine", func(t *testing.T) {
		got, err := ResolveWithin(root, "icons/../streak_3.png")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "streak_3.png"), got)
	})
}

func TestFindManifest(t *testing.T) {
	t.Run("finds manifest nested under a wrapping directory", func(t *testing.T) {
		root := t.TempDir()
		nested := filepath.Join(root, "pack-v1")
		require.NoError(t, os.MkdirAll(nested, 0o755))
		want := filepath.Join(nested, "manifest.json")
		require.NoError(t, os.WriteFile(want, []byte("{}"), 0o644))

		got, err := FindManifest(root)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing manifest reports not exist", func(t *testing.T) {
		_, err := FindManifest(t.TempDir())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
