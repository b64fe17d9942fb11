package manifest

import (
	"crypto/sha512"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFileRepository_LoadMissing returns ErrNotFound before the first save.
func TestFileRepository_LoadMissing(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "dgfx-1.0.yaml"))

	_, err := repo.Load()
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileRepository_SaveLoad persists a manifest and reads it back.
func TestFileRepository_SaveLoad(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), Filename("dgfx", "1.0")))

	m := New("dgfx", "1.0", []string{"dgfxpy"})
	m.Mode = "build"
	m.NativeSourceDir = "."
	m.AddFile(filepath.Join("dgfxpy", "__init__.py"), []byte{1, 2, 3})

	require.NoError(t, repo.Save(m))

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Equal(t, m, loaded)
	require.Equal(t, []string{"dgfxpy/__init__.py"}, loaded.Paths())
}

// TestFileRepository_SaveNil rejects a nil manifest.
func TestFileRepository_SaveNil(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "m.yaml"))
	require.ErrorIs(t, repo.Save(nil), errManifestIsNil)
}

// TestFileRepository_LoadCorrupt surfaces decode errors.
func TestFileRepository_LoadCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "m.yaml")
	require.NoError(t, os.WriteFile(path, []byte("files: [oops"), 0o600))

	_, err := NewFileRepository(path).Load()
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

// TestFileChecksum matches a direct SHA-512 of the contents.
func TestFileChecksum(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lib.so")
	require.NoError(t, os.WriteFile(path, []byte("native"), 0o600))

	got, err := FileChecksum(path)
	require.NoError(t, err)

	want := sha512.Sum512([]byte("native"))
	require.Equal(t, want[:], got)

	m := New("dgfx", "1.0", nil)
	m.AddFile("lib.so", got)
	require.Equal(t, base64.StdEncoding.EncodeToString(want[:]), m.Files["lib.so"])

	_, err = FileChecksum(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestPathsSorted returns paths in lexical order.
func TestPathsSorted(t *testing.T) {
	t.Parallel()

	var m Manifest

	m.AddFile("b", nil)
	m.AddFile("a", nil)
	require.Equal(t, []string{"a", "b"}, m.Paths())
}
