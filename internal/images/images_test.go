package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufonorm/internal/plist"
)

func TestStoreReadRoundTrip(t *testing.T) {
	refs := References{
		"A_.glif": "a.png",
		"B_.glif": "b.png",
	}
	lib := plist.Dict{}
	Store(lib, refs)

	loaded, ok := Read(lib)
	require.True(t, ok)
	assert.Equal(t, refs, loaded)
}

func TestReadMissingTable(t *testing.T) {
	_, ok := Read(plist.Dict{})
	assert.False(t, ok, "an absent table must force a full layer pass")
}

func TestReadSkipsNonStringEntries(t *testing.T) {
	lib := plist.Dict{
		LibKey: plist.Dict{
			"A_.glif": plist.String("a.png"),
			"B_.glif": plist.Integer(7),
		},
	}
	refs, ok := Read(lib)
	require.True(t, ok)
	assert.Equal(t, References{"A_.glif": "a.png"}, refs)
}

func TestFileNames(t *testing.T) {
	refs := References{
		"A_.glif": "shared.png",
		"B_.glif": "shared.png",
		"C_.glif": "c.png",
	}
	assert.Equal(t, map[string]bool{"shared.png": true, "c.png": true}, refs.FileNames())
}

func TestListDirectory(t *testing.T) {
	ufoPath := t.TempDir()
	imagesDir := filepath.Join(ufoPath, "images")
	require.NoError(t, os.Mkdir(imagesDir, 0755))
	for _, name := range []string{"a.png", "b.PNG", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(imagesDir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(imagesDir, "sub.png"), 0755))

	onDisk, err := ListDirectory(ufoPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a.png": true, "b.PNG": true}, onDisk)
}

func TestListDirectoryMissing(t *testing.T) {
	onDisk, err := ListDirectory(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, onDisk)
}

func TestOrphaned(t *testing.T) {
	onDisk := map[string]bool{"a.png": true, "b.png": true, "c.png": true}
	referenced := map[string]bool{"b.png": true, "d.png": true}
	assert.Equal(t, []string{"a.png", "c.png"}, Orphaned(onDisk, referenced))
}

func TestPurge(t *testing.T) {
	ufoPath := t.TempDir()
	imagesDir := filepath.Join(ufoPath, "images")
	require.NoError(t, os.Mkdir(imagesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "a.png"), []byte("x"), 0644))

	// Purging a file that is already gone is not an error.
	require.NoError(t, Purge(ufoPath, []string{"a.png", "missing.png"}))

	_, err := os.Lstat(filepath.Join(imagesDir, "a.png"))
	assert.True(t, os.IsNotExist(err))
}
