package file

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, WriteAtomic(fs, "/cache/nvd/recent.json", []byte("first")))
	require.NoError(t, WriteAtomic(fs, "/cache/nvd/recent.json", []byte("second")))

	got, err := afero.ReadFile(fs, "/cache/nvd/recent.json")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := afero.ReadDir(fs, "/cache/nvd")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should be left behind")
}

func TestExistsAndIsDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/a/dir", 0755))
	require.NoError(t, afero.WriteFile(fs, "/a/file", []byte("x"), 0644))

	assert.True(t, Exists(fs, "/a/file"))
	assert.False(t, Exists(fs, "/a/dir"))
	assert.False(t, Exists(fs, "/a/missing"))

	assert.True(t, IsDir(fs, "/a/dir"))
	assert.False(t, IsDir(fs, "/a/file"))
	assert.False(t, IsDir(fs, "/a/missing"))
}

func TestDigest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f", []byte("hello"), 0644))

	got, err := Digest(fs, "/f")
	require.NoError(t, err)
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", got)

	_, err = Digest(fs, "/missing")
	assert.Error(t, err)
}

func TestGetWriter(t *testing.T) {
	fs := afero.NewMemMapFs()
	var fallback bytes.Buffer

	w, closer, err := GetWriter(fs, &fallback, "  ")
	require.NoError(t, err)
	assert.Same(t, &fallback, w)
	require.NoError(t, closer())

	w, closer, err = GetWriter(fs, &fallback, "/out/RHSA-2020-1234.json")
	require.NoError(t, err)
	_, err = w.Write([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, closer())

	got, err := afero.ReadFile(fs, "/out/RHSA-2020-1234.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))
}
