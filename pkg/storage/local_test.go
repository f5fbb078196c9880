package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basterrika/wp-image-optimizer/internal/domain"
)

func newStore(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)
	return s, dir
}

func TestUniquePathNoCollision(t *testing.T) {
	s, dir := newStore(t)
	require.Equal(t, filepath.Join(dir, "photo.webp"), s.UniquePath(dir, "photo.webp"))
}

func TestUniquePathAppendsSuffixes(t *testing.T) {
	s, dir := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.webp"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo-1.webp"), []byte("b"), 0644))

	require.Equal(t, filepath.Join(dir, "photo-2.webp"), s.UniquePath(dir, "photo.webp"))
}

func TestSaveUpload(t *testing.T) {
	s, dir := newStore(t)

	src := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(src, []byte("image bytes"), 0644))
	f, err := os.Open(src)
	require.NoError(t, err)
	defer f.Close()

	up, err := s.SaveUpload(f, "Summer Photo (1).PNG", domain.MimePNG)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "summer-photo-1.png"), up.Path)
	require.Equal(t, domain.MimePNG, up.MimeType)
	require.Equal(t, "http://localhost:8080/uploads/summer-photo-1.png", up.URL)
	require.FileExists(t, up.Path)
}

func TestSaveUploadCollidingNames(t *testing.T) {
	s, _ := newStore(t)

	src := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(src, []byte("image bytes"), 0644))

	var paths []string
	for i := 0; i < 2; i++ {
		f, err := os.Open(src)
		require.NoError(t, err)
		up, err := s.SaveUpload(f, "cat.png", domain.MimePNG)
		f.Close()
		require.NoError(t, err)
		paths = append(paths, up.Path)
	}

	require.NotEqual(t, paths[0], paths[1])
	require.FileExists(t, paths[0])
	require.FileExists(t, paths[1])
}

func TestDelete(t *testing.T) {
	s, dir := newStore(t)
	path := filepath.Join(dir, "gone.webp")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	require.NoError(t, s.Delete(path))
	require.NoFileExists(t, path)

	err := s.Delete(path)
	require.ErrorIs(t, err, domain.ErrDeleteFailed)
}

func TestPublicURL(t *testing.T) {
	s, dir := newStore(t)
	require.Equal(t, "http://localhost:8080/uploads/a.webp", s.PublicURL(filepath.Join(dir, "a.webp")))
}
