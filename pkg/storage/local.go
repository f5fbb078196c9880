package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/basterrika/wp-image-optimizer/internal/domain"
	"github.com/basterrika/wp-image-optimizer/pkg/utils"
)

// maxSuffixProbes bounds the -1, -2, ... collision probing before
// falling back to a UUID suffix.
const maxSuffixProbes = 10000

// LocalStorage keeps uploads on the local filesystem and builds their
// public URLs from a configured base.
type LocalStorage struct {
	baseDir   string
	publicURL string
}

func NewLocalStorage(baseDir, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %q: %w", baseDir, err)
	}
	return &LocalStorage{
		baseDir:   baseDir,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// SaveUpload writes a multipart file under a slugified, collision-free
// name and returns the upload descriptor handed to the converter.
func (s *LocalStorage) SaveUpload(file multipart.File, originalName, contentType string) (domain.Upload, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	stem := utils.GenerateSlug(strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName)))
	if stem == "" {
		stem = uuid.New().String()
	}

	path := s.UniquePath(s.baseDir, stem+ext)

	dst, err := os.Create(path)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("failed to create %q: %w", path, err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		return domain.Upload{}, fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return domain.Upload{}, fmt.Errorf("failed to write %q: %w", path, err)
	}

	return domain.Upload{
		Path:     path,
		MimeType: contentType,
		URL:      s.PublicURL(path),
	}, nil
}

// UniquePath returns a path in dir for name that does not collide with
// an existing file: name.webp, name-1.webp, name-2.webp, ...
func (s *LocalStorage) UniquePath(dir, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	if !exists(candidate) {
		return candidate
	}
	for i := 1; i <= maxSuffixProbes; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if !exists(candidate) {
			return candidate
		}
	}
	// Pathological directory; a UUID suffix cannot realistically collide.
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", stem, uuid.New().String(), ext))
}

// Delete removes a stored file. Callers treat failures as best-effort.
func (s *LocalStorage) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeleteFailed, err)
	}
	return nil
}

// PublicURL maps a stored file path to its public address.
func (s *LocalStorage) PublicURL(path string) string {
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return s.publicURL + "/" + filepath.ToSlash(rel)
}

// BaseDir exposes the root the storage writes under.
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
