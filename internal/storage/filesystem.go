package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// FilesystemStore stores images on the local filesystem. The public URL is
// the configured base URL joined with the key, so the directory is expected
// to be served by a static file server or reverse proxy.
type FilesystemStore struct {
	baseDir string
	baseURL string
	logger  zerolog.Logger
}

var _ ImageStore = (*FilesystemStore)(nil)

// NewFilesystemStore creates a filesystem-backed image store rooted at
// baseDir.
func NewFilesystemStore(baseDir, baseURL string, logger zerolog.Logger) (*FilesystemStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	return &FilesystemStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "image-store").Str("backend", "filesystem").Logger(),
	}, nil
}

// Put writes the image to a temporary file and renames it into place, so a
// partial write never leaves a truncated image behind.
func (s *FilesystemStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	dest := filepath.Join(s.baseDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to finalize image: %w", err)
	}

	s.logger.Debug().Str("key", key).Str("content_type", contentType).Msg("image stored")

	return s.baseURL + "/" + key, nil
}

// Delete removes a stored image.
func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	dest := filepath.Join(s.baseDir, filepath.FromSlash(key))

	if err := os.Remove(dest); err != nil {
		if os.IsNotExist(err) {
			return ErrImageNotFound
		}
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}
