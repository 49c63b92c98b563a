package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// localStorage implements FileStorage on the local file system. Files are
// served by the router under the base URL.
type localStorage struct {
	dir     string
	baseURL string
	logger  zerolog.Logger
}

// NewLocalStorage creates a file-system storage rooted at dir.
func NewLocalStorage(dir, baseURL string, logger zerolog.Logger) (FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &localStorage{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "local-storage").Logger(),
	}, nil
}

// SaveFile writes content to dir/container with a random name.
func (s *localStorage) SaveFile(_ context.Context, content []byte, extension, container string) (string, error) {
	folder := filepath.Join(s.dir, container)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create container %s: %w", container, err)
	}

	name := newObjectName(extension)
	if err := os.WriteFile(filepath.Join(folder, name), content, 0o644); err != nil {
		s.logger.Error().Err(err).Str("container", container).Msg("failed to write file")
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.baseURL + "/" + container + "/" + name, nil
}

// RemoveFile deletes the file behind url. Missing files are ignored.
func (s *localStorage) RemoveFile(_ context.Context, url, container string) error {
	prefix := s.baseURL + "/" + container + "/"
	if !strings.HasPrefix(url, prefix) {
		s.logger.Warn().Str("url", url).Msg("url does not belong to this storage, nothing removed")
		return nil
	}

	name := strings.TrimPrefix(url, prefix)
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, container, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
