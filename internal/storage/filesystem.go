package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Mirror receives a copy of every file the FileStore writes.
type Mirror interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// FileStore persists generated media under a root directory. Keys are
// slash-separated paths relative to the root.
type FileStore struct {
	basePath string
	mirror   Mirror
	logger   zerolog.Logger
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if abs, err := filepath.Abs(basePath); err == nil {
		basePath = abs
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath, logger: zerolog.Nop()}, nil
}

// WithMirror attaches an object storage mirror. Mirror failures are logged
// and never fail the local write.
func (s *FileStore) WithMirror(m Mirror, logger zerolog.Logger) *FileStore {
	s.mirror = m
	s.logger = logger.With().Str("component", "storage").Logger()
	return s
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Write stores data at key and returns the absolute path written.
func (s *FileStore) Write(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if s.mirror != nil {
		object, err := s.mirror.Upload(ctx, cleanKey, data, contentType)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", cleanKey).Msg("storage: mirror upload failed")
		} else {
			s.logger.Debug().Str("key", cleanKey).Str("object", object).Msg("storage: mirrored")
		}
	}
	return fullPath, nil
}

// Rel returns the slash-separated key of an absolute path inside the root.
func (s *FileStore) Rel(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	rel, err := filepath.Rel(s.basePath, abs)
	if err != nil {
		return "", fmt.Errorf("storage: %s is outside %s", path, s.basePath)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("storage: %s is outside %s", path, s.basePath)
	}
	return rel, nil
}

// Path returns the absolute path for key without touching the filesystem.
func (s *FileStore) Path(key string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleanKey)), nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
