// Package media stores uploaded photos on disk and hands out HMAC-signed
// download URLs. Uploads arrive as data URIs from the admin forms and are
// persisted before the owning record is written, so a failed upload rejects
// the whole save.
package media

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var extensionsByMIME = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Storage persists files under a base directory.
type Storage struct {
	baseDir string
}

// NewStorage ensures the base directory exists and returns a handle.
func NewStorage(baseDir string) (*Storage, error) {
	if baseDir == "" {
		baseDir = "./media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &Storage{baseDir: baseDir}, nil
}

// IsDataURI reports whether the value looks like an inline data URI rather
// than an already-stored URL.
func IsDataURI(value string) bool {
	return strings.HasPrefix(value, "data:")
}

// SaveDataURI decodes a base64 data URI and stores it under a generated
// name, returning the relative file name.
func (s *Storage) SaveDataURI(dataURI string) (string, error) {
	mime, payload, err := splitDataURI(dataURI)
	if err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode data uri payload: %w", err)
	}
	ext, ok := extensionsByMIME[mime]
	if !ok {
		ext = ".bin"
	}
	name := filepath.Join("photos", uuid.NewString()+ext)
	return name, s.Save(name, data)
}

// Save writes the given bytes to the provided relative path.
func (s *Storage) Save(filename string, data []byte) error {
	path := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write media file: %w", err)
	}
	return nil
}

// Open returns a read-only handle for the stored file.
func (s *Storage) Open(filename string) (*os.File, error) {
	file, err := os.Open(s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *Storage) Delete(filename string) error {
	if err := os.Remove(s.resolve(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media file: %w", err)
	}
	return nil
}

func (s *Storage) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(s.baseDir, filename)
}

func splitDataURI(dataURI string) (mime, payload string, err error) {
	if !IsDataURI(dataURI) {
		return "", "", fmt.Errorf("not a data uri")
	}
	rest := strings.TrimPrefix(dataURI, "data:")
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", fmt.Errorf("malformed data uri")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return "", "", fmt.Errorf("unsupported data uri encoding")
	}
	return strings.TrimSuffix(meta, ";base64"), payload, nil
}
