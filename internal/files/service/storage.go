package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	apperrors "github.com/guardianlk/guardian/internal/errors"
)

// Upload limits enforced by the HTTP layer.
const (
	MaxUploadBytes = 5 * 1024 * 1024
	MIMEJPEG       = "image/jpeg"
	MIMEPNG        = "image/png"
)

// fileIDRe constrains lookups to ids this storage could have generated,
// which also blocks path traversal through a crafted id.
var fileIDRe = regexp.MustCompile(`^[0-9a-f]{32}$`)

// StoredFile describes a file found on disk.
type StoredFile struct {
	FullPath string
	MIME     string
	Ext      string
}

// Storage keeps uploaded files on disk outside any public/static directory,
// named by random hex id plus extension. Content addressing and existence
// checks live here; content-type is inferred from the extension.
type Storage struct {
	dir string
}

// NewStorage creates the upload directory if needed.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, "failed to create upload directory")
	}
	return &Storage{dir: dir}, nil
}

// Save writes content under a fresh random id. mime must be image/jpeg or
// image/png; the extension follows the mime type.
func (s *Storage) Save(content []byte, mime string) (id, ext string, err error) {
	switch mime {
	case MIMEJPEG:
		ext = ".jpg"
	case MIMEPNG:
		ext = ".png"
	default:
		return "", "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unsupported content type %q", mime))
	}

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate file id")
	}
	id = hex.EncodeToString(raw)

	if err := os.WriteFile(filepath.Join(s.dir, id+ext), content, 0o600); err != nil {
		return "", "", apperrors.Wrap(err, "failed to write file")
	}

	return id, ext, nil
}

// Find locates a stored file by id, trying the jpg then png variant.
// Returns ErrNotFound when neither exists or the id is not one this storage
// could have produced.
func (s *Storage) Find(fileID string) (*StoredFile, error) {
	if !fileIDRe.MatchString(fileID) {
		return nil, apperrors.ErrNotFound
	}

	candidates := []struct {
		ext  string
		mime string
	}{
		{".jpg", MIMEJPEG},
		{".png", MIMEPNG},
	}

	for _, c := range candidates {
		fullPath := filepath.Join(s.dir, fileID+c.ext)
		if _, err := os.Stat(fullPath); err == nil {
			return &StoredFile{FullPath: fullPath, MIME: c.mime, Ext: c.ext}, nil
		}
	}

	return nil, apperrors.ErrNotFound
}
