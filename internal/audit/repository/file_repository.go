// Package repository provides audit record persistence: an append-only JSONL
// file store (the default) and an insert-only PostgreSQL store.
package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
	apperrors "github.com/guardianlk/guardian/internal/errors"
)

// FileRepository appends audit records to a newline-delimited JSON log file.
//
// Each record is marshaled and written as a single Write call under a mutex,
// so concurrent writers interleave whole lines, never fragments of two
// records. No cross-record ordering is guaranteed beyond that. Records are
// never rewritten or deleted by this layer.
type FileRepository struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileRepository opens (creating if needed) the audit log file in
// append-only mode.
func NewFileRepository(path string) (*FileRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.Wrap(err, "failed to create audit log directory")
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open audit log file")
	}

	return &FileRepository{file: file}, nil
}

// Create appends one record as a single JSON line.
func (f *FileRepository) Create(ctx context.Context, rec *auditDomain.Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit record")
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	// One write per record keeps the line atomic with respect to other
	// writers sharing this repository.
	if _, err := f.file.Write(line); err != nil {
		return apperrors.Wrap(err, "failed to append audit record")
	}

	return nil
}

// Close releases the underlying file handle.
func (f *FileRepository) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}
