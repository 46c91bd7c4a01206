// Package storage manages dataset files and model artifacts on local
// disk, with optional archival to S3-compatible object storage.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archiver uploads a model artifact directory to remote object storage.
type Archiver interface {
	ArchiveDirectory(ctx context.Context, localPath, keyPrefix string) (string, error)
}

// Local manages the on-disk layout:
//
//	<dataDir>/uploads/<userID>/<datasetID>.json
//	<dataDir>/models/<jobID>/
type Local struct {
	dataDir string
}

// NewLocal creates the storage root directories if needed.
func NewLocal(dataDir string) (*Local, error) {
	for _, dir := range []string{
		filepath.Join(dataDir, "uploads"),
		filepath.Join(dataDir, "models"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &Local{dataDir: dataDir}, nil
}

// SaveResult describes a stored dataset file.
type SaveResult struct {
	Path        string
	Size        int64
	ContentHash string // SHA256 hex
}

// SaveDataset streams an uploaded dataset file to disk, hashing as it
// writes. The caller owns cleanup on later validation failure.
func (l *Local) SaveDataset(userID, datasetID string, r io.Reader) (*SaveResult, error) {
	dir := filepath.Join(l.dataDir, "uploads", userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create user upload dir: %w", err)
	}

	path := filepath.Join(dir, datasetID+".json")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create dataset file: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hasher), r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write dataset file: %w", err)
	}

	return &SaveResult{
		Path:        path,
		Size:        size,
		ContentHash: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// OpenDataset opens a stored dataset file for reading.
func (l *Local) OpenDataset(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	return f, nil
}

// RemoveDataset deletes a stored dataset file. Missing files are not
// an error; the row is already gone by the time this runs.
func (l *Local) RemoveDataset(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove dataset file: %w", err)
	}
	return nil
}

// ModelDir returns the artifact directory for a training job.
func (l *Local) ModelDir(jobID string) string {
	return filepath.Join(l.dataDir, "models", jobID)
}

// RemoveModelDir deletes a model artifact directory.
func (l *Local) RemoveModelDir(jobID string) error {
	return os.RemoveAll(l.ModelDir(jobID))
}
