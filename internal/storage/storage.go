// Package storage provides artifact upload backends: S3 when configured,
// a local directory otherwise.
// This package is internal and should not be imported by external projects.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Uploader stores one artifact under a deterministic asset id and returns
// the URL it is reachable at. Uploads are idempotent: re-uploading the same
// asset id overwrites the same object, which makes job redelivery safe.
type Uploader interface {
	Upload(ctx context.Context, assetID string, body []byte, contentType string) (string, error)
}

// LocalUploader writes artifacts into a directory served by the API under
// /storage/. Used in development and as the no-S3 fallback.
type LocalUploader struct {
	dir    string
	logger *zap.Logger
}

// NewLocalUploader creates an uploader rooted at dir.
func NewLocalUploader(dir string, logger *zap.Logger) *LocalUploader {
	return &LocalUploader{
		dir:    dir,
		logger: logger.With(zap.String("component", "storage.local")),
	}
}

// Upload writes body to <dir>/<assetID> and returns /storage/<assetID>.
func (u *LocalUploader) Upload(_ context.Context, assetID string, body []byte, _ string) (string, error) {
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage dir: %w", err)
	}
	path := filepath.Join(u.dir, assetID)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	u.logger.Debug("artifact stored locally",
		zap.String("asset_id", assetID),
		zap.Int("bytes", len(body)),
	)
	return "/storage/" + assetID, nil
}
