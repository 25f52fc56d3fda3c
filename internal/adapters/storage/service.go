// Package storage keeps generated export files in S3-compatible object
// storage and hands out presigned download links for them.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL contains the URL and metadata for a presigned download.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExportStore defines the object storage operations used for exports.
type ExportStore interface {
	// UploadExport stores the file under "{folder}/{name}_{suffix}.{ext}" and
	// returns the file key.
	UploadExport(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// GenerateDownloadURL creates a presigned URL for downloading a stored export.
	GenerateDownloadURL(ctx context.Context, fileKey string) (*PresignedURL, error)

	// DeleteObject removes an export.
	DeleteObject(ctx context.Context, fileKey string) error

	// EnsureBucketExists creates the exports bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketExports() string
	GetExportURLExpiry() time.Duration
	IsMinIOEnabled() bool
}
