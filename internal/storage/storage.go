package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/andresuchdata/decision-intel/backend-go/internal/config"
)

// ErrDisabled is returned by the no-op storage.
var ErrDisabled = errors.New("object storage is disabled")

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations used for
// archiving uploads and fetching transaction files.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// New builds the configured storage. Disabled storage yields a no-op implementation.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	if !cfg.Enabled {
		return NewNoop(), nil
	}

	switch cfg.Driver {
	case config.StorageDriverLocal:
		return NewLocalStorage(cfg.LocalDir)
	case config.StorageDriverS3, "":
		return NewMinioStorage(ctx, MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Key joins parts into an object key without leading or duplicate slashes.
func Key(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return path.Join(cleaned...)
}

type noopStorage struct{}

func NewNoop() ObjectStorage {
	return noopStorage{}
}

func (noopStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	return nil, ErrDisabled
}

func (noopStorage) DownloadObject(ctx context.Context, key string, destPath string) error {
	return ErrDisabled
}

func (noopStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	return ErrDisabled
}
