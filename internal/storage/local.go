package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	cmstorage "github.com/chartmuseum/storage"
)

// LocalStorage implements ObjectStorage on a directory tree, for single-host
// deployments and development.
type LocalStorage struct {
	root    string
	backend *cmstorage.LocalFilesystemBackend
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage directory must be provided")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed creating storage directory %s: %w", root, err)
	}
	return &LocalStorage{
		root:    root,
		backend: cmstorage.NewLocalFilesystemBackend(root),
	}, nil
}

// ListObjects lists the files directly under prefix.
func (s *LocalStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects, err := s.backend.ListObjects(prefix)
	if err != nil {
		return nil, fmt.Errorf("local list failed: %w", err)
	}

	results := make([]ObjectInfo, 0, len(objects))
	for _, object := range objects {
		key := path.Join(prefix, object.Path)
		var size int64
		if info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(key))); err == nil {
			size = info.Size()
		}
		results = append(results, ObjectInfo{Key: key, Size: size})
	}
	return results, nil
}

// DownloadObject copies an object to the provided destination path.
func (s *LocalStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	object, err := s.backend.GetObject(key)
	if err != nil {
		return fmt.Errorf("local get of %s failed: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed creating directory for %s: %w", destPath, err)
	}
	if err := os.WriteFile(destPath, object.Content, 0o644); err != nil {
		return fmt.Errorf("failed writing %s: %w", destPath, err)
	}
	return nil
}

func (s *LocalStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	if err := s.backend.PutObject(key, data); err != nil {
		return fmt.Errorf("local put of %s failed: %w", key, err)
	}
	return nil
}

var _ ObjectStorage = (*LocalStorage)(nil)
