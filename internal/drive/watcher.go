package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// FileSource is the part of Drive the downloader needs.
type FileSource interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
	ExportSpreadsheet(ctx context.Context, fileID string, w io.Writer) error
}

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader wraps a FileSource to download transaction files from a folder.
type Downloader struct {
	source FileSource
}

// NewDownloader creates a new Downloader.
func NewDownloader(source FileSource) *Downloader {
	return &Downloader{source: source}
}

// DownloadFolder downloads all CSV and XLSX files of the folder into
// DownloadDir and returns their local paths in listing order. Native Google
// Sheets are exported as XLSX; anything else is ignored.
func (d *Downloader) DownloadFolder(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.source.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var (
			name     = filepath.Base(f.Name)
			download func(context.Context, string, io.Writer) error
		)
		switch ext := strings.ToLower(filepath.Ext(name)); {
		case f.IsSpreadsheet():
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ".xlsx"
			download = d.source.ExportSpreadsheet
		case ext == ".csv" || ext == ".xlsx":
			download = d.source.DownloadFile
		default:
			log.Debug().Str("file", f.Name).Str("mime_type", f.MimeType).Msg("drive: skipping unsupported file")
			continue
		}

		localPath := filepath.Join(opts.DownloadDir, name)
		if err := downloadTo(ctx, localPath, f.ID, download); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

func downloadTo(ctx context.Context, localPath, fileID string, download func(context.Context, string, io.Writer) error) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := download(ctx, fileID, out); err != nil {
		out.Close()
		_ = os.Remove(localPath)
		return err
	}
	return out.Close()
}
