package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/andresuchdata/decision-intel/backend-go/internal/drive"
	"github.com/rs/zerolog/log"
)

const defaultJobTimeout = 10 * time.Minute

// PurgeJob removes expired datasets on a schedule.
type PurgeJob struct {
	svc     *DecisionService
	timeout time.Duration
}

func NewPurgeJob(svc *DecisionService) *PurgeJob {
	return &PurgeJob{svc: svc, timeout: defaultJobTimeout}
}

func (j *PurgeJob) Name() string { return "purge_expired_datasets" }

func (j *PurgeJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.svc.PurgeExpired(ctx)
	return err
}

// FolderDownloader fetches the transaction files of a remote folder.
type FolderDownloader interface {
	DownloadFolder(ctx context.Context, opts drive.DownloadOptions) ([]string, error)
}

// IngestOutcome pairs an ingestion result with the files it came from.
type IngestOutcome struct {
	Files  []string
	Result *domain.IngestionResult
}

// DriveSyncJob pulls every transaction file from a Drive folder and stores
// them together as one dataset.
type DriveSyncJob struct {
	svc        *DecisionService
	downloader FolderDownloader
	opts       drive.DownloadOptions
	timeout    time.Duration
}

func NewDriveSyncJob(svc *DecisionService, downloader FolderDownloader, opts drive.DownloadOptions) *DriveSyncJob {
	return &DriveSyncJob{svc: svc, downloader: downloader, opts: opts, timeout: defaultJobTimeout}
}

func (j *DriveSyncJob) Name() string { return "drive_sync" }

func (j *DriveSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.Sync(ctx)
	return err
}

// Sync downloads and ingests the folder. It returns nil without error when
// the folder holds no supported files.
func (j *DriveSyncJob) Sync(ctx context.Context) (*IngestOutcome, error) {
	paths, err := j.downloader.DownloadFolder(ctx, j.opts)
	if err != nil {
		return nil, fmt.Errorf("drive sync: %w", err)
	}
	if len(paths) == 0 {
		log.Info().Str("folder_id", j.opts.FolderID).Msg("drive sync: no transaction files found")
		return nil, nil
	}

	name := fmt.Sprintf("drive-%s", j.svc.now().UTC().Format("20060102-150405"))
	result, err := j.svc.IngestFiles(ctx, name, SourceDrive, paths)
	if err != nil {
		return nil, fmt.Errorf("drive sync: %w", err)
	}
	return &IngestOutcome{Files: paths, Result: result}, nil
}
