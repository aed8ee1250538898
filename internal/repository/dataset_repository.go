// backend-go/internal/repository/dataset_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
)

var ErrDatasetNotFound = errors.New("dataset not found")

// DatasetRepository persists uploaded datasets. Implementations return copies;
// a dataset read back is never shared with another caller.
type DatasetRepository interface {
	SaveDataset(ctx context.Context, ds *domain.Dataset) error
	GetDataset(ctx context.Context, id string) (*domain.Dataset, error)
	// ListDatasets returns metadata newest first. A non-positive limit returns all.
	ListDatasets(ctx context.Context, limit int) ([]domain.DatasetInfo, error)
	DeleteDataset(ctx context.Context, id string) error
	// SetInitialStock replaces the starting stock levels of a dataset.
	SetInitialStock(ctx context.Context, id string, stock map[string]int) error
	// DeleteCreatedBefore removes datasets created before t and reports how many went.
	DeleteCreatedBefore(ctx context.Context, t time.Time) (int, error)
}
