package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
)

type memoryDatasetRepository struct {
	mu       sync.RWMutex
	datasets map[string]*domain.Dataset
}

// NewMemoryDatasetRepository returns a process-local repository.
func NewMemoryDatasetRepository() DatasetRepository {
	return &memoryDatasetRepository{datasets: make(map[string]*domain.Dataset)}
}

func (r *memoryDatasetRepository) SaveDataset(ctx context.Context, ds *domain.Dataset) error {
	if ds == nil || ds.ID == "" {
		return errors.New("dataset id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[ds.ID] = ds.Clone()
	return nil
}

func (r *memoryDatasetRepository) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.datasets[id]
	if !ok {
		return nil, ErrDatasetNotFound
	}
	return ds.Clone(), nil
}

func (r *memoryDatasetRepository) ListDatasets(ctx context.Context, limit int) ([]domain.DatasetInfo, error) {
	r.mu.RLock()
	infos := make([]domain.DatasetInfo, 0, len(r.datasets))
	for _, ds := range r.datasets {
		infos = append(infos, ds.Info())
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})

	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

func (r *memoryDatasetRepository) DeleteDataset(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.datasets[id]; !ok {
		return ErrDatasetNotFound
	}
	delete(r.datasets, id)
	return nil
}

func (r *memoryDatasetRepository) SetInitialStock(ctx context.Context, id string, stock map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.datasets[id]
	if !ok {
		return ErrDatasetNotFound
	}
	copied := make(map[string]int, len(stock))
	for k, v := range stock {
		copied[k] = v
	}
	ds.InitialStock = copied
	return nil
}

func (r *memoryDatasetRepository) DeleteCreatedBefore(ctx context.Context, t time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, ds := range r.datasets {
		if ds.CreatedAt.Before(t) {
			delete(r.datasets, id)
			removed++
		}
	}
	return removed, nil
}
