// backend-go/internal/service/decision_service.go
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/cache"
	"github.com/andresuchdata/decision-intel/backend-go/internal/decision"
	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/andresuchdata/decision-intel/backend-go/internal/events"
	"github.com/andresuchdata/decision-intel/backend-go/internal/ingest"
	"github.com/andresuchdata/decision-intel/backend-go/internal/repository"
	"github.com/andresuchdata/decision-intel/backend-go/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNoData is returned when an analysis is requested without naming a dataset.
var ErrNoData = errors.New("no dataset selected")

// Dataset sources
const (
	SourceUpload = "upload"
	SourceDrive  = "drive"
	SourceFiles  = "files"
)

// IngestRequest is one uploaded transaction file with optional starting stock levels.
type IngestRequest struct {
	Filename     string
	Body         []byte
	InitialStock []byte
}

type DecisionService struct {
	repo          repository.DatasetRepository
	cache         cache.DatasetCache
	storage       storage.ObjectStorage
	publisher     events.Publisher
	engine        *decision.Engine
	now           func() time.Time
	newID         func() string
	archivePrefix string
	workers       int
	datasetTTL    time.Duration
}

type Option func(*DecisionService)

func WithCache(c cache.DatasetCache) Option {
	return func(s *DecisionService) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithStorage archives raw uploads under prefix.
func WithStorage(st storage.ObjectStorage, prefix string) Option {
	return func(s *DecisionService) {
		if st != nil {
			s.storage = st
		}
		s.archivePrefix = prefix
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *DecisionService) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *DecisionService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *DecisionService) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithIngestWorkers bounds how many files are parsed at once.
func WithIngestWorkers(n int) Option {
	return func(s *DecisionService) {
		s.workers = n
	}
}

// WithDatasetTTL sets the age after which PurgeExpired removes datasets.
// Zero keeps datasets forever.
func WithDatasetTTL(ttl time.Duration) Option {
	return func(s *DecisionService) {
		s.datasetTTL = ttl
	}
}

func NewDecisionService(repo repository.DatasetRepository, engine *decision.Engine, opts ...Option) *DecisionService {
	if engine == nil {
		engine = decision.NewEngine(decision.DefaultConfig())
	}
	s := &DecisionService{
		repo:      repo,
		cache:     cache.NewNoopDatasetCache(),
		storage:   storage.NewNoop(),
		publisher: events.NewNoopPublisher(),
		engine:    engine,
		now:       time.Now,
		newID:     uuid.NewString,
		workers:   4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest parses an uploaded file and stores it as a new dataset.
func (s *DecisionService) Ingest(ctx context.Context, req IngestRequest) (*domain.IngestionResult, error) {
	result, err := ingest.ParseBytes(req.Filename, req.Body)
	if err != nil {
		return nil, err
	}

	var stock map[string]int
	if len(req.InitialStock) > 0 {
		stock, err = parseInitialStock(bytes.NewReader(req.InitialStock))
		if err != nil {
			return nil, err
		}
	}

	ds := &domain.Dataset{
		ID:           s.newID(),
		Name:         filepath.Base(req.Filename),
		Source:       SourceUpload,
		Transactions: result.Transactions,
		InitialStock: stock,
		RowsSkipped:  result.RowsSkipped(),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.save(ctx, ds); err != nil {
		return nil, err
	}

	ingestion := newIngestionResult(ds)
	ingestion.ArchivedObjectKey = s.archive(ctx, ds.ID, ds.Name, req.Body)
	return ingestion, nil
}

// IngestFiles parses local files concurrently and stores them as one dataset.
// The merged transactions are archived as a single normalised CSV.
func (s *DecisionService) IngestFiles(ctx context.Context, name, source string, paths []string) (*domain.IngestionResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files to ingest", ErrNoData)
	}
	result, err := ingest.ParseFiles(ctx, paths, s.workers)
	if err != nil {
		return nil, err
	}

	ds := &domain.Dataset{
		ID:           s.newID(),
		Name:         name,
		Source:       source,
		Transactions: result.Transactions,
		RowsSkipped:  result.RowsSkipped(),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.save(ctx, ds); err != nil {
		return nil, err
	}

	ingestion := newIngestionResult(ds)
	var buf bytes.Buffer
	if err := ingest.WriteTransactionsCSV(&buf, ds.Transactions); err != nil {
		log.Warn().Err(err).Str("dataset_id", ds.ID).Msg("decision service: encode transactions failed")
	} else {
		ingestion.ArchivedObjectKey = s.archive(ctx, ds.ID, "transactions.csv", buf.Bytes())
	}
	return ingestion, nil
}

func (s *DecisionService) save(ctx context.Context, ds *domain.Dataset) error {
	if err := s.repo.SaveDataset(ctx, ds); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	if err := s.cache.Set(ctx, ds); err != nil {
		log.Warn().Err(err).Str("dataset_id", ds.ID).Msg("decision service: cache set dataset failed")
	}

	info := ds.Info()
	log.Info().
		Str("dataset_id", ds.ID).
		Str("source", ds.Source).
		Int("transactions", info.TransactionCount).
		Int("products", info.ProductCount).
		Int("rows_skipped", ds.RowsSkipped).
		Msg("decision service: dataset ingested")

	s.publish(ctx, events.DatasetIngestedRoutingKey, events.DatasetIngested{
		DatasetID:          ds.ID,
		Name:               ds.Name,
		Source:             ds.Source,
		RecordsProcessed:   info.TransactionCount,
		ProductsIdentified: info.ProductCount,
		RowsSkipped:        ds.RowsSkipped,
		IngestedAt:         ds.CreatedAt,
	})
	return nil
}

// archive stores the raw upload. Failures are logged and yield an empty key.
func (s *DecisionService) archive(ctx context.Context, id, filename string, body []byte) string {
	key := storage.Key(s.archivePrefix, "uploads", id, filename)
	err := s.storage.UploadObject(ctx, key, body)
	switch {
	case err == nil:
		return key
	case errors.Is(err, storage.ErrDisabled):
	default:
		log.Warn().Err(err).Str("key", key).Msg("decision service: archive upload failed")
	}
	return ""
}

func (s *DecisionService) publish(ctx context.Context, routingKey string, event interface{}) {
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("decision service: publish event failed")
	}
}

func newIngestionResult(ds *domain.Dataset) *domain.IngestionResult {
	info := ds.Info()
	return &domain.IngestionResult{
		Success:             true,
		DatasetID:           ds.ID,
		RecordsProcessed:    info.TransactionCount,
		ProductsIdentified:  info.ProductCount,
		RowsSkipped:         ds.RowsSkipped,
		InitialStockEntries: len(ds.InitialStock),
		Message: fmt.Sprintf("Successfully processed %d transactions for %d products",
			info.TransactionCount, info.ProductCount),
	}
}

func parseInitialStock(r io.Reader) (map[string]int, error) {
	stock, skipped, err := ingest.ParseInitialStock(r)
	if err != nil {
		return nil, fmt.Errorf("initial stock: %w", err)
	}
	for _, rowErr := range skipped {
		log.Warn().Str("reason", rowErr.Reason).Int("row", rowErr.Row).Msg("decision service: initial stock row skipped")
	}
	return stock, nil
}

// SetInitialStock replaces the starting stock levels of a dataset and
// returns how many products received a level.
func (s *DecisionService) SetInitialStock(ctx context.Context, id string, r io.Reader) (int, error) {
	if id == "" {
		return 0, ErrNoData
	}
	stock, err := parseInitialStock(r)
	if err != nil {
		return 0, err
	}
	if err := s.repo.SetInitialStock(ctx, id, stock); err != nil {
		return 0, err
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Warn().Err(err).Str("dataset_id", id).Msg("decision service: cache invalidate failed")
	}
	return len(stock), nil
}

// Dataset loads a dataset, preferring the cache.
func (s *DecisionService) Dataset(ctx context.Context, id string) (*domain.Dataset, error) {
	if id == "" {
		return nil, ErrNoData
	}
	if ds, ok, err := s.cache.Get(ctx, id); err == nil && ok {
		return ds, nil
	} else if err != nil {
		log.Warn().Err(err).Str("dataset_id", id).Msg("decision service: cache get dataset failed")
	}

	ds, err := s.repo.GetDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, ds); err != nil {
		log.Warn().Err(err).Str("dataset_id", id).Msg("decision service: cache set dataset failed")
	}
	return ds, nil
}

// Analyze runs the full decision pipeline over a stored dataset.
func (s *DecisionService) Analyze(ctx context.Context, id string) (decision.Report, error) {
	ds, err := s.Dataset(ctx, id)
	if err != nil {
		return decision.Report{}, err
	}
	return s.engine.Analyze(ds.Transactions, ds.InitialStock, s.now()), nil
}

// Generate produces ranked insights for a dataset and announces them.
func (s *DecisionService) Generate(ctx context.Context, id string) (*domain.DecisionResponse, error) {
	report, err := s.Analyze(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := report.Response()
	resp.DatasetID = id

	critical := make([]string, 0, resp.CriticalActions)
	for _, in := range resp.Insights {
		if in.Priority == domain.RiskCritical {
			critical = append(critical, in.ProductID)
		}
	}
	s.publish(ctx, events.DecisionsGeneratedRoutingKey, events.DecisionsGenerated{
		DatasetID:        id,
		GeneratedAt:      resp.Timestamp,
		TotalInsights:    resp.TotalInsights,
		CriticalActions:  resp.CriticalActions,
		CriticalProducts: critical,
	})

	log.Info().
		Str("dataset_id", id).
		Int("insights", resp.TotalInsights).
		Int("critical", resp.CriticalActions).
		Msg("decision service: decisions generated")
	return &resp, nil
}

func (s *DecisionService) Risks(ctx context.Context, id string) ([]domain.InventoryRisk, error) {
	report, err := s.Analyze(ctx, id)
	if err != nil {
		return nil, err
	}
	return report.Risks, nil
}

func (s *DecisionService) SlowMovers(ctx context.Context, id string) ([]domain.SlowMovingProduct, error) {
	report, err := s.Analyze(ctx, id)
	if err != nil {
		return nil, err
	}
	return report.SlowMovers, nil
}

func (s *DecisionService) Reorders(ctx context.Context, id string) ([]domain.ReorderRecommendation, error) {
	report, err := s.Analyze(ctx, id)
	if err != nil {
		return nil, err
	}
	return report.Reorders, nil
}

func (s *DecisionService) Summary(ctx context.Context, id string) (*domain.DecisionSummary, error) {
	report, err := s.Analyze(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := report.Summary()
	return &summary, nil
}

func (s *DecisionService) Datasets(ctx context.Context, limit int) ([]domain.DatasetInfo, error) {
	return s.repo.ListDatasets(ctx, limit)
}

func (s *DecisionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteDataset(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Warn().Err(err).Str("dataset_id", id).Msg("decision service: cache invalidate failed")
	}
	return nil
}

// PurgeExpired deletes datasets older than the configured TTL.
func (s *DecisionService) PurgeExpired(ctx context.Context) (int, error) {
	if s.datasetTTL <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.datasetTTL)
	n, err := s.repo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge datasets: %w", err)
	}
	if n > 0 {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			log.Warn().Err(err).Msg("decision service: cache invalidate all failed")
		}
		log.Info().Int("deleted", n).Time("cutoff", cutoff).Msg("decision service: expired datasets purged")
	}
	return n, nil
}
