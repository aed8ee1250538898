package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/decision"
	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/andresuchdata/decision-intel/backend-go/internal/drive"
	"github.com/andresuchdata/decision-intel/backend-go/internal/events"
	"github.com/andresuchdata/decision-intel/backend-go/internal/ingest"
	"github.com/andresuchdata/decision-intel/backend-go/internal/repository"
	"github.com/andresuchdata/decision-intel/backend-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `transaction_id,product_id,product_name,quantity,unit_price,transaction_date,customer_id
t1,A,Apple,2,1.5,2024-01-01,
t2,A,Apple,4,1.5,2024-01-11,c1
t3,B,Banana,1,2.0,2024-01-05,
t4,B,Banana,oops,2.0,2024-01-05,
`

var testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.Local)

type published struct {
	routingKey string
	event      interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{routingKey: routingKey, event: event})
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeStorage struct {
	uploads map[string][]byte
	err     error
}

func (s *fakeStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (s *fakeStorage) DownloadObject(ctx context.Context, key string, destPath string) error {
	return nil
}

func (s *fakeStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	if s.uploads == nil {
		s.uploads = make(map[string][]byte)
	}
	s.uploads[key] = data
	return nil
}

func newTestService(opts ...Option) (*DecisionService, *fakePublisher) {
	pub := &fakePublisher{}
	ids := 0
	base := []Option{
		WithPublisher(pub),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			ids++
			return "ds-" + string(rune('0'+ids))
		}),
	}
	svc := NewDecisionService(repository.NewMemoryDatasetRepository(), decision.NewEngine(decision.DefaultConfig()), append(base, opts...)...)
	return svc, pub
}

func TestDecisionService_Ingest(t *testing.T) {
	store := &fakeStorage{}
	svc, pub := newTestService(WithStorage(store, "archive"))

	result, err := svc.Ingest(context.Background(), IngestRequest{Filename: "sales.csv", Body: []byte(salesCSV)})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "ds-1", result.DatasetID)
	assert.Equal(t, 3, result.RecordsProcessed)
	assert.Equal(t, 2, result.ProductsIdentified)
	assert.Equal(t, 1, result.RowsSkipped)
	assert.Equal(t, "Successfully processed 3 transactions for 2 products", result.Message)
	assert.Equal(t, "archive/uploads/ds-1/sales.csv", result.ArchivedObjectKey)
	assert.Equal(t, []byte(salesCSV), store.uploads["archive/uploads/ds-1/sales.csv"])

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.DatasetIngestedRoutingKey, pub.events[0].routingKey)
	ingested := pub.events[0].event.(events.DatasetIngested)
	assert.Equal(t, "ds-1", ingested.DatasetID)
	assert.Equal(t, SourceUpload, ingested.Source)

	infos, err := svc.Datasets(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "sales.csv", infos[0].Name)
	assert.Equal(t, testNow, infos[0].CreatedAt)
}

func TestDecisionService_IngestErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     IngestRequest
		wantErr error
	}{
		{
			name:    "unsupported extension",
			req:     IngestRequest{Filename: "sales.txt", Body: []byte(salesCSV)},
			wantErr: ingest.ErrUnsupportedFormat,
		},
		{
			name:    "empty file",
			req:     IngestRequest{Filename: "sales.csv"},
			wantErr: ingest.ErrEmptyFile,
		},
		{
			name:    "missing column",
			req:     IngestRequest{Filename: "sales.csv", Body: []byte("product_id,quantity\nA,1\n")},
			wantErr: ingest.ErrMissingColumn,
		},
		{
			name: "bad initial stock",
			req: IngestRequest{
				Filename:     "sales.csv",
				Body:         []byte(salesCSV),
				InitialStock: []byte("sku\nA\n"),
			},
			wantErr: ingest.ErrMissingColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, pub := newTestService()
			_, err := svc.Ingest(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, pub.events)
		})
	}
}

func TestDecisionService_IngestSurvivesSideEffectFailures(t *testing.T) {
	svc, pub := newTestService(WithStorage(&fakeStorage{err: errors.New("bucket gone")}, ""))
	pub.err = errors.New("broker down")

	result, err := svc.Ingest(context.Background(), IngestRequest{Filename: "sales.csv", Body: []byte(salesCSV)})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.ArchivedObjectKey)
}

func TestDecisionService_IngestWithoutStorage(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.Ingest(context.Background(), IngestRequest{Filename: "sales.csv", Body: []byte(salesCSV)})
	require.NoError(t, err)
	assert.Empty(t, result.ArchivedObjectKey)
}

func TestDecisionService_Generate(t *testing.T) {
	svc, pub := newTestService()
	ctx := context.Background()

	_, err := svc.Generate(ctx, "")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = svc.Generate(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrDatasetNotFound)

	result, err := svc.Ingest(ctx, IngestRequest{Filename: "sales.csv", Body: []byte(salesCSV)})
	require.NoError(t, err)

	resp, err := svc.Generate(ctx, result.DatasetID)
	require.NoError(t, err)
	assert.Equal(t, result.DatasetID, resp.DatasetID)
	assert.Equal(t, testNow, resp.Timestamp)
	assert.Equal(t, 2, resp.TotalInsights)
	assert.Equal(t, 2, resp.CriticalActions)
	assert.Equal(t, "Apple", resp.Insights[0].ProductName)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, events.DecisionsGeneratedRoutingKey, last.routingKey)
	generated := last.event.(events.DecisionsGenerated)
	assert.Equal(t, []string{"A", "B"}, generated.CriticalProducts)
	assert.Equal(t, 2, generated.CriticalActions)
}

func TestDecisionService_Views(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	result, err := svc.Ingest(ctx, IngestRequest{Filename: "sales.csv", Body: []byte(salesCSV)})
	require.NoError(t, err)
	id := result.DatasetID

	risks, err := svc.Risks(ctx, id)
	require.NoError(t, err)
	require.Len(t, risks, 2)
	for _, r := range risks {
		assert.Equal(t, domain.RiskCritical, r.RiskLevel)
	}

	reorders, err := svc.Reorders(ctx, id)
	require.NoError(t, err)
	assert.Len(t, reorders, 2)

	slow, err := svc.SlowMovers(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, slow)

	summary, err := svc.Summary(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionSummary{
		InventoryRisks:         domain.RiskBreakdown{Total: 2, Critical: 2},
		ReorderRecommendations: 2,
		TotalProducts:          2,
	}, *summary)
}

func TestDecisionService_SetInitialStock(t *testing.T) {
	svc, pub := newTestService()
	ctx := context.Background()

	_, err := svc.SetInitialStock(ctx, "missing", strings.NewReader("product_id,initial_stock\nA,100\n"))
	assert.ErrorIs(t, err, repository.ErrDatasetNotFound)

	result, err := svc.Ingest(ctx, IngestRequest{Filename: "sales.csv", Body: []byte(salesCSV)})
	require.NoError(t, err)

	n, err := svc.SetInitialStock(ctx, result.DatasetID, strings.NewReader("product_id,initial_stock\nA,100\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	risks, err := svc.Risks(ctx, result.DatasetID)
	require.NoError(t, err)
	levels := map[string]domain.RiskLevel{}
	for _, r := range risks {
		levels[r.ProductID] = r.RiskLevel
	}
	assert.Equal(t, domain.RiskLow, levels["A"])
	assert.Equal(t, domain.RiskCritical, levels["B"])

	_, err = svc.Generate(ctx, result.DatasetID)
	require.NoError(t, err)
	generated := pub.events[len(pub.events)-1].event.(events.DecisionsGenerated)
	assert.Equal(t, []string{"B"}, generated.CriticalProducts)
}

func TestDecisionService_IngestWithInitialStock(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.Ingest(context.Background(), IngestRequest{
		Filename:     "sales.csv",
		Body:         []byte(salesCSV),
		InitialStock: []byte("product_id,initial_stock\nA,100\nB,50\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.InitialStockEntries)

	summary, err := svc.Summary(context.Background(), result.DatasetID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.InventoryRisks.Critical)
}

func TestDecisionService_Delete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	result, err := svc.Ingest(ctx, IngestRequest{Filename: "sales.csv", Body: []byte(salesCSV)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, result.DatasetID))
	assert.ErrorIs(t, svc.Delete(ctx, result.DatasetID), repository.ErrDatasetNotFound)
	_, err = svc.Summary(ctx, result.DatasetID)
	assert.ErrorIs(t, err, repository.ErrDatasetNotFound)
}

func TestDecisionService_PurgeExpired(t *testing.T) {
	now := testNow
	svc, _ := newTestService(WithDatasetTTL(24*time.Hour), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := svc.Ingest(ctx, IngestRequest{Filename: "old.csv", Body: []byte(salesCSV)})
	require.NoError(t, err)

	now = testNow.Add(12 * time.Hour)
	fresh, err := svc.Ingest(ctx, IngestRequest{Filename: "fresh.csv", Body: []byte(salesCSV)})
	require.NoError(t, err)

	now = testNow.Add(25 * time.Hour)
	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	infos, err := svc.Datasets(ctx, 0)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, fresh.DatasetID, infos[0].ID)
}

func TestDecisionService_PurgeDisabled(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Ingest(context.Background(), IngestRequest{Filename: "sales.csv", Body: []byte(salesCSV)})
	require.NoError(t, err)

	n, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, NewPurgeJob(svc).Run())
}

type fakeDownloader struct {
	files map[string]string
	err   error
}

func (d *fakeDownloader) DownloadFolder(ctx context.Context, opts drive.DownloadOptions) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	var paths []string
	for _, name := range []string{"jan.csv", "feb.csv"} {
		body, ok := d.files[name]
		if !ok {
			continue
		}
		p := filepath.Join(opts.DownloadDir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func TestDriveSyncJob(t *testing.T) {
	header := "transaction_id,product_id,product_name,quantity,unit_price,transaction_date\n"
	downloader := &fakeDownloader{files: map[string]string{
		"jan.csv": header + "t1,A,Apple,2,1.5,2024-01-01\n",
		"feb.csv": header + "t2,B,Banana,1,2.0,2024-02-01\n",
	}}
	store := &fakeStorage{}
	svc, pub := newTestService(WithStorage(store, "archive"))
	job := NewDriveSyncJob(svc, downloader, drive.DownloadOptions{FolderID: "folder", DownloadDir: t.TempDir()})

	assert.Equal(t, "drive_sync", job.Name())
	outcome, err := job.Sync(context.Background())
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Len(t, outcome.Files, 2)
	assert.Equal(t, 2, outcome.Result.RecordsProcessed)
	assert.Equal(t, 2, outcome.Result.ProductsIdentified)
	assert.Equal(t, "archive/uploads/ds-1/transactions.csv", outcome.Result.ArchivedObjectKey)
	assert.True(t, strings.HasPrefix(string(store.uploads["archive/uploads/ds-1/transactions.csv"]), "transaction_id,"))

	ingested := pub.events[0].event.(events.DatasetIngested)
	assert.Equal(t, SourceDrive, ingested.Source)
	assert.Equal(t, "drive-"+testNow.UTC().Format("20060102-150405"), ingested.Name)
}

func TestDriveSyncJob_EmptyFolderAndErrors(t *testing.T) {
	svc, pub := newTestService()

	empty := NewDriveSyncJob(svc, &fakeDownloader{}, drive.DownloadOptions{DownloadDir: t.TempDir()})
	outcome, err := empty.Sync(context.Background())
	require.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Empty(t, pub.events)

	failing := NewDriveSyncJob(svc, &fakeDownloader{err: errors.New("quota")}, drive.DownloadOptions{DownloadDir: t.TempDir()})
	assert.Error(t, failing.Run())
}
