// backend-go/internal/repository/postgres/dataset_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/andresuchdata/decision-intel/backend-go/internal/repository"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	rows_skipped INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets (created_at);

CREATE TABLE IF NOT EXISTS dataset_transactions (
	dataset_id       TEXT NOT NULL REFERENCES datasets (id) ON DELETE CASCADE,
	position         INTEGER NOT NULL,
	transaction_id   TEXT NOT NULL,
	product_id       TEXT NOT NULL,
	product_name     TEXT NOT NULL,
	quantity         INTEGER NOT NULL,
	unit_price       DOUBLE PRECISION NOT NULL,
	transaction_date TIMESTAMPTZ NOT NULL,
	customer_id      TEXT,
	PRIMARY KEY (dataset_id, position)
);

CREATE TABLE IF NOT EXISTS dataset_initial_stock (
	dataset_id TEXT NOT NULL REFERENCES datasets (id) ON DELETE CASCADE,
	product_id TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	PRIMARY KEY (dataset_id, product_id)
);
`

// EnsureSchema creates the dataset tables when they do not exist.
func EnsureSchema(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

type datasetRepository struct {
	db *DB
}

func NewDatasetRepository(db *DB) repository.DatasetRepository {
	return &datasetRepository{db: db}
}

type datasetRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Source      string    `db:"source"`
	RowsSkipped int       `db:"rows_skipped"`
	CreatedAt   time.Time `db:"created_at"`
}

type stockRow struct {
	ProductID string `db:"product_id"`
	Quantity  int    `db:"quantity"`
}

func (r *datasetRepository) SaveDataset(ctx context.Context, ds *domain.Dataset) error {
	if ds == nil || ds.ID == "" {
		return errors.New("dataset id is required")
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// 1. Upsert the dataset header and clear its children
		_, err := tx.ExecContext(ctx, `
			INSERT INTO datasets (id, name, source, rows_skipped, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				source = EXCLUDED.source,
				rows_skipped = EXCLUDED.rows_skipped,
				created_at = EXCLUDED.created_at
		`, ds.ID, ds.Name, ds.Source, ds.RowsSkipped, ds.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert dataset: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_transactions WHERE dataset_id = $1`, ds.ID); err != nil {
			return fmt.Errorf("failed to clear transactions: %w", err)
		}

		// 2. Insert transactions keeping their order
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO dataset_transactions (
				dataset_id, position, transaction_id, product_id, product_name,
				quantity, unit_price, transaction_date, customer_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, t := range ds.Transactions {
			_, err := stmt.ExecContext(ctx,
				ds.ID, i, t.TransactionID, t.ProductID, t.ProductName,
				t.Quantity, t.UnitPrice, t.TransactionDate, t.CustomerID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", t.TransactionID, err)
			}
		}

		// 3. Initial stock
		return replaceInitialStock(ctx, tx, ds.ID, ds.InitialStock)
	})
}

func (r *datasetRepository) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	var row datasetRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, name, source, rows_skipped, created_at
		FROM datasets WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	ds := &domain.Dataset{
		ID:          row.ID,
		Name:        row.Name,
		Source:      row.Source,
		RowsSkipped: row.RowsSkipped,
		CreatedAt:   row.CreatedAt,
	}

	if err := r.db.SelectContext(ctx, &ds.Transactions, `
		SELECT transaction_id, product_id, product_name, quantity, unit_price, transaction_date, customer_id
		FROM dataset_transactions
		WHERE dataset_id = $1
		ORDER BY position
	`, id); err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	var stock []stockRow
	if err := r.db.SelectContext(ctx, &stock, `
		SELECT product_id, quantity FROM dataset_initial_stock WHERE dataset_id = $1
	`, id); err != nil {
		return nil, fmt.Errorf("failed to get initial stock: %w", err)
	}
	if len(stock) > 0 {
		ds.InitialStock = make(map[string]int, len(stock))
		for _, s := range stock {
			ds.InitialStock[s.ProductID] = s.Quantity
		}
	}

	return ds, nil
}

func (r *datasetRepository) ListDatasets(ctx context.Context, limit int) ([]domain.DatasetInfo, error) {
	query := `
		SELECT
			d.id, d.name, d.source, d.rows_skipped, d.created_at,
			COUNT(t.position) AS transaction_count,
			COUNT(DISTINCT t.product_id) AS product_count
		FROM datasets d
		LEFT JOIN dataset_transactions t ON t.dataset_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at DESC, d.id
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	infos := make([]domain.DatasetInfo, 0)
	if err := r.db.SelectContext(ctx, &infos, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return infos, nil
}

func (r *datasetRepository) DeleteDataset(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if n == 0 {
		return repository.ErrDatasetNotFound
	}
	return nil
}

func (r *datasetRepository) SetInitialStock(ctx context.Context, id string, stock map[string]int) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM datasets WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("failed to look up dataset: %w", err)
		}
		if !exists {
			return repository.ErrDatasetNotFound
		}
		return replaceInitialStock(ctx, tx, id, stock)
	})
}

func (r *datasetRepository) DeleteCreatedBefore(ctx context.Context, t time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE created_at < $1`, t)
	if err != nil {
		return 0, fmt.Errorf("failed to purge datasets: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge datasets: %w", err)
	}
	return int(n), nil
}

func replaceInitialStock(ctx context.Context, tx *sqlx.Tx, id string, stock map[string]int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_initial_stock WHERE dataset_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear initial stock: %w", err)
	}
	for productID, qty := range stock {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dataset_initial_stock (dataset_id, product_id, quantity)
			VALUES ($1, $2, $3)
		`, id, productID, qty)
		if err != nil {
			return fmt.Errorf("failed to insert initial stock for %s: %w", productID, err)
		}
	}
	return nil
}
