package domain

import "time"

// Dataset is an uploaded set of transactions that analyses run against.
// It is passed explicitly by id; nothing relies on a previous upload.
type Dataset struct {
	ID           string         `json:"id" msgpack:"id"`
	Name         string         `json:"name" msgpack:"name"`
	Source       string         `json:"source" msgpack:"source"`
	Transactions []Transaction  `json:"transactions" msgpack:"transactions"`
	InitialStock map[string]int `json:"initial_stock,omitempty" msgpack:"initial_stock"`
	RowsSkipped  int            `json:"rows_skipped" msgpack:"rows_skipped"`
	CreatedAt    time.Time      `json:"created_at" msgpack:"created_at"`
}

// DatasetInfo is dataset metadata without its transactions.
type DatasetInfo struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Source           string    `json:"source" db:"source"`
	TransactionCount int       `json:"transaction_count" db:"transaction_count"`
	ProductCount     int       `json:"product_count" db:"product_count"`
	RowsSkipped      int       `json:"rows_skipped" db:"rows_skipped"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Info summarises the dataset.
func (d *Dataset) Info() DatasetInfo {
	return DatasetInfo{
		ID:               d.ID,
		Name:             d.Name,
		Source:           d.Source,
		TransactionCount: len(d.Transactions),
		ProductCount:     CountProducts(d.Transactions),
		RowsSkipped:      d.RowsSkipped,
		CreatedAt:        d.CreatedAt,
	}
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := *d
	out.Transactions = make([]Transaction, len(d.Transactions))
	for i, t := range d.Transactions {
		if t.CustomerID != nil {
			id := *t.CustomerID
			t.CustomerID = &id
		}
		out.Transactions[i] = t
	}
	if d.InitialStock != nil {
		out.InitialStock = make(map[string]int, len(d.InitialStock))
		for k, v := range d.InitialStock {
			out.InitialStock[k] = v
		}
	}
	return &out
}

// CountProducts returns the number of distinct product ids.
func CountProducts(txns []Transaction) int {
	seen := make(map[string]struct{}, len(txns))
	for _, t := range txns {
		seen[t.ProductID] = struct{}{}
	}
	return len(seen)
}
