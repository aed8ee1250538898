package ingest

import (
	"fmt"
	"strings"
)

type column string

const (
	colTransactionID   column = "transaction_id"
	colProductID       column = "product_id"
	colProductName     column = "product_name"
	colQuantity        column = "quantity"
	colUnitPrice       column = "unit_price"
	colTransactionDate column = "transaction_date"
	colCustomerID      column = "customer_id"
	colInitialStock    column = "initial_stock"
)

// transactionColumns is the canonical column order of a transaction file.
var transactionColumns = []column{
	colTransactionID,
	colProductID,
	colProductName,
	colQuantity,
	colUnitPrice,
	colTransactionDate,
	colCustomerID,
}

var requiredTransactionColumns = []column{
	colTransactionID,
	colProductID,
	colProductName,
	colQuantity,
	colUnitPrice,
	colTransactionDate,
}

// transactionAliases maps normalised header text to a column.
var transactionAliases = map[string]column{
	"transactionid":   colTransactionID,
	"productid":       colProductID,
	"sku":             colProductID,
	"productname":     colProductName,
	"name":            colProductName,
	"product":         colProductName,
	"quantity":        colQuantity,
	"qty":             colQuantity,
	"unitprice":       colUnitPrice,
	"price":           colUnitPrice,
	"transactiondate": colTransactionDate,
	"date":            colTransactionDate,
	"customerid":      colCustomerID,
	"customer":        colCustomerID,
}

var stockAliases = map[string]column{
	"productid":    colProductID,
	"sku":          colProductID,
	"initialstock": colInitialStock,
	"stock":        colInitialStock,
	"quantity":     colInitialStock,
	"qty":          colInitialStock,
}

// normalizeHeader folds case and drops spaces, underscores, dots and dashes.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch r {
		case ' ', '_', '.', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// headerIndex resolves header cells to column positions. The first cell
// matching a column wins; unknown headers are ignored.
type headerIndex map[column]int

func buildHeaderIndex(header []string, aliases map[string]column, required []column) (headerIndex, error) {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		col, ok := aliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := idx[col]; !seen {
			idx[col] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, string(col))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// value returns the trimmed cell for col, or "" when the row is short or the column absent.
func (h headerIndex) value(record []string, col column) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
