package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
)

// WriteTransactionsCSV writes txns with the canonical header. The output
// parses back to the same transactions.
func WriteTransactionsCSV(w io.Writer, txns []domain.Transaction) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(transactionColumns))
	for i, col := range transactionColumns {
		header[i] = string(col)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, t := range txns {
		customer := ""
		if t.CustomerID != nil {
			customer = *t.CustomerID
		}
		record := []string{
			t.TransactionID,
			t.ProductID,
			t.ProductName,
			strconv.Itoa(t.Quantity),
			strconv.FormatFloat(t.UnitPrice, 'f', -1, 64),
			t.TransactionDate.Format(time.RFC3339Nano),
			customer,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", t.TransactionID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
