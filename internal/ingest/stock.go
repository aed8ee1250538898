package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ParseInitialStock reads a product_id,initial_stock CSV. Rows with an empty
// id or a missing, non-integer or negative stock value are skipped. A product
// listed twice keeps its last value.
func ParseInitialStock(r io.Reader) (map[string]int, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read initial stock header: %w", err)
	}

	idx, err := buildHeaderIndex(header, stockAliases, []column{colProductID, colInitialStock})
	if err != nil {
		return nil, nil, err
	}

	stock := make(map[string]int)
	var skipped []RowError
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped = append(skipped, RowError{Row: row, Reason: err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("failed to read initial stock row %d: %w", row, err)
		}
		if isBlank(record) {
			continue
		}

		productID := idx.value(record, colProductID)
		if productID == "" {
			skipped = append(skipped, RowError{Row: row, Reason: "product_id is empty"})
			continue
		}
		raw := idx.value(record, colInitialStock)
		qty, err := strconv.Atoi(raw)
		if err != nil {
			skipped = append(skipped, RowError{Row: row, Reason: fmt.Sprintf("initial_stock %q is not an integer", raw)})
			continue
		}
		if qty < 0 {
			skipped = append(skipped, RowError{Row: row, Reason: fmt.Sprintf("initial_stock %d is negative", qty)})
			continue
		}
		stock[productID] = qty
	}

	return stock, skipped, nil
}
