// Package ingest turns uploaded sales files into validated transactions.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptyFile         = errors.New("file has no header row")
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Format is an accepted upload format.
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatXLSX Format = "XLSX"
)

// SupportedFormats lists accepted upload formats.
func SupportedFormats() []Format {
	return []Format{FormatCSV, FormatXLSX}
}

// DetectFormat picks the format from a file name extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, filepath.Base(filename))
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RowError describes a row that was skipped. Row numbers count the header as row 1.
type RowError struct {
	Source string `json:"source,omitempty"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s row %d: %s", e.Source, e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Result is the outcome of parsing one or more transaction files.
type Result struct {
	Transactions []domain.Transaction
	Skipped      []RowError
}

func (r *Result) RowsSkipped() int {
	return len(r.Skipped)
}

// Parser reads transaction files. Invalid rows are skipped and reported;
// only structural problems (no header, missing column) fail the file.
type Parser struct {
	// Source labels row errors and log lines, usually the file name.
	Source string
	// Location applies to dates that carry no zone. Nil means time.Local,
	// the zone the analysis clock runs in.
	Location *time.Location
}

func (p Parser) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// Parse reads r in the given format.
func (p Parser) Parse(r io.Reader, format Format) (*Result, error) {
	switch format {
	case FormatCSV:
		return p.ParseCSV(r)
	case FormatXLSX:
		return p.ParseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ParseCSV reads comma separated transactions with a header row.
func (p Parser) ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	idx, err := buildHeaderIndex(header, transactionAliases, requiredTransactionColumns)
	if err != nil {
		return nil, err
	}

	result := &Result{Transactions: make([]domain.Transaction, 0)}
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++

		if err != nil {
			// Malformed quoting only affects this record
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				p.skip(result, row, err.Error())
				continue
			}
			return nil, fmt.Errorf("failed to read csv row %d: %w", row, err)
		}

		p.addRecord(result, idx, record, row, nil)
	}

	return result, nil
}

// ParseXLSX reads the first sheet of a workbook. Date cells stored as
// spreadsheet serial numbers are converted.
func (p Parser) ParseXLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var (
		idx    headerIndex
		result = &Result{Transactions: make([]domain.Transaction, 0)}
		row    int
	)
	for rows.Next() {
		row++
		record, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read xlsx row %d: %w", row, err)
		}

		if idx == nil {
			if isBlank(record) {
				return nil, ErrEmptyFile
			}
			if idx, err = buildHeaderIndex(record, transactionAliases, requiredTransactionColumns); err != nil {
				return nil, err
			}
			continue
		}

		p.addRecord(result, idx, record, row, parseSerialDate)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}
	if idx == nil {
		return nil, ErrEmptyFile
	}

	return result, nil
}

// ParseBytes detects the format from filename and parses body.
func ParseBytes(filename string, body []byte) (*Result, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	return Parser{Source: filepath.Base(filename)}.Parse(bytes.NewReader(body), format)
}

func (p Parser) addRecord(result *Result, idx headerIndex, record []string, row int, fallbackDate dateParser) {
	if isBlank(record) {
		return
	}
	t, reason := parseTransaction(idx, record, p.location(), fallbackDate)
	if reason != "" {
		p.skip(result, row, reason)
		return
	}
	result.Transactions = append(result.Transactions, t)
}

func (p Parser) skip(result *Result, row int, reason string) {
	rowErr := RowError{Source: p.Source, Row: row, Reason: reason}
	result.Skipped = append(result.Skipped, rowErr)
	log.Warn().
		Str("source", p.Source).
		Int("row", row).
		Str("reason", reason).
		Msg("ingest: skipping invalid row")
}

// parseTransaction validates one record. It returns a non-empty reason when the row must be skipped.
func parseTransaction(idx headerIndex, record []string, loc *time.Location, fallbackDate dateParser) (domain.Transaction, string) {
	t := domain.Transaction{
		TransactionID: idx.value(record, colTransactionID),
		ProductID:     idx.value(record, colProductID),
		ProductName:   idx.value(record, colProductName),
	}
	switch {
	case t.TransactionID == "":
		return t, "transaction_id is empty"
	case t.ProductID == "":
		return t, "product_id is empty"
	case t.ProductName == "":
		return t, "product_name is empty"
	}

	rawQty := idx.value(record, colQuantity)
	qty, err := strconv.Atoi(rawQty)
	if err != nil {
		return t, fmt.Sprintf("quantity %q is not an integer", rawQty)
	}
	if qty <= 0 {
		return t, fmt.Sprintf("quantity %d must be positive", qty)
	}
	t.Quantity = qty

	rawPrice := idx.value(record, colUnitPrice)
	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return t, fmt.Sprintf("unit_price %q is not a number", rawPrice)
	}
	if price <= 0 {
		return t, fmt.Sprintf("unit_price %s must be positive", rawPrice)
	}
	t.UnitPrice = price

	rawDate := idx.value(record, colTransactionDate)
	if rawDate == "" {
		return t, "transaction_date is empty"
	}
	date, ok := parseDate(rawDate, loc)
	if !ok && fallbackDate != nil {
		date, ok = fallbackDate(rawDate, loc)
	}
	if !ok {
		return t, fmt.Sprintf("transaction_date %q is not a recognised date", rawDate)
	}
	t.TransactionDate = date

	if customer := idx.value(record, colCustomerID); customer != "" {
		t.CustomerID = &customer
	}

	return t, ""
}

type dateParser func(s string, loc *time.Location) (time.Time, bool)

// parseDate tries each layout in turn. An explicit offset in s wins over loc.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseSerialDate reads an Excel serial date as a wall clock time in loc.
func parseSerialDate(s string, loc *time.Location) (time.Time, bool) {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), true
}
