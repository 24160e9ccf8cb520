// Package excel loads tabular edge-list datasets from CSV and XLSX files.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"randomnet/domain/core"
	"randomnet/domain/dataset"
	"randomnet/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader implements ports.DatasetReader for .csv and .xlsx files.
// Spreadsheets are read from their first sheet; the first row is the header.
type DataReader struct {
	logger *internal.Logger
}

// NewDataReader creates a reader that logs through logger.
func NewDataReader(logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{logger: logger}
}

// ReadTable reads path into a table, choosing the format by extension.
func (r *DataReader) ReadTable(ctx context.Context, path string) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, core.NewInvalidRequestError("dataset", fmt.Sprintf("file %s cannot be read: %v", path, err))
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readExcel(path)
	default:
		return nil, core.NewInvalidRequestError("dataset", fmt.Sprintf("type %q is not supported", ext))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewInvalidRequestError("dataset", fmt.Sprintf("%s needs a header row and at least one data row", path))
	}

	table := processRows(rows)
	r.logger.Debug("[DataReader] %s read in %.2fms (%d columns, %d rows)",
		path, float64(time.Since(start).Nanoseconds())/1e6, len(table.Headers), len(table.Rows))
	return table, nil
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()
	return parseCSV(file)
}

func parseCSV(in io.Reader) ([][]string, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows trims every cell and keys it by header. Short rows leave the
// missing columns empty; cells beyond the header are dropped.
func processRows(rows [][]string) *dataset.Table {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	table := &dataset.Table{Headers: headers, Rows: make([]dataset.Row, 0, len(rows)-1)}
	for _, raw := range rows[1:] {
		row := make(dataset.Row, len(headers))
		for j, cell := range raw {
			if j < len(headers) {
				row[headers[j]] = strings.TrimSpace(cell)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
