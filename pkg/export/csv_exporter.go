package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is tabular content destined for a register export. Rows are keyed
// by header name so builders can fill columns independently of column order.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders datasets as RFC 4180 CSV.
type CSVExporter struct {
	comma rune
}

// NewCSVExporter builds an exporter using the default comma separator.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{comma: ','}
}

// WithSeparator overrides the field separator, for spreadsheet locales that
// expect semicolons.
func (e *CSVExporter) WithSeparator(comma rune) *CSVExporter {
	e.comma = comma
	return e
}

// Render encodes the dataset. Cells missing from a row render empty.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv export: dataset has no headers")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if e.comma != 0 {
		w.Comma = e.comma
	}
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("csv export: write header: %w", err)
	}
	record := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv export: flush: %w", err)
	}
	return buf.Bytes(), nil
}
