package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Document describes a single-document printout: a header block of
// label/value pairs followed by a line-item table and summary rows.
type Document struct {
	Title   string
	Header  []Field
	Table   Dataset
	Summary []Field
	Footer  []Field
}

// Field is an ordered label/value pair on a document printout.
type Field struct {
	Label string
	Value string
}

// PDFExporter renders datasets and documents into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	writeTable(pdf, data)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDocument lays out a document printout: title, header fields,
// line table, and right-aligned summary rows.
func (e *PDFExporter) RenderDocument(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("document requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	for _, field := range doc.Header {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 6, field.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, field.Value, "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	if len(doc.Table.Headers) > 0 {
		writeTable(pdf, doc.Table)
	}
	pdf.Ln(4)

	for _, field := range doc.Summary {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(150, 6, field.Label, "", 0, "R", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(40, 6, field.Value, "", 1, "R", false, 0, "")
	}

	if len(doc.Footer) > 0 {
		pdf.Ln(10)
		for _, field := range doc.Footer {
			pdf.SetFont("Arial", "", 9)
			pdf.CellFormat(60, 6, field.Label, "T", 0, "C", false, 0, "")
			pdf.CellFormat(5, 6, "", "", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			pdf.CellFormat(60, 6, field.Value, "T", 1, "C", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render document pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(pdf *gofpdf.Fpdf, data Dataset) {
	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
