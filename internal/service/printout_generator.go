package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/procure-mr-api/internal/models"
	"github.com/noah-isme/procure-mr-api/pkg/export"
	"github.com/noah-isme/procure-mr-api/pkg/storage"
)

type printoutRequestSource interface {
	GetByID(ctx context.Context, id string) (*models.MaterialRequest, error)
	List(ctx context.Context, filter models.MaterialRequestFilter) ([]models.MaterialRequest, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderDocument(doc export.Document) ([]byte, error)
}

// PrintoutGeneratorConfig tunes printout generation.
type PrintoutGeneratorConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// PrintoutResult captures successful generation metadata.
type PrintoutResult struct {
	RelativePath string
	Token        string
	URL          string
	ExpiresAt    time.Time
}

// PrintoutGenerator renders material request printouts and persists the
// files with signed download tokens.
type PrintoutGenerator struct {
	requests printoutRequestSource
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      PrintoutGeneratorConfig
}

// NewPrintoutGenerator constructs a PrintoutGenerator.
func NewPrintoutGenerator(requests printoutRequestSource, store fileStorage, signer *storage.SignedURLSigner, cfg PrintoutGeneratorConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *PrintoutGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &PrintoutGenerator{
		requests: requests,
		storage:  store,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate renders the printout described by the job and stores the file.
func (g *PrintoutGenerator) Generate(ctx context.Context, job *models.PrintJob) (*PrintoutResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	var payload []byte
	var err error
	switch job.Type {
	case models.PrintJobRequestPDF:
		payload, err = g.renderRequest(ctx, job.Params.RequestID)
	case models.PrintJobRegisterCSV:
		var dataset export.Dataset
		dataset, _, err = g.buildRegister(ctx, job)
		if err == nil {
			payload, err = g.csv.Render(dataset)
		}
	case models.PrintJobRegisterPDF:
		var dataset export.Dataset
		var title string
		dataset, title, err = g.buildRegister(ctx, job)
		if err == nil {
			payload, err = g.pdf.Render(dataset, title)
		}
	default:
		err = fmt.Errorf("unsupported printout type %s", job.Type)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := g.storage.Save(g.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := g.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(g.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &PrintoutResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/printouts/download/%s", prefix, token),
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (g *PrintoutGenerator) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return g.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (g *PrintoutGenerator) Open(relPath string) (*os.File, error) {
	return g.storage.Open(relPath)
}

// Delete removes a stored printout file.
func (g *PrintoutGenerator) Delete(relPath string) error {
	return g.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to the configured ResultTTL).
func (g *PrintoutGenerator) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = g.cfg.ResultTTL
	}
	return g.storage.CleanupOlderThan(ttl)
}

func (g *PrintoutGenerator) renderRequest(ctx context.Context, requestID string) ([]byte, error) {
	if requestID == "" {
		return nil, fmt.Errorf("request id missing")
	}
	request, err := g.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	lineRows := make([]map[string]string, 0, len(request.Items))
	for _, item := range request.Items {
		code := ""
		if item.ItemCode != nil {
			code = *item.ItemCode
		}
		lineRows = append(lineRows, map[string]string{
			"No":          fmt.Sprintf("%d", item.LineNo),
			"Item Code":   code,
			"Description": item.Description,
			"Unit":        item.Unit,
			"Qty":         item.Quantity.String(),
			"Unit Price":  item.UnitPrice.StringFixed(2),
			"Line Total":  item.LineTotal.StringFixed(2),
		})
	}

	remarks := ""
	if request.Remarks != nil {
		remarks = *request.Remarks
	}

	doc := export.Document{
		Title: "Material Request",
		Header: []export.Field{
			{Label: "Document No", Value: request.DocNo},
			{Label: "Type", Value: string(request.Type)},
			{Label: "Status", Value: string(request.Status)},
			{Label: "Prepared Date", Value: request.PreparedDate.Format("2006-01-02")},
			{Label: "Required Date", Value: request.RequiredDate.Format("2006-01-02")},
			{Label: "Remarks", Value: remarks},
		},
		Table: export.Dataset{
			Headers: []string{"No", "Item Code", "Description", "Unit", "Qty", "Unit Price", "Line Total"},
			Rows:    lineRows,
		},
		Summary: []export.Field{
			{Label: "Freight", Value: request.Freight.StringFixed(2)},
			{Label: "Discount", Value: request.Discount.StringFixed(2)},
			{Label: "Total", Value: request.Total.StringFixed(2)},
		},
		Footer: []export.Field{
			{Label: "Prepared by", Value: "Recommended by"},
			{Label: "Approved by", Value: "Posted by"},
		},
	}
	return g.pdf.RenderDocument(doc)
}

func (g *PrintoutGenerator) buildRegister(ctx context.Context, job *models.PrintJob) (export.Dataset, string, error) {
	filter := models.MaterialRequestFilter{
		BusinessUnitID: job.BusinessUnitID,
		Page:           1,
		PageSize:       100,
		SortBy:         "prepared_date",
		SortOrder:      "ASC",
	}
	if job.Params.DateFrom != "" {
		from, err := time.Parse("2006-01-02", job.Params.DateFrom)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("invalid date_from: %w", err)
		}
		filter.DateFrom = &from
	}
	if job.Params.DateTo != "" {
		to, err := time.Parse("2006-01-02", job.Params.DateTo)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("invalid date_to: %w", err)
		}
		filter.DateTo = &to
	}
	for _, raw := range strings.Split(job.Params.Statuses, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		status := models.RequestStatus(strings.ToUpper(raw))
		if !status.Valid() {
			return export.Dataset{}, "", fmt.Errorf("unknown status %q", raw)
		}
		filter.Status = append(filter.Status, status)
	}

	headers := []string{"Doc No", "Type", "Status", "Department", "Prepared", "Required", "Total"}
	rows := make([]map[string]string, 0, filter.PageSize)
	for {
		requests, total, err := g.requests.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, request := range requests {
			rows = append(rows, map[string]string{
				"Doc No":     request.DocNo,
				"Type":       string(request.Type),
				"Status":     string(request.Status),
				"Department": request.DepartmentID,
				"Prepared":   request.PreparedDate.Format("2006-01-02"),
				"Required":   request.RequiredDate.Format("2006-01-02"),
				"Total":      request.Total.StringFixed(2),
			})
		}
		if len(rows) >= total || len(requests) == 0 {
			break
		}
		filter.Page++
	}

	title := "Material Request Register"
	if job.Params.DateFrom != "" || job.Params.DateTo != "" {
		title = fmt.Sprintf("%s %s - %s", title, job.Params.DateFrom, job.Params.DateTo)
	}
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (g *PrintoutGenerator) buildFilename(job *models.PrintJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	ext := "pdf"
	if job.Type == models.PrintJobRegisterCSV {
		ext = "csv"
	}
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), job.BusinessUnitID, timestamp, ext)
}
