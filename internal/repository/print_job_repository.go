package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/procure-mr-api/internal/models"
)

const printJobColumns = `id, type, params, status, progress, business_unit_id, created_by, file_path, result_url, error_message, created_at, started_at, finished_at`

// PrintJobRepository persists printout job metadata.
type PrintJobRepository struct {
	db *sqlx.DB
}

// NewPrintJobRepository constructs the repository.
func NewPrintJobRepository(db *sqlx.DB) *PrintJobRepository {
	return &PrintJobRepository{db: db}
}

// Create inserts a new print job row with generated defaults.
func (r *PrintJobRepository) Create(ctx context.Context, job *models.PrintJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.PrintStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO print_jobs (id, type, params, status, progress, business_unit_id, created_by, file_path, result_url, error_message, created_at, started_at, finished_at)
VALUES (:id, :type, :params, :status, :progress, :business_unit_id, :created_by, :file_path, :result_url, :error_message, :created_at, :started_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create print job: %w", err)
	}
	return nil
}

// GetByID returns a job row by its identifier.
func (r *PrintJobRepository) GetByID(ctx context.Context, id string) (*models.PrintJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM print_jobs WHERE id = $1`, printJobColumns)
	var job models.PrintJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get print job: %w", err)
	}
	return &job, nil
}

// UpdatePrintJobParams defines the mutable fields.
type UpdatePrintJobParams struct {
	Status       *models.PrintJobStatus
	Progress     *int
	FilePath     *string
	ResultURL    *string
	ErrorMessage *string
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// Update persists the provided changes for a job row.
func (r *PrintJobRepository) Update(ctx context.Context, id string, params UpdatePrintJobParams) error {
	set := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)
	argPos := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.Progress != nil {
		set = append(set, fmt.Sprintf("progress = $%d", argPos))
		args = append(args, *params.Progress)
		argPos++
	}
	if params.FilePath != nil {
		set = append(set, fmt.Sprintf("file_path = $%d", argPos))
		args = append(args, *params.FilePath)
		argPos++
	}
	if params.ResultURL != nil {
		set = append(set, fmt.Sprintf("result_url = $%d", argPos))
		args = append(args, *params.ResultURL)
		argPos++
	}
	if params.ErrorMessage != nil {
		set = append(set, fmt.Sprintf("error_message = $%d", argPos))
		args = append(args, *params.ErrorMessage)
		argPos++
	}
	if params.StartedAt != nil {
		set = append(set, fmt.Sprintf("started_at = $%d", argPos))
		args = append(args, *params.StartedAt)
		argPos++
	}
	if params.FinishedAt != nil {
		set = append(set, fmt.Sprintf("finished_at = $%d", argPos))
		args = append(args, *params.FinishedAt)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE print_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update print job: %w", err)
	}
	return nil
}

// ListQueued fetches queued jobs (used for cold start recovery).
func (r *PrintJobRepository) ListQueued(ctx context.Context, limit int) ([]models.PrintJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM print_jobs WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1`, printJobColumns)
	var jobs []models.PrintJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list queued print jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore retrieves completed jobs prior to cutoff for cleanup.
func (r *PrintJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.PrintJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM print_jobs WHERE status = 'COMPLETED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`, printJobColumns)
	var jobs []models.PrintJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished print jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes a job row after its artifact has been cleaned up.
func (r *PrintJobRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM print_jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete print job: %w", err)
	}
	return nil
}
