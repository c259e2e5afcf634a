package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/procure-mr-api/internal/models"
)

// SeriesRepository allocates document numbers per business unit and series.
type SeriesRepository struct {
	db *sqlx.DB
}

// NewSeriesRepository constructs the repository.
func NewSeriesRepository(db *sqlx.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

// NextDocNo atomically claims the next number for the series and returns
// the formatted document number (prefix + zero-padded counter).
func (r *SeriesRepository) NextDocNo(ctx context.Context, businessUnitID, code string) (string, error) {
	const query = `UPDATE document_series
SET next_number = next_number + 1, updated_at = $3
WHERE business_unit_id = $1 AND code = $2
RETURNING prefix, next_number - 1, padding`

	var (
		prefix  string
		number  int64
		padding int
	)
	row := r.db.QueryRowContext(ctx, query, businessUnitID, code, time.Now().UTC())
	if err := row.Scan(&prefix, &number, &padding); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("allocate document number: %w", err)
	}
	if padding <= 0 {
		padding = 6
	}
	return fmt.Sprintf("%s%0*d", prefix, padding, number), nil
}

// Get returns the series row for a business unit and code.
func (r *SeriesRepository) Get(ctx context.Context, businessUnitID, code string) (*models.DocumentSeries, error) {
	const query = `SELECT id, business_unit_id, code, prefix, next_number, padding, updated_at FROM document_series WHERE business_unit_id = $1 AND code = $2 LIMIT 1`
	var series models.DocumentSeries
	if err := r.db.GetContext(ctx, &series, query, businessUnitID, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get document series: %w", err)
	}
	return &series, nil
}

// ListForBusinessUnit returns the series configured for a business unit.
func (r *SeriesRepository) ListForBusinessUnit(ctx context.Context, businessUnitID string) ([]models.DocumentSeries, error) {
	const query = `SELECT id, business_unit_id, code, prefix, next_number, padding, updated_at FROM document_series WHERE business_unit_id = $1 ORDER BY code ASC`
	var series []models.DocumentSeries
	if err := r.db.SelectContext(ctx, &series, query, businessUnitID); err != nil {
		return nil, fmt.Errorf("list document series: %w", err)
	}
	return series, nil
}

// Create registers a new series for a business unit.
func (r *SeriesRepository) Create(ctx context.Context, series *models.DocumentSeries) error {
	if series.ID == "" {
		series.ID = uuid.NewString()
	}
	if series.NextNumber <= 0 {
		series.NextNumber = 1
	}
	if series.Padding <= 0 {
		series.Padding = 6
	}
	series.Code = strings.ToUpper(series.Code)
	series.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO document_series (id, business_unit_id, code, prefix, next_number, padding, updated_at) VALUES (:id, :business_unit_id, :code, :prefix, :next_number, :padding, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, series); err != nil {
		return fmt.Errorf("create document series: %w", err)
	}
	return nil
}
