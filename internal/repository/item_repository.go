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

// ItemRepository persists catalog item master data.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository constructs the repository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// List returns catalog items matching the filter with total count.
func (r *ItemRepository) List(ctx context.Context, filter models.CatalogItemFilter) ([]models.CatalogItem, int, error) {
	baseQuery := `FROM catalog_items WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, code, description, unit, active, created_at, updated_at %s ORDER BY code ASC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var items []models.CatalogItem
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list catalog items: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count catalog items: %w", err)
	}

	return items, total, nil
}

// GetByCode fetches an item by its catalog code.
func (r *ItemRepository) GetByCode(ctx context.Context, code string) (*models.CatalogItem, error) {
	const query = `SELECT id, code, description, unit, active, created_at, updated_at FROM catalog_items WHERE code = $1 LIMIT 1`
	var item models.CatalogItem
	if err := r.db.GetContext(ctx, &item, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get catalog item: %w", err)
	}
	return &item, nil
}

// Create inserts a new catalog item.
func (r *ItemRepository) Create(ctx context.Context, item *models.CatalogItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO catalog_items (id, code, description, unit, active, created_at, updated_at) VALUES (:id, :code, :description, :unit, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create catalog item: %w", err)
	}
	return nil
}

// Update persists mutable catalog item fields.
func (r *ItemRepository) Update(ctx context.Context, item *models.CatalogItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE catalog_items SET description = :description, unit = :unit, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update catalog item: %w", err)
	}
	return nil
}
