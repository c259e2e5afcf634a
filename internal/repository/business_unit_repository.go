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

// BusinessUnitRepository persists business units, departments, and memberships.
type BusinessUnitRepository struct {
	db *sqlx.DB
}

// NewBusinessUnitRepository constructs the repository.
func NewBusinessUnitRepository(db *sqlx.DB) *BusinessUnitRepository {
	return &BusinessUnitRepository{db: db}
}

// List returns business units matching the filter with total count.
func (r *BusinessUnitRepository) List(ctx context.Context, filter models.BusinessUnitFilter) ([]models.BusinessUnit, int, error) {
	baseQuery := `FROM business_units WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
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
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, code, name, active, created_at, updated_at %s ORDER BY code ASC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var units []models.BusinessUnit
	if err := r.db.SelectContext(ctx, &units, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list business units: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count business units: %w", err)
	}

	return units, total, nil
}

// GetByID fetches a single business unit.
func (r *BusinessUnitRepository) GetByID(ctx context.Context, id string) (*models.BusinessUnit, error) {
	const query = `SELECT id, code, name, active, created_at, updated_at FROM business_units WHERE id = $1 LIMIT 1`
	var unit models.BusinessUnit
	if err := r.db.GetContext(ctx, &unit, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get business unit: %w", err)
	}
	return &unit, nil
}

// Create inserts a new business unit.
func (r *BusinessUnitRepository) Create(ctx context.Context, unit *models.BusinessUnit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = now
	}
	unit.UpdatedAt = now
	const query = `INSERT INTO business_units (id, code, name, active, created_at, updated_at) VALUES (:id, :code, :name, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, unit); err != nil {
		return fmt.Errorf("create business unit: %w", err)
	}
	return nil
}

// Update persists mutable business unit fields.
func (r *BusinessUnitRepository) Update(ctx context.Context, unit *models.BusinessUnit) error {
	unit.UpdatedAt = time.Now().UTC()
	const query = `UPDATE business_units SET name = :name, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, unit); err != nil {
		return fmt.Errorf("update business unit: %w", err)
	}
	return nil
}

// ListDepartments returns departments for a business unit.
func (r *BusinessUnitRepository) ListDepartments(ctx context.Context, businessUnitID string) ([]models.Department, error) {
	const query = `SELECT id, business_unit_id, code, name, active, created_at, updated_at FROM departments WHERE business_unit_id = $1 ORDER BY code ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, businessUnitID); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// GetDepartment fetches a department by identifier.
func (r *BusinessUnitRepository) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, business_unit_id, code, name, active, created_at, updated_at FROM departments WHERE id = $1 LIMIT 1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &department, nil
}

// CreateDepartment inserts a department under a business unit.
func (r *BusinessUnitRepository) CreateDepartment(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if department.CreatedAt.IsZero() {
		department.CreatedAt = now
	}
	department.UpdatedAt = now
	const query = `INSERT INTO departments (id, business_unit_id, code, name, active, created_at, updated_at) VALUES (:id, :business_unit_id, :code, :name, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// UpdateDepartment persists mutable department fields.
func (r *BusinessUnitRepository) UpdateDepartment(ctx context.Context, department *models.Department) error {
	department.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = :name, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}

// AddMember links a user to a business unit. Existing links are left untouched.
func (r *BusinessUnitRepository) AddMember(ctx context.Context, businessUnitID, userID string) error {
	const query = `INSERT INTO business_unit_members (user_id, business_unit_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, businessUnitID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add business unit member: %w", err)
	}
	return nil
}

// RemoveMember unlinks a user from a business unit.
func (r *BusinessUnitRepository) RemoveMember(ctx context.Context, businessUnitID, userID string) error {
	const query = `DELETE FROM business_unit_members WHERE user_id = $1 AND business_unit_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, businessUnitID); err != nil {
		return fmt.Errorf("remove business unit member: %w", err)
	}
	return nil
}

// IsMember reports whether the user belongs to the business unit.
func (r *BusinessUnitRepository) IsMember(ctx context.Context, businessUnitID, userID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM business_unit_members WHERE user_id = $1 AND business_unit_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, businessUnitID); err != nil {
		return false, fmt.Errorf("check business unit membership: %w", err)
	}
	return count > 0, nil
}

// ListForUser returns the business units a user belongs to.
func (r *BusinessUnitRepository) ListForUser(ctx context.Context, userID string) ([]models.BusinessUnit, error) {
	const query = `SELECT b.id, b.code, b.name, b.active, b.created_at, b.updated_at
FROM business_units b
JOIN business_unit_members m ON m.business_unit_id = b.id
WHERE m.user_id = $1 AND b.active = TRUE
ORDER BY b.code ASC`
	var units []models.BusinessUnit
	if err := r.db.SelectContext(ctx, &units, query, userID); err != nil {
		return nil, fmt.Errorf("list business units for user: %w", err)
	}
	return units, nil
}
