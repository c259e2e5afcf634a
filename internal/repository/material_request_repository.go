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

const materialRequestColumns = `id, doc_no, series, type, status, business_unit_id, department_id, requester_id,
       rec_approver_id, final_approver_id, prepared_date, required_date, approved_date, posted_date,
       freight, discount, total, remarks, created_at, updated_at`

// MaterialRequestRepository persists material request headers, lines, and
// approval events. The document total invariant is maintained here: every
// header or line write recomputes total from the stored lines.
type MaterialRequestRepository struct {
	db *sqlx.DB
}

// NewMaterialRequestRepository constructs the repository.
func NewMaterialRequestRepository(db *sqlx.DB) *MaterialRequestRepository {
	return &MaterialRequestRepository{db: db}
}

// Create inserts the header and its lines in one transaction.
func (r *MaterialRequestRepository) Create(ctx context.Context, request *models.MaterialRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	if request.Status == "" {
		request.Status = models.StatusDraft
	}
	request.Total = request.ComputeTotal()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const headerQuery = `INSERT INTO material_requests
	(id, doc_no, series, type, status, business_unit_id, department_id, requester_id, rec_approver_id, final_approver_id,
	 prepared_date, required_date, approved_date, posted_date, freight, discount, total, remarks, created_at, updated_at)
	VALUES (:id, :doc_no, :series, :type, :status, :business_unit_id, :department_id, :requester_id, :rec_approver_id, :final_approver_id,
	 :prepared_date, :required_date, :approved_date, :posted_date, :freight, :discount, :total, :remarks, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, headerQuery, request); err != nil {
		return fmt.Errorf("create material request: %w", err)
	}

	if err := insertLines(ctx, tx, request.ID, request.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create request: %w", err)
	}
	return nil
}

// GetByID fetches a request header with its lines.
func (r *MaterialRequestRepository) GetByID(ctx context.Context, id string) (*models.MaterialRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM material_requests WHERE id = $1 LIMIT 1`, materialRequestColumns)
	var request models.MaterialRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get material request: %w", err)
	}

	const lineQuery = `SELECT id, request_id, line_no, item_code, description, unit, quantity, unit_price, line_total
	FROM material_request_items WHERE request_id = $1 ORDER BY line_no ASC`
	if err := r.db.SelectContext(ctx, &request.Items, lineQuery, id); err != nil {
		return nil, fmt.Errorf("get material request items: %w", err)
	}
	return &request, nil
}

// List returns request headers matching the filter (lines not loaded).
func (r *MaterialRequestRepository) List(ctx context.Context, filter models.MaterialRequestFilter) ([]models.MaterialRequest, int, error) {
	baseQuery := `FROM material_requests WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.BusinessUnitID != "" {
		conditions = append(conditions, fmt.Sprintf("business_unit_id = $%d", len(args)+1))
		args = append(args, filter.BusinessUnitID)
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)+1))
		args = append(args, filter.RequesterID)
	}
	if filter.ApproverID != "" {
		conditions = append(conditions, fmt.Sprintf("(rec_approver_id = $%d OR final_approver_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.ApproverID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("prepared_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("prepared_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(doc_no) LIKE $%d OR LOWER(COALESCE(remarks, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"doc_no":        true,
		"prepared_date": true,
		"required_date": true,
		"total":         true,
		"created_at":    true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", materialRequestColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var requests []models.MaterialRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list material requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count material requests: %w", err)
	}

	return requests, total, nil
}

// Update rewrites the header and, when lines are provided, replaces them,
// recomputing the stored total. Only DRAFT and FOR_EDIT rows may be
// updated; the status guard enforces that at the database level.
func (r *MaterialRequestRepository) Update(ctx context.Context, request *models.MaterialRequest, replaceLines bool) error {
	request.UpdatedAt = time.Now().UTC()
	request.Total = request.ComputeTotal()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update request: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const headerQuery = `UPDATE material_requests SET
	department_id = :department_id, rec_approver_id = :rec_approver_id, final_approver_id = :final_approver_id,
	required_date = :required_date, freight = :freight, discount = :discount, total = :total,
	remarks = :remarks, updated_at = :updated_at
	WHERE id = :id AND status IN ('DRAFT', 'FOR_EDIT')`
	result, err := tx.NamedExecContext(ctx, headerQuery, request)
	if err != nil {
		return fmt.Errorf("update material request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if replaceLines {
		if _, err := tx.ExecContext(ctx, `DELETE FROM material_request_items WHERE request_id = $1`, request.ID); err != nil {
			return fmt.Errorf("clear material request items: %w", err)
		}
		if err := insertLines(ctx, tx, request.ID, request.Items); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update request: %w", err)
	}
	return nil
}

// Delete removes a DRAFT request and its lines.
func (r *MaterialRequestRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM material_requests WHERE id = $1 AND status = 'DRAFT'`, id)
	if err != nil {
		return fmt.Errorf("delete material request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TransitionParams groups the columns a status move may touch.
type TransitionParams struct {
	ID           string
	FromStatus   models.RequestStatus
	ToStatus     models.RequestStatus
	ApprovedDate *time.Time
	PostedDate   *time.Time
	ClearDates   bool
}

// Transition performs a status-guarded update. A zero-row result means the
// request was no longer in FromStatus and surfaces as sql.ErrNoRows so the
// caller can map it to a conflict.
func (r *MaterialRequestRepository) Transition(ctx context.Context, params TransitionParams) error {
	set := []string{"status = $3", "updated_at = $4"}
	args := []interface{}{params.ID, params.FromStatus, params.ToStatus, time.Now().UTC()}

	if params.ApprovedDate != nil {
		set = append(set, fmt.Sprintf("approved_date = $%d", len(args)+1))
		args = append(args, *params.ApprovedDate)
	}
	if params.PostedDate != nil {
		set = append(set, fmt.Sprintf("posted_date = $%d", len(args)+1))
		args = append(args, *params.PostedDate)
	}
	if params.ClearDates {
		set = append(set, "approved_date = NULL", "posted_date = NULL")
	}

	query := fmt.Sprintf(`UPDATE material_requests SET %s WHERE id = $1 AND status = $2`, strings.Join(set, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition material request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateApprovalEvent appends a workflow event row.
func (r *MaterialRequestRepository) CreateApprovalEvent(ctx context.Context, event *models.ApprovalEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO approval_events (id, request_id, actor_id, action, from_status, to_status, note, created_at)
	VALUES (:id, :request_id, :actor_id, :action, :from_status, :to_status, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create approval event: %w", err)
	}
	return nil
}

// ListApprovalEvents returns workflow events for a request (oldest first).
func (r *MaterialRequestRepository) ListApprovalEvents(ctx context.Context, requestID string) ([]models.ApprovalEvent, error) {
	const query = `SELECT id, request_id, actor_id, action, from_status, to_status, note, created_at
	FROM approval_events WHERE request_id = $1 ORDER BY created_at ASC`
	var events []models.ApprovalEvent
	if err := r.db.SelectContext(ctx, &events, query, requestID); err != nil {
		return nil, fmt.Errorf("list approval events: %w", err)
	}
	return events, nil
}

// ListRecentEvents returns the latest workflow events in a business unit.
func (r *MaterialRequestRepository) ListRecentEvents(ctx context.Context, businessUnitID string, limit int) ([]models.ApprovalEvent, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT e.id, e.request_id, e.actor_id, e.action, e.from_status, e.to_status, e.note, e.created_at
	FROM approval_events e
	JOIN material_requests mr ON mr.id = e.request_id
	WHERE mr.business_unit_id = $1
	ORDER BY e.created_at DESC LIMIT %d`, limit)
	var events []models.ApprovalEvent
	if err := r.db.SelectContext(ctx, &events, query, businessUnitID); err != nil {
		return nil, fmt.Errorf("list recent approval events: %w", err)
	}
	return events, nil
}

// CountByStatus returns request counts per status for a business unit.
func (r *MaterialRequestRepository) CountByStatus(ctx context.Context, businessUnitID string) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM material_requests WHERE business_unit_id = $1 GROUP BY status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, businessUnitID); err != nil {
		return nil, fmt.Errorf("count requests by status: %w", err)
	}
	return counts, nil
}

func insertLines(ctx context.Context, tx *sqlx.Tx, requestID string, items []models.MaterialRequestItem) error {
	const lineQuery = `INSERT INTO material_request_items (id, request_id, line_no, item_code, description, unit, quantity, unit_price, line_total)
	VALUES (:id, :request_id, :line_no, :item_code, :description, :unit, :quantity, :unit_price, :line_total)`
	for i := range items {
		line := &items[i]
		if line.ID == "" {
			line.ID = uuid.NewString()
		}
		line.RequestID = requestID
		line.LineNo = i + 1
		line.LineTotal = line.Quantity.Mul(line.UnitPrice)
		if _, err := tx.NamedExecContext(ctx, lineQuery, line); err != nil {
			return fmt.Errorf("insert material request item: %w", err)
		}
	}
	return nil
}
