package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/models"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type materialRequestRepository interface {
	Create(ctx context.Context, request *models.MaterialRequest) error
	GetByID(ctx context.Context, id string) (*models.MaterialRequest, error)
	List(ctx context.Context, filter models.MaterialRequestFilter) ([]models.MaterialRequest, int, error)
	Update(ctx context.Context, request *models.MaterialRequest, replaceLines bool) error
	Delete(ctx context.Context, id string) error
	ListApprovalEvents(ctx context.Context, requestID string) ([]models.ApprovalEvent, error)
}

type docNumberAllocator interface {
	NextDocNo(ctx context.Context, businessUnitID, code string) (string, error)
}

type requestAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// MaterialRequestService implements draft lifecycle operations: create,
// read, list, update, and delete. Workflow transitions live in
// ApprovalService.
type MaterialRequestService struct {
	repo      materialRequestRepository
	series    docNumberAllocator
	audit     requestAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialRequestService constructs a MaterialRequestService.
func NewMaterialRequestService(repo materialRequestRepository, series docNumberAllocator, audit requestAuditRepository, validate *validator.Validate, logger *zap.Logger) *MaterialRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MaterialRequestService{repo: repo, series: series, audit: audit, validator: validate, logger: logger}
}

// Create drafts a new material request, allocating its document number
// from the business unit's series.
func (s *MaterialRequestService) Create(ctx context.Context, businessUnitID string, req dto.CreateMaterialRequest, claims *models.JWTClaims) (*models.MaterialRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material request payload")
	}

	requiredDate, err := time.Parse(dateLayout, req.RequiredDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "required_date must be YYYY-MM-DD")
	}

	docNo, err := s.series.NextDocNo(ctx, businessUnitID, req.Series)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate document number")
	}

	request := &models.MaterialRequest{
		DocNo:           docNo,
		Series:          req.Series,
		Type:            req.Type,
		Status:          models.StatusDraft,
		BusinessUnitID:  businessUnitID,
		DepartmentID:    req.DepartmentID,
		RequesterID:     claims.UserID,
		RecApproverID:   req.RecApproverID,
		FinalApproverID: req.FinalApproverID,
		PreparedDate:    time.Now().UTC(),
		RequiredDate:    requiredDate,
		Freight:         req.Freight,
		Discount:        req.Discount,
		Items:           toRequestItems(req.Items),
	}
	if req.Remarks != "" {
		request.Remarks = &req.Remarks
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material request")
	}

	payload, _ := json.Marshal(map[string]interface{}{"doc_no": request.DocNo, "type": request.Type, "total": request.Total})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     models.AuditActionRequestCreate,
		Resource:   "material_requests",
		ResourceID: &request.ID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record request create audit log", zap.Error(err))
	}

	return request, nil
}

// Get loads a request with lines, enforcing the business unit scope.
func (s *MaterialRequestService) Get(ctx context.Context, businessUnitID, id string) (*models.MaterialRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material request")
	}
	if request.BusinessUnitID != businessUnitID {
		return nil, appErrors.Clone(appErrors.ErrBusinessUnitScope, "request belongs to another business unit")
	}
	return request, nil
}

// List returns request headers matching the query within the business unit.
func (s *MaterialRequestService) List(ctx context.Context, businessUnitID string, query dto.MaterialRequestQuery) ([]models.MaterialRequest, *models.Pagination, error) {
	filter := models.MaterialRequestFilter{
		BusinessUnitID: businessUnitID,
		Status:         query.Status,
		Type:           query.Type,
		DepartmentID:   query.DepartmentID,
		RequesterID:    query.RequesterID,
		Search:         query.Search,
		Page:           query.Page,
		PageSize:       query.PageSize,
		SortBy:         query.SortBy,
		SortOrder:      query.SortOrder,
	}
	for _, status := range filter.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter value")
		}
	}
	if query.DateFrom != "" {
		from, err := time.Parse(dateLayout, query.DateFrom)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "date_from must be YYYY-MM-DD")
		}
		filter.DateFrom = &from
	}
	if query.DateTo != "" {
		to, err := time.Parse(dateLayout, query.DateTo)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "date_to must be YYYY-MM-DD")
		}
		filter.DateTo = &to
	}

	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list material requests")
	}

	return requests, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Update edits a DRAFT or FOR_EDIT request. Only the requester or an
// admin may edit; lines, when provided, replace the existing set.
func (s *MaterialRequestService) Update(ctx context.Context, businessUnitID, id string, req dto.UpdateMaterialRequest, claims *models.JWTClaims) (*models.MaterialRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material request payload")
	}

	request, err := s.Get(ctx, businessUnitID, id)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != claims.UserID && !claims.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requester may edit this request")
	}
	if !request.Status.IsEditable() {
		return nil, appErrors.Clone(appErrors.ErrNotEditable, "request is no longer editable")
	}

	requiredDate, err := time.Parse(dateLayout, req.RequiredDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "required_date must be YYYY-MM-DD")
	}

	request.DepartmentID = req.DepartmentID
	request.RecApproverID = req.RecApproverID
	request.FinalApproverID = req.FinalApproverID
	request.RequiredDate = requiredDate
	request.Freight = req.Freight
	request.Discount = req.Discount
	request.Remarks = nil
	if req.Remarks != "" {
		request.Remarks = &req.Remarks
	}

	replaceLines := req.Items != nil
	if replaceLines {
		request.Items = toRequestItems(req.Items)
	}

	if err := s.repo.Update(ctx, request, replaceLines); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotEditable, "request is no longer editable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update material request")
	}

	payload, _ := json.Marshal(map[string]interface{}{"doc_no": request.DocNo, "total": request.Total})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     models.AuditActionRequestUpdate,
		Resource:   "material_requests",
		ResourceID: &request.ID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record request update audit log", zap.Error(err))
	}

	return request, nil
}

// Delete removes a DRAFT request. Requester or admin only.
func (s *MaterialRequestService) Delete(ctx context.Context, businessUnitID, id string, claims *models.JWTClaims) error {
	request, err := s.Get(ctx, businessUnitID, id)
	if err != nil {
		return err
	}
	if request.RequesterID != claims.UserID && !claims.Role.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only the requester may delete this request")
	}
	if request.Status != models.StatusDraft {
		return appErrors.Clone(appErrors.ErrNotEditable, "only draft requests can be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotEditable, "only draft requests can be deleted")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material request")
	}

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     models.AuditActionRequestDelete,
		Resource:   "material_requests",
		ResourceID: &request.ID,
	}); err != nil {
		s.logger.Warn("failed to record request delete audit log", zap.Error(err))
	}

	return nil
}

// ListEvents returns the approval trail for a request.
func (s *MaterialRequestService) ListEvents(ctx context.Context, businessUnitID, id string) ([]models.ApprovalEvent, error) {
	if _, err := s.Get(ctx, businessUnitID, id); err != nil {
		return nil, err
	}
	events, err := s.repo.ListApprovalEvents(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approval events")
	}
	return events, nil
}

func toRequestItems(lines []dto.RequestLine) []models.MaterialRequestItem {
	items := make([]models.MaterialRequestItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.MaterialRequestItem{
			ItemCode:    line.ItemCode,
			Description: line.Description,
			Unit:        line.Unit,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	return items
}
