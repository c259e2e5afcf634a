package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/procure-mr-api/internal/models"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
)

type businessUnitRepository interface {
	List(ctx context.Context, filter models.BusinessUnitFilter) ([]models.BusinessUnit, int, error)
	GetByID(ctx context.Context, id string) (*models.BusinessUnit, error)
	Create(ctx context.Context, unit *models.BusinessUnit) error
	Update(ctx context.Context, unit *models.BusinessUnit) error
	ListDepartments(ctx context.Context, businessUnitID string) ([]models.Department, error)
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	CreateDepartment(ctx context.Context, department *models.Department) error
	UpdateDepartment(ctx context.Context, department *models.Department) error
	AddMember(ctx context.Context, businessUnitID, userID string) error
	RemoveMember(ctx context.Context, businessUnitID, userID string) error
	ListForUser(ctx context.Context, userID string) ([]models.BusinessUnit, error)
}

type seriesRepository interface {
	ListForBusinessUnit(ctx context.Context, businessUnitID string) ([]models.DocumentSeries, error)
	Create(ctx context.Context, series *models.DocumentSeries) error
}

type businessUnitAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateBusinessUnitRequest payload for creating business units.
type CreateBusinessUnitRequest struct {
	Code   string `json:"code" validate:"required,alphanum,max=16"`
	Name   string `json:"name" validate:"required"`
	Active bool   `json:"active"`
}

// UpdateBusinessUnitRequest payload for updating business units.
type UpdateBusinessUnitRequest struct {
	Name   string `json:"name" validate:"required"`
	Active *bool  `json:"active"`
}

// CreateDepartmentRequest payload for adding a department to a unit.
type CreateDepartmentRequest struct {
	Code   string `json:"code" validate:"required,max=16"`
	Name   string `json:"name" validate:"required"`
	Active bool   `json:"active"`
}

// UpdateDepartmentRequest payload for updating a department.
type UpdateDepartmentRequest struct {
	Name   string `json:"name" validate:"required"`
	Active *bool  `json:"active"`
}

// CreateSeriesRequest payload for registering a document series.
type CreateSeriesRequest struct {
	Code    string `json:"code" validate:"required,max=16"`
	Prefix  string `json:"prefix" validate:"required,max=16"`
	Start   int64  `json:"start" validate:"min=0"`
	Padding int    `json:"padding" validate:"min=1,max=12"`
}

// BusinessUnitService manages business units, departments, memberships,
// and document series.
type BusinessUnitService struct {
	repo      businessUnitRepository
	series    seriesRepository
	audit     businessUnitAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBusinessUnitService creates a BusinessUnitService.
func NewBusinessUnitService(repo businessUnitRepository, series seriesRepository, audit businessUnitAuditRepository, validate *validator.Validate, logger *zap.Logger) *BusinessUnitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BusinessUnitService{repo: repo, series: series, audit: audit, validator: validate, logger: logger}
}

// List returns paginated business units.
func (s *BusinessUnitService) List(ctx context.Context, filter models.BusinessUnitFilter) ([]models.BusinessUnit, *models.Pagination, error) {
	units, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list business units")
	}

	return units, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a business unit by ID.
func (s *BusinessUnitService) Get(ctx context.Context, id string) (*models.BusinessUnit, error) {
	unit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "business unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load business unit")
	}
	return unit, nil
}

// ListForUser returns the business units a user belongs to.
func (s *BusinessUnitService) ListForUser(ctx context.Context, userID string) ([]models.BusinessUnit, error) {
	units, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list user business units")
	}
	return units, nil
}

// Create adds a new business unit.
func (s *BusinessUnitService) Create(ctx context.Context, req CreateBusinessUnitRequest, actorID string) (*models.BusinessUnit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid business unit payload")
	}

	unit := &models.BusinessUnit{
		ID:     uuid.NewString(),
		Code:   strings.ToUpper(req.Code),
		Name:   req.Name,
		Active: req.Active,
	}
	if err := s.repo.Create(ctx, unit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create business unit")
	}

	s.recordAudit(ctx, actorID, "business_units", unit.ID, map[string]interface{}{"code": unit.Code, "name": unit.Name})
	return unit, nil
}

// Update modifies a business unit.
func (s *BusinessUnitService) Update(ctx context.Context, id string, req UpdateBusinessUnitRequest, actorID string) (*models.BusinessUnit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid business unit payload")
	}

	unit, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	unit.Name = req.Name
	if req.Active != nil {
		unit.Active = *req.Active
	}
	if err := s.repo.Update(ctx, unit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update business unit")
	}

	s.recordAudit(ctx, actorID, "business_units", unit.ID, map[string]interface{}{"name": unit.Name, "active": unit.Active})
	return unit, nil
}

// ListDepartments returns the departments of a business unit.
func (s *BusinessUnitService) ListDepartments(ctx context.Context, businessUnitID string) ([]models.Department, error) {
	departments, err := s.repo.ListDepartments(ctx, businessUnitID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// CreateDepartment registers a department under a business unit.
func (s *BusinessUnitService) CreateDepartment(ctx context.Context, businessUnitID string, req CreateDepartmentRequest, actorID string) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}

	if _, err := s.Get(ctx, businessUnitID); err != nil {
		return nil, err
	}

	department := &models.Department{
		ID:             uuid.NewString(),
		BusinessUnitID: businessUnitID,
		Code:           strings.ToUpper(req.Code),
		Name:           req.Name,
		Active:         req.Active,
	}
	if err := s.repo.CreateDepartment(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}

	s.recordAudit(ctx, actorID, "departments", department.ID, map[string]interface{}{"code": department.Code, "business_unit_id": businessUnitID})
	return department, nil
}

// UpdateDepartment modifies a department.
func (s *BusinessUnitService) UpdateDepartment(ctx context.Context, businessUnitID, departmentID string, req UpdateDepartmentRequest, actorID string) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}

	department, err := s.repo.GetDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	if department.BusinessUnitID != businessUnitID {
		return nil, appErrors.Clone(appErrors.ErrBusinessUnitScope, "department belongs to another business unit")
	}

	department.Name = req.Name
	if req.Active != nil {
		department.Active = *req.Active
	}
	if err := s.repo.UpdateDepartment(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}

	s.recordAudit(ctx, actorID, "departments", department.ID, map[string]interface{}{"name": department.Name, "active": department.Active})
	return department, nil
}

// AddMember grants a user access to a business unit.
func (s *BusinessUnitService) AddMember(ctx context.Context, businessUnitID, userID, actorID string) error {
	if _, err := s.Get(ctx, businessUnitID); err != nil {
		return err
	}
	if err := s.repo.AddMember(ctx, businessUnitID, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add member")
	}
	s.recordAudit(ctx, actorID, "business_unit_members", businessUnitID, map[string]interface{}{"user_id": userID, "op": "add"})
	return nil
}

// RemoveMember revokes a user's access to a business unit.
func (s *BusinessUnitService) RemoveMember(ctx context.Context, businessUnitID, userID, actorID string) error {
	if err := s.repo.RemoveMember(ctx, businessUnitID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "membership not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove member")
	}
	s.recordAudit(ctx, actorID, "business_unit_members", businessUnitID, map[string]interface{}{"user_id": userID, "op": "remove"})
	return nil
}

// ListSeries returns the document series of a business unit.
func (s *BusinessUnitService) ListSeries(ctx context.Context, businessUnitID string) ([]models.DocumentSeries, error) {
	series, err := s.series.ListForBusinessUnit(ctx, businessUnitID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list document series")
	}
	return series, nil
}

// CreateSeries registers a numbering series for a business unit.
func (s *BusinessUnitService) CreateSeries(ctx context.Context, businessUnitID string, req CreateSeriesRequest, actorID string) (*models.DocumentSeries, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series payload")
	}

	if _, err := s.Get(ctx, businessUnitID); err != nil {
		return nil, err
	}

	start := req.Start
	if start <= 0 {
		start = 1
	}
	series := &models.DocumentSeries{
		ID:             uuid.NewString(),
		BusinessUnitID: businessUnitID,
		Code:           strings.ToUpper(req.Code),
		Prefix:         req.Prefix,
		NextNumber:     start,
		Padding:        req.Padding,
	}
	if err := s.series.Create(ctx, series); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document series")
	}

	s.recordAudit(ctx, actorID, "document_series", series.ID, map[string]interface{}{"code": series.Code, "prefix": series.Prefix})
	return series, nil
}

func (s *BusinessUnitService) recordAudit(ctx context.Context, actorID, resource, resourceID string, values map[string]interface{}) {
	payload, _ := json.Marshal(values)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionMasterUpdate,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("resource", resource), zap.Error(err))
	}
}
