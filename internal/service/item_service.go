package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/procure-mr-api/internal/models"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
)

type itemRepository interface {
	List(ctx context.Context, filter models.CatalogItemFilter) ([]models.CatalogItem, int, error)
	GetByCode(ctx context.Context, code string) (*models.CatalogItem, error)
	Create(ctx context.Context, item *models.CatalogItem) error
	Update(ctx context.Context, item *models.CatalogItem) error
}

// CreateItemRequest payload for adding a catalog item.
type CreateItemRequest struct {
	Code        string `json:"code" validate:"required,max=32"`
	Description string `json:"description" validate:"required"`
	Unit        string `json:"unit" validate:"required,max=16"`
	Active      bool   `json:"active"`
}

// UpdateItemRequest payload for updating a catalog item.
type UpdateItemRequest struct {
	Description string `json:"description" validate:"required"`
	Unit        string `json:"unit" validate:"required,max=16"`
	Active      *bool  `json:"active"`
}

// ItemService manages the item catalog.
type ItemService struct {
	repo      itemRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewItemService creates an ItemService.
func NewItemService(repo itemRepository, validate *validator.Validate, logger *zap.Logger) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ItemService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated catalog items.
func (s *ItemService) List(ctx context.Context, filter models.CatalogItemFilter) ([]models.CatalogItem, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list catalog items")
	}

	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a catalog item by its code.
func (s *ItemService) Get(ctx context.Context, code string) (*models.CatalogItem, error) {
	item, err := s.repo.GetByCode(ctx, strings.ToUpper(code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "catalog item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog item")
	}
	return item, nil
}

// Create adds a catalog item.
func (s *ItemService) Create(ctx context.Context, req CreateItemRequest) (*models.CatalogItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid catalog item payload")
	}

	code := strings.ToUpper(req.Code)
	if _, err := s.repo.GetByCode(ctx, code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "item code already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check item code")
	}

	item := &models.CatalogItem{
		ID:          uuid.NewString(),
		Code:        code,
		Description: req.Description,
		Unit:        req.Unit,
		Active:      req.Active,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create catalog item")
	}
	return item, nil
}

// Update modifies a catalog item.
func (s *ItemService) Update(ctx context.Context, code string, req UpdateItemRequest) (*models.CatalogItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid catalog item payload")
	}

	item, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	item.Description = req.Description
	item.Unit = req.Unit
	if req.Active != nil {
		item.Active = *req.Active
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update catalog item")
	}
	return item, nil
}
