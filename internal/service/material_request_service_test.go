package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/models"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
)

type requestRepoStub struct {
	requests map[string]*models.MaterialRequest
	filter   models.MaterialRequestFilter
	events   map[string][]models.ApprovalEvent
	nextID   int
}

func newRequestRepoStub() *requestRepoStub {
	return &requestRepoStub{
		requests: make(map[string]*models.MaterialRequest),
		events:   make(map[string][]models.ApprovalEvent),
	}
}

func (r *requestRepoStub) Create(ctx context.Context, request *models.MaterialRequest) error {
	r.nextID++
	request.ID = fmt.Sprintf("req-%d", r.nextID)
	request.Total = request.ComputeTotal()
	stored := *request
	r.requests[request.ID] = &stored
	return nil
}

func (r *requestRepoStub) GetByID(ctx context.Context, id string) (*models.MaterialRequest, error) {
	if req, ok := r.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *requestRepoStub) List(ctx context.Context, filter models.MaterialRequestFilter) ([]models.MaterialRequest, int, error) {
	r.filter = filter
	result := make([]models.MaterialRequest, 0, len(r.requests))
	for _, req := range r.requests {
		result = append(result, *req)
	}
	return result, len(result), nil
}

func (r *requestRepoStub) Update(ctx context.Context, request *models.MaterialRequest, replaceLines bool) error {
	stored, ok := r.requests[request.ID]
	if !ok || !stored.Status.IsEditable() {
		return sql.ErrNoRows
	}
	request.Total = request.ComputeTotal()
	updated := *request
	if !replaceLines {
		updated.Items = stored.Items
	}
	r.requests[request.ID] = &updated
	return nil
}

func (r *requestRepoStub) Delete(ctx context.Context, id string) error {
	stored, ok := r.requests[id]
	if !ok || stored.Status != models.StatusDraft {
		return sql.ErrNoRows
	}
	delete(r.requests, id)
	return nil
}

func (r *requestRepoStub) ListApprovalEvents(ctx context.Context, requestID string) ([]models.ApprovalEvent, error) {
	return r.events[requestID], nil
}

type seriesStub struct {
	docNos map[string]string
}

func (s *seriesStub) NextDocNo(ctx context.Context, businessUnitID, code string) (string, error) {
	if docNo, ok := s.docNos[businessUnitID+"/"+code]; ok {
		return docNo, nil
	}
	return "", sql.ErrNoRows
}

func validCreatePayload() dto.CreateMaterialRequest {
	return dto.CreateMaterialRequest{
		Series:          "MR",
		Type:            models.RequestTypeItem,
		DepartmentID:    "dept-1",
		RecApproverID:   "user-rec",
		FinalApproverID: "user-fin",
		RequiredDate:    "2026-09-15",
		Freight:         decimal.RequireFromString("25.50"),
		Discount:        decimal.RequireFromString("10.00"),
		Remarks:         "urgent",
		Items: []dto.RequestLine{
			{Description: "Cement", Unit: "bag", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(250)},
		},
	}
}

func TestMaterialRequestServiceCreate(t *testing.T) {
	repo := newRequestRepoStub()
	series := &seriesStub{docNos: map[string]string{"bu-1/MR": "HO-MR-000001"}}
	audit := &auditStub{}
	svc := NewMaterialRequestService(repo, series, audit, nil, nil)

	request, err := svc.Create(context.Background(), "bu-1", validCreatePayload(), claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)
	require.Equal(t, "HO-MR-000001", request.DocNo)
	require.Equal(t, models.StatusDraft, request.Status)
	require.Equal(t, "user-req", request.RequesterID)
	require.True(t, request.Total.Equal(decimal.RequireFromString("2515.50")))
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionRequestCreate, audit.logs[0].Action)
}

func TestMaterialRequestServiceCreateUnknownSeries(t *testing.T) {
	repo := newRequestRepoStub()
	series := &seriesStub{docNos: map[string]string{}}
	svc := NewMaterialRequestService(repo, series, &auditStub{}, nil, nil)

	_, err := svc.Create(context.Background(), "bu-1", validCreatePayload(), claimsFor("user-req", models.RoleRequester))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMaterialRequestServiceCreateBadDate(t *testing.T) {
	repo := newRequestRepoStub()
	series := &seriesStub{docNos: map[string]string{"bu-1/MR": "HO-MR-000001"}}
	svc := NewMaterialRequestService(repo, series, &auditStub{}, nil, nil)

	payload := validCreatePayload()
	payload.RequiredDate = "15/09/2026"
	_, err := svc.Create(context.Background(), "bu-1", payload, claimsFor("user-req", models.RoleRequester))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMaterialRequestServiceGetScopesBusinessUnit(t *testing.T) {
	repo := newRequestRepoStub()
	series := &seriesStub{docNos: map[string]string{"bu-1/MR": "HO-MR-000001"}}
	svc := NewMaterialRequestService(repo, series, &auditStub{}, nil, nil)

	created, err := svc.Create(context.Background(), "bu-1", validCreatePayload(), claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "bu-other", created.ID)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrBusinessUnitScope.Code, appErrors.FromError(err).Code)
}

func TestMaterialRequestServiceListFilters(t *testing.T) {
	repo := newRequestRepoStub()
	svc := NewMaterialRequestService(repo, &seriesStub{}, &auditStub{}, nil, nil)

	_, pagination, err := svc.List(context.Background(), "bu-1", dto.MaterialRequestQuery{
		Status:   []models.RequestStatus{models.StatusDraft, models.StatusForRecApproval},
		DateFrom: "2026-01-01",
		DateTo:   "2026-12-31",
	})
	require.NoError(t, err)
	require.Equal(t, "bu-1", repo.filter.BusinessUnitID)
	require.Len(t, repo.filter.Status, 2)
	require.NotNil(t, repo.filter.DateFrom)
	require.NotNil(t, repo.filter.DateTo)
	require.Equal(t, 1, pagination.Page)
	require.Equal(t, 20, pagination.PageSize)
}

func TestMaterialRequestServiceListRejectsUnknownStatus(t *testing.T) {
	svc := NewMaterialRequestService(newRequestRepoStub(), &seriesStub{}, &auditStub{}, nil, nil)

	_, _, err := svc.List(context.Background(), "bu-1", dto.MaterialRequestQuery{
		Status: []models.RequestStatus{"PENDING"},
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMaterialRequestServiceUpdateReplacesLines(t *testing.T) {
	repo := newRequestRepoStub()
	series := &seriesStub{docNos: map[string]string{"bu-1/MR": "HO-MR-000001"}}
	svc := NewMaterialRequestService(repo, series, &auditStub{}, nil, nil)

	created, err := svc.Create(context.Background(), "bu-1", validCreatePayload(), claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), "bu-1", created.ID, dto.UpdateMaterialRequest{
		DepartmentID:    "dept-2",
		RecApproverID:   "user-rec",
		FinalApproverID: "user-fin",
		RequiredDate:    "2026-10-01",
		Items: []dto.RequestLine{
			{Description: "Gravel", Unit: "cu.m", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(900)},
		},
	}, claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)
	require.Equal(t, "dept-2", updated.DepartmentID)
	require.Len(t, updated.Items, 1)
	require.Equal(t, "Gravel", updated.Items[0].Description)
	require.True(t, updated.Total.Equal(decimal.NewFromInt(1800)))
}

func TestMaterialRequestServiceUpdateNotEditable(t *testing.T) {
	repo := newRequestRepoStub()
	series := &seriesStub{docNos: map[string]string{"bu-1/MR": "HO-MR-000001"}}
	svc := NewMaterialRequestService(repo, series, &auditStub{}, nil, nil)

	created, err := svc.Create(context.Background(), "bu-1", validCreatePayload(), claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)
	repo.requests[created.ID].Status = models.StatusForRecApproval

	payload := dto.UpdateMaterialRequest{
		DepartmentID:    "dept-1",
		RecApproverID:   "user-rec",
		FinalApproverID: "user-fin",
		RequiredDate:    "2026-10-01",
	}
	_, err = svc.Update(context.Background(), "bu-1", created.ID, payload, claimsFor("user-req", models.RoleRequester))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotEditable.Code, appErrors.FromError(err).Code)
}

func TestMaterialRequestServiceUpdateOnlyRequester(t *testing.T) {
	repo := newRequestRepoStub()
	series := &seriesStub{docNos: map[string]string{"bu-1/MR": "HO-MR-000001"}}
	svc := NewMaterialRequestService(repo, series, &auditStub{}, nil, nil)

	created, err := svc.Create(context.Background(), "bu-1", validCreatePayload(), claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)

	payload := dto.UpdateMaterialRequest{
		DepartmentID:    "dept-1",
		RecApproverID:   "user-rec",
		FinalApproverID: "user-fin",
		RequiredDate:    "2026-10-01",
	}
	_, err = svc.Update(context.Background(), "bu-1", created.ID, payload, claimsFor("someone-else", models.RoleRequester))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMaterialRequestServiceDeleteDraftOnly(t *testing.T) {
	repo := newRequestRepoStub()
	series := &seriesStub{docNos: map[string]string{"bu-1/MR": "HO-MR-000001"}}
	svc := NewMaterialRequestService(repo, series, &auditStub{}, nil, nil)

	created, err := svc.Create(context.Background(), "bu-1", validCreatePayload(), claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)

	repo.requests[created.ID].Status = models.StatusPosted
	err = svc.Delete(context.Background(), "bu-1", created.ID, claimsFor("user-req", models.RoleRequester))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotEditable.Code, appErrors.FromError(err).Code)

	repo.requests[created.ID].Status = models.StatusDraft
	require.NoError(t, svc.Delete(context.Background(), "bu-1", created.ID, claimsFor("user-req", models.RoleRequester)))
	require.Empty(t, repo.requests)
}
