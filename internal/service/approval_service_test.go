package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/models"
	"github.com/noah-isme/procure-mr-api/internal/repository"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
)

type approvalStoreStub struct {
	requests map[string]*models.MaterialRequest
	events   []*models.ApprovalEvent
}

func newApprovalStoreStub() *approvalStoreStub {
	return &approvalStoreStub{requests: make(map[string]*models.MaterialRequest)}
}

func (s *approvalStoreStub) GetByID(ctx context.Context, id string) (*models.MaterialRequest, error) {
	if req, ok := s.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *approvalStoreStub) Transition(ctx context.Context, params repository.TransitionParams) error {
	req, ok := s.requests[params.ID]
	if !ok || req.Status != params.FromStatus {
		return sql.ErrNoRows
	}
	req.Status = params.ToStatus
	if params.ApprovedDate != nil {
		req.ApprovedDate = params.ApprovedDate
	}
	if params.PostedDate != nil {
		req.PostedDate = params.PostedDate
	}
	if params.ClearDates {
		req.ApprovedDate = nil
		req.PostedDate = nil
	}
	return nil
}

func (s *approvalStoreStub) CreateApprovalEvent(ctx context.Context, event *models.ApprovalEvent) error {
	s.events = append(s.events, event)
	return nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type postingStub struct {
	requestIDs []string
	actorIDs   []string
}

func (p *postingStub) EnqueuePosting(ctx context.Context, requestID, actorID string) error {
	p.requestIDs = append(p.requestIDs, requestID)
	p.actorIDs = append(p.actorIDs, actorID)
	return nil
}

func pendingRequest(status models.RequestStatus) *models.MaterialRequest {
	return &models.MaterialRequest{
		ID:              "req-1",
		DocNo:           "HO-MR-000042",
		Type:            models.RequestTypeItem,
		Status:          status,
		BusinessUnitID:  "bu-1",
		RequesterID:     "user-req",
		RecApproverID:   "user-rec",
		FinalApproverID: "user-fin",
		Items: []models.MaterialRequestItem{
			{LineNo: 1, Description: "Cement", Unit: "bag", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(250)},
		},
	}
}

func claimsFor(userID string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: role}
}

func TestApprovalServiceSubmit(t *testing.T) {
	store := newApprovalStoreStub()
	audit := &auditStub{}
	store.requests["req-1"] = pendingRequest(models.StatusDraft)
	svc := NewApprovalService(store, audit, nil, nil, nil)

	request, err := svc.Submit(context.Background(), "bu-1", "req-1", dto.SubmitRequest{Note: "please review"}, claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)
	require.Equal(t, models.StatusForRecApproval, request.Status)
	require.Len(t, store.events, 1)
	require.Equal(t, models.ActionSubmit, store.events[0].Action)
	require.Equal(t, models.StatusDraft, store.events[0].FromStatus)
	require.Len(t, audit.logs, 1)
}

type invalidatorStub struct {
	businessUnits []string
}

func (i *invalidatorStub) Invalidate(ctx context.Context, businessUnitID string) {
	i.businessUnits = append(i.businessUnits, businessUnitID)
}

func TestApprovalServiceInvalidatesDashboards(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusDraft)
	dashboards := &invalidatorStub{}
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil).WithDashboardInvalidator(dashboards)

	_, err := svc.Submit(context.Background(), "bu-1", "req-1", dto.SubmitRequest{}, claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)
	require.Equal(t, []string{"bu-1"}, dashboards.businessUnits)

	// Recommend routes through two statuses; each move drops the cache.
	_, err = svc.Recommend(context.Background(), "bu-1", "req-1", dto.ApproveRequest{}, claimsFor("user-rec", models.RoleApprover))
	require.NoError(t, err)
	require.Len(t, dashboards.businessUnits, 3)
}

func TestApprovalServiceSubmitRequiresLines(t *testing.T) {
	store := newApprovalStoreStub()
	request := pendingRequest(models.StatusDraft)
	request.Items = nil
	store.requests["req-1"] = request
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), "bu-1", "req-1", dto.SubmitRequest{}, claimsFor("user-req", models.RoleRequester))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceSubmitRequiresApprovers(t *testing.T) {
	store := newApprovalStoreStub()
	request := pendingRequest(models.StatusDraft)
	request.FinalApproverID = ""
	store.requests["req-1"] = request
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), "bu-1", "req-1", dto.SubmitRequest{}, claimsFor("user-req", models.RoleRequester))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceSubmitOnlyRequester(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusDraft)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), "bu-1", "req-1", dto.SubmitRequest{}, claimsFor("someone-else", models.RoleRequester))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceBusinessUnitScope(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusDraft)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), "bu-other", "req-1", dto.SubmitRequest{}, claimsFor("user-req", models.RoleRequester))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrBusinessUnitScope.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceRecommendRoutesOnToFinal(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusForRecApproval)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	request, err := svc.Recommend(context.Background(), "bu-1", "req-1", dto.ApproveRequest{Note: "looks fine"}, claimsFor("user-rec", models.RoleApprover))
	require.NoError(t, err)
	require.Equal(t, models.StatusForFinalApproval, request.Status)
	require.Len(t, store.events, 2)
	require.Equal(t, models.StatusRecApproved, store.events[0].ToStatus)
	require.Equal(t, models.StatusForFinalApproval, store.events[1].ToStatus)
}

func TestApprovalServiceRecommendWrongApprover(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusForRecApproval)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	_, err := svc.Recommend(context.Background(), "bu-1", "req-1", dto.ApproveRequest{}, claimsFor("user-fin", models.RoleApprover))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceRecommendAdminOverride(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusForRecApproval)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	request, err := svc.Recommend(context.Background(), "bu-1", "req-1", dto.ApproveRequest{}, claimsFor("admin-1", models.RoleAdmin))
	require.NoError(t, err)
	require.Equal(t, models.StatusForFinalApproval, request.Status)
}

func TestApprovalServiceFinalizeStampsApprovedDate(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusForFinalApproval)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	request, err := svc.Finalize(context.Background(), "bu-1", "req-1", dto.ApproveRequest{}, claimsFor("user-fin", models.RoleApprover))
	require.NoError(t, err)
	require.Equal(t, models.StatusFinalApproved, request.Status)
	require.NotNil(t, request.ApprovedDate)
}

func TestApprovalServiceFinalizeAutoPost(t *testing.T) {
	store := newApprovalStoreStub()
	posting := &postingStub{}
	store.requests["req-1"] = pendingRequest(models.StatusForFinalApproval)
	svc := NewApprovalService(store, &auditStub{}, posting, nil, nil)

	request, err := svc.Finalize(context.Background(), "bu-1", "req-1", dto.ApproveRequest{AutoPost: true}, claimsFor("user-fin", models.RoleApprover))
	require.NoError(t, err)
	require.Equal(t, models.StatusForPosting, request.Status)
	require.Equal(t, []string{"req-1"}, posting.requestIDs)
	require.Equal(t, []string{"user-fin"}, posting.actorIDs)
}

func TestApprovalServiceDisapproveRequiresReason(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusForRecApproval)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	_, err := svc.Disapprove(context.Background(), "bu-1", "req-1", dto.DisapproveRequest{}, claimsFor("user-rec", models.RoleApprover))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceDisapproveAtFinalStage(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusForFinalApproval)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	request, err := svc.Disapprove(context.Background(), "bu-1", "req-1", dto.DisapproveRequest{Reason: "over budget"}, claimsFor("user-fin", models.RoleApprover))
	require.NoError(t, err)
	require.Equal(t, models.StatusDisapproved, request.Status)
	require.Equal(t, "over budget", *store.events[0].Note)
}

func TestApprovalServiceDisapproveOutsidePendingStage(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusDraft)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	_, err := svc.Disapprove(context.Background(), "bu-1", "req-1", dto.DisapproveRequest{Reason: "nope"}, claimsFor("user-rec", models.RoleApprover))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceRecallClearsDates(t *testing.T) {
	store := newApprovalStoreStub()
	request := pendingRequest(models.StatusForFinalApproval)
	store.requests["req-1"] = request
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	recalled, err := svc.Recall(context.Background(), "bu-1", "req-1", dto.RecallRequest{Note: "fix prices"}, claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)
	require.Equal(t, models.StatusForEdit, recalled.Status)
	require.Nil(t, recalled.ApprovedDate)
	require.Nil(t, recalled.PostedDate)
}

func TestApprovalServiceCancel(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusDraft)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	request, err := svc.Cancel(context.Background(), "bu-1", "req-1", dto.RecallRequest{}, claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, request.Status)
}

func TestApprovalServicePostRequiresPosterRole(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusFinalApproved)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	_, err := svc.Post(context.Background(), "bu-1", "req-1", dto.CompleteRequest{}, claimsFor("user-req", models.RoleRequester))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	request, err := svc.Post(context.Background(), "bu-1", "req-1", dto.CompleteRequest{}, claimsFor("user-post", models.RolePoster))
	require.NoError(t, err)
	require.Equal(t, models.StatusPosted, request.Status)
	require.NotNil(t, request.PostedDate)
}

func TestApprovalServiceStaleStatusConflict(t *testing.T) {
	store := newApprovalStoreStub()
	request := pendingRequest(models.StatusForRecApproval)
	store.requests["req-1"] = request
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	// Another actor wins the race after this caller loaded the request.
	loaded, err := store.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	request.Status = models.StatusDisapproved

	err = svc.move(context.Background(), loaded, models.ActionRecommend, models.StatusRecApproved, "user-rec", "", nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrStaleStatus.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceCompletePosting(t *testing.T) {
	store := newApprovalStoreStub()
	store.requests["req-1"] = pendingRequest(models.StatusForPosting)
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	require.NoError(t, svc.CompletePosting(context.Background(), "req-1", "user-fin"))
	require.Equal(t, models.StatusPosted, store.requests["req-1"].Status)
}

func TestApprovalServiceCompleteByType(t *testing.T) {
	store := newApprovalStoreStub()
	item := pendingRequest(models.StatusPosted)
	store.requests["req-1"] = item
	svc := NewApprovalService(store, &auditStub{}, nil, nil, nil)

	request, err := svc.Complete(context.Background(), "bu-1", "req-1", dto.CompleteRequest{}, claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)
	require.Equal(t, models.StatusReceived, request.Status)
	require.Equal(t, models.ActionReceive, store.events[0].Action)

	serviceReq := pendingRequest(models.StatusPosted)
	serviceReq.ID = "req-2"
	serviceReq.Type = models.RequestTypeService
	store.requests["req-2"] = serviceReq

	request, err = svc.Complete(context.Background(), "bu-1", "req-2", dto.CompleteRequest{}, claimsFor("user-req", models.RoleRequester))
	require.NoError(t, err)
	require.Equal(t, models.StatusTransmitted, request.Status)
}
