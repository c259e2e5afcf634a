package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/models"
	"github.com/noah-isme/procure-mr-api/internal/repository"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
)

type approvalStore interface {
	GetByID(ctx context.Context, id string) (*models.MaterialRequest, error)
	Transition(ctx context.Context, params repository.TransitionParams) error
	CreateApprovalEvent(ctx context.Context, event *models.ApprovalEvent) error
}

// PostingDispatcher enqueues asynchronous posting work after final approval.
type PostingDispatcher interface {
	EnqueuePosting(ctx context.Context, requestID, actorID string) error
}

// PostingDispatcherFunc allows using plain functions as dispatchers.
type PostingDispatcherFunc func(ctx context.Context, requestID, actorID string) error

// EnqueuePosting implements PostingDispatcher.
func (f PostingDispatcherFunc) EnqueuePosting(ctx context.Context, requestID, actorID string) error {
	return f(ctx, requestID, actorID)
}

// DashboardInvalidator drops cached dashboards for a business unit so
// widget counts reflect workflow moves immediately.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context, businessUnitID string)
}

// ApprovalService drives material requests through the approval workflow.
// Every transition is validated against the lifecycle table, persisted with
// a status guard, and recorded as an approval event plus an audit log.
type ApprovalService struct {
	repo       approvalStore
	audit      auditLogger
	posting    PostingDispatcher
	metrics    *MetricsService
	dashboards DashboardInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// NewApprovalService constructs an ApprovalService. The posting dispatcher
// may be nil, in which case auto-post requests stay in FOR_POSTING until a
// poster acts on them.
func NewApprovalService(repo approvalStore, audit auditLogger, posting PostingDispatcher, validate *validator.Validate, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ApprovalService{repo: repo, audit: audit, posting: posting, validator: validate, logger: logger}
}

// WithMetrics enables workflow transition counters. Optional.
func (s *ApprovalService) WithMetrics(metrics *MetricsService) *ApprovalService {
	s.metrics = metrics
	return s
}

// WithDashboardInvalidator drops cached dashboards after each successful
// transition. Optional.
func (s *ApprovalService) WithDashboardInvalidator(dashboards DashboardInvalidator) *ApprovalService {
	s.dashboards = dashboards
	return s
}

// Submit routes a DRAFT or FOR_EDIT request into the approval pipeline.
func (s *ApprovalService) Submit(ctx context.Context, businessUnitID, id string, req dto.SubmitRequest, claims *models.JWTClaims) (*models.MaterialRequest, error) {
	request, err := s.load(ctx, businessUnitID, id)
	if err != nil {
		return nil, err
	}
	if err := requireRequester(request, claims); err != nil {
		return nil, err
	}
	if len(request.Items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "request has no line items")
	}
	if request.RecApproverID == "" || request.FinalApproverID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "both approvers must be assigned before submission")
	}

	if err := s.move(ctx, request, models.ActionSubmit, models.StatusForRecApproval, claims.UserID, req.Note, nil); err != nil {
		return nil, err
	}
	return request, nil
}

// Recommend records the first-stage approval and routes the request
// straight on to the final approval queue.
func (s *ApprovalService) Recommend(ctx context.Context, businessUnitID, id string, req dto.ApproveRequest, claims *models.JWTClaims) (*models.MaterialRequest, error) {
	request, err := s.load(ctx, businessUnitID, id)
	if err != nil {
		return nil, err
	}
	if request.RecApproverID != claims.UserID && !claims.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned recommending approver may act on this request")
	}

	if err := s.move(ctx, request, models.ActionRecommend, models.StatusRecApproved, claims.UserID, req.Note, nil); err != nil {
		return nil, err
	}
	if err := s.move(ctx, request, models.ActionRecommend, models.StatusForFinalApproval, claims.UserID, "", nil); err != nil {
		return nil, err
	}
	return request, nil
}

// Finalize records the second-stage approval, stamping the approved date.
// With AutoPost set the request continues to FOR_POSTING and a posting job
// is enqueued.
func (s *ApprovalService) Finalize(ctx context.Context, businessUnitID, id string, req dto.ApproveRequest, claims *models.JWTClaims) (*models.MaterialRequest, error) {
	request, err := s.load(ctx, businessUnitID, id)
	if err != nil {
		return nil, err
	}
	if request.FinalApproverID != claims.UserID && !claims.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned final approver may act on this request")
	}

	now := time.Now().UTC()
	if err := s.move(ctx, request, models.ActionFinalize, models.StatusFinalApproved, claims.UserID, req.Note, &repository.TransitionParams{ApprovedDate: &now}); err != nil {
		return nil, err
	}

	if req.AutoPost {
		if err := s.move(ctx, request, models.ActionFinalize, models.StatusForPosting, claims.UserID, "", nil); err != nil {
			return nil, err
		}
		if s.posting != nil {
			if err := s.posting.EnqueuePosting(ctx, request.ID, claims.UserID); err != nil {
				s.logger.Warn("failed to enqueue posting job", zap.String("request_id", request.ID), zap.Error(err))
			}
		}
	}
	return request, nil
}

// Disapprove rejects a pending request at either approval stage.
func (s *ApprovalService) Disapprove(ctx context.Context, businessUnitID, id string, req dto.DisapproveRequest, claims *models.JWTClaims) (*models.MaterialRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "disapproval reason is required")
	}

	request, err := s.load(ctx, businessUnitID, id)
	if err != nil {
		return nil, err
	}

	var stageApprover string
	switch request.Status {
	case models.StatusForRecApproval:
		stageApprover = request.RecApproverID
	case models.StatusForFinalApproval:
		stageApprover = request.FinalApproverID
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request is not pending approval")
	}
	if stageApprover != claims.UserID && !claims.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the stage's assigned approver may disapprove this request")
	}

	if err := s.move(ctx, request, models.ActionDisapprove, models.StatusDisapproved, claims.UserID, req.Reason, nil); err != nil {
		return nil, err
	}
	return request, nil
}

// Recall pulls a pending or disapproved request back for editing,
// clearing any approval dates.
func (s *ApprovalService) Recall(ctx context.Context, businessUnitID, id string, req dto.RecallRequest, claims *models.JWTClaims) (*models.MaterialRequest, error) {
	request, err := s.load(ctx, businessUnitID, id)
	if err != nil {
		return nil, err
	}
	if err := requireRequester(request, claims); err != nil {
		return nil, err
	}

	if err := s.move(ctx, request, models.ActionRecall, models.StatusForEdit, claims.UserID, req.Note, &repository.TransitionParams{ClearDates: true}); err != nil {
		return nil, err
	}
	request.ApprovedDate = nil
	request.PostedDate = nil
	return request, nil
}

// Cancel terminates a request before it enters the approval pipeline.
func (s *ApprovalService) Cancel(ctx context.Context, businessUnitID, id string, req dto.RecallRequest, claims *models.JWTClaims) (*models.MaterialRequest, error) {
	request, err := s.load(ctx, businessUnitID, id)
	if err != nil {
		return nil, err
	}
	if err := requireRequester(request, claims); err != nil {
		return nil, err
	}

	if err := s.move(ctx, request, models.ActionCancel, models.StatusCancelled, claims.UserID, req.Note, nil); err != nil {
		return nil, err
	}
	return request, nil
}

// Post marks an approved request as posted, stamping the posted date.
func (s *ApprovalService) Post(ctx context.Context, businessUnitID, id string, req dto.CompleteRequest, claims *models.JWTClaims) (*models.MaterialRequest, error) {
	request, err := s.load(ctx, businessUnitID, id)
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RolePoster && !claims.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only posters may post requests")
	}

	now := time.Now().UTC()
	if err := s.move(ctx, request, models.ActionPost, models.StatusPosted, claims.UserID, req.Note, &repository.TransitionParams{PostedDate: &now}); err != nil {
		return nil, err
	}
	return request, nil
}

// CompletePosting is invoked by the posting worker for auto-post requests.
// It moves FOR_POSTING to POSTED on behalf of the approving actor.
func (s *ApprovalService) CompletePosting(ctx context.Context, requestID, actorID string) error {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material request")
	}

	now := time.Now().UTC()
	return s.move(ctx, request, models.ActionPost, models.StatusPosted, actorID, "", &repository.TransitionParams{PostedDate: &now})
}

// Complete closes a posted request: ITEM requests are received, SERVICE
// requests are transmitted.
func (s *ApprovalService) Complete(ctx context.Context, businessUnitID, id string, req dto.CompleteRequest, claims *models.JWTClaims) (*models.MaterialRequest, error) {
	request, err := s.load(ctx, businessUnitID, id)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != claims.UserID && claims.Role != models.RolePoster && !claims.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to complete this request")
	}

	action := models.ActionReceive
	if request.Type == models.RequestTypeService {
		action = models.ActionTransmit
	}
	if err := s.move(ctx, request, action, request.Type.CompletionStatus(), claims.UserID, req.Note, nil); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *ApprovalService) load(ctx context.Context, businessUnitID, id string) (*models.MaterialRequest, error) {
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

// move applies one lifecycle step: it checks the transition table, runs the
// status-guarded update, appends the approval event, and emits the audit
// log. The request's in-memory status is advanced on success.
func (s *ApprovalService) move(ctx context.Context, request *models.MaterialRequest, action models.WorkflowAction, to models.RequestStatus, actorID, note string, extra *repository.TransitionParams) error {
	from := request.Status
	if !models.CanTransition(from, to) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "transition from "+string(from)+" to "+string(to)+" is not allowed")
	}

	params := repository.TransitionParams{ID: request.ID, FromStatus: from, ToStatus: to}
	if extra != nil {
		params.ApprovedDate = extra.ApprovedDate
		params.PostedDate = extra.PostedDate
		params.ClearDates = extra.ClearDates
	}
	if err := s.repo.Transition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrStaleStatus, "request status changed, reload and retry")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition material request")
	}
	request.Status = to
	if s.metrics != nil {
		s.metrics.RecordWorkflowTransition(action, to)
	}
	if s.dashboards != nil {
		s.dashboards.Invalidate(ctx, request.BusinessUnitID)
	}
	if params.ApprovedDate != nil {
		request.ApprovedDate = params.ApprovedDate
	}
	if params.PostedDate != nil {
		request.PostedDate = params.PostedDate
	}

	event := &models.ApprovalEvent{
		RequestID:  request.ID,
		ActorID:    actorID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Note:       optionalString(note),
	}
	if err := s.repo.CreateApprovalEvent(ctx, event); err != nil {
		s.logger.Warn("failed to record approval event", zap.String("request_id", request.ID), zap.Error(err))
	}

	payload, _ := json.Marshal(map[string]interface{}{"action": action, "from": from, "to": to})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionWorkflow,
		Resource:   "material_requests",
		ResourceID: &request.ID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record workflow audit log", zap.String("request_id", request.ID), zap.Error(err))
	}

	return nil
}

func requireRequester(request *models.MaterialRequest, claims *models.JWTClaims) error {
	if request.RequesterID != claims.UserID && !claims.Role.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only the requester may perform this action")
	}
	return nil
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
