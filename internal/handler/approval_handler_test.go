package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/procure-mr-api/internal/middleware"
	"github.com/noah-isme/procure-mr-api/internal/models"
	"github.com/noah-isme/procure-mr-api/internal/repository"
	"github.com/noah-isme/procure-mr-api/internal/service"
)

type approvalStoreFake struct {
	request    *models.MaterialRequest
	staleMoves bool
}

func (f *approvalStoreFake) GetByID(ctx context.Context, id string) (*models.MaterialRequest, error) {
	if f.request == nil || f.request.ID != id {
		return nil, sql.ErrNoRows
	}
	copy := *f.request
	return &copy, nil
}

func (f *approvalStoreFake) Transition(ctx context.Context, params repository.TransitionParams) error {
	if f.staleMoves || f.request.Status != params.FromStatus {
		return sql.ErrNoRows
	}
	f.request.Status = params.ToStatus
	return nil
}

func (f *approvalStoreFake) CreateApprovalEvent(ctx context.Context, event *models.ApprovalEvent) error {
	return nil
}

type auditSinkFake struct{}

func (auditSinkFake) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func pendingApprovalRequest(status models.RequestStatus) *models.MaterialRequest {
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

func newApprovalTestContext(t *testing.T, method, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, "/requests/req-1/action", reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	c.Set(middleware.ContextBusinessUnitKey, "bu-1")
	return c, rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	code, _ := envelope.Error["code"].(string)
	return code
}

func TestApprovalHandlerStaleStatusConflict(t *testing.T) {
	store := &approvalStoreFake{request: pendingApprovalRequest(models.StatusForRecApproval), staleMoves: true}
	handler := NewApprovalHandler(service.NewApprovalService(store, auditSinkFake{}, nil, nil, nil))

	c, rec := newApprovalTestContext(t, http.MethodPost, "", &models.JWTClaims{UserID: "user-rec", Role: models.RoleApprover})
	handler.Recommend(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "STALE_STATUS", errorCode(t, rec))
}

func TestApprovalHandlerWrongApproverForbidden(t *testing.T) {
	store := &approvalStoreFake{request: pendingApprovalRequest(models.StatusForRecApproval)}
	handler := NewApprovalHandler(service.NewApprovalService(store, auditSinkFake{}, nil, nil, nil))

	c, rec := newApprovalTestContext(t, http.MethodPost, "", &models.JWTClaims{UserID: "someone-else", Role: models.RoleApprover})
	handler.Recommend(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
}

func TestApprovalHandlerDisapproveMalformedBody(t *testing.T) {
	store := &approvalStoreFake{request: pendingApprovalRequest(models.StatusForRecApproval)}
	handler := NewApprovalHandler(service.NewApprovalService(store, auditSinkFake{}, nil, nil, nil))

	c, rec := newApprovalTestContext(t, http.MethodPost, `{"reason":`, &models.JWTClaims{UserID: "user-rec", Role: models.RoleApprover})
	handler.Disapprove(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestApprovalHandlerDisapproveMissingReason(t *testing.T) {
	store := &approvalStoreFake{request: pendingApprovalRequest(models.StatusForRecApproval)}
	handler := NewApprovalHandler(service.NewApprovalService(store, auditSinkFake{}, nil, nil, nil))

	c, rec := newApprovalTestContext(t, http.MethodPost, `{}`, &models.JWTClaims{UserID: "user-rec", Role: models.RoleApprover})
	handler.Disapprove(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestApprovalHandlerRequiresClaims(t *testing.T) {
	store := &approvalStoreFake{request: pendingApprovalRequest(models.StatusDraft)}
	handler := NewApprovalHandler(service.NewApprovalService(store, auditSinkFake{}, nil, nil, nil))

	c, rec := newApprovalTestContext(t, http.MethodPost, "", nil)
	handler.Submit(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApprovalHandlerSubmitSuccess(t *testing.T) {
	store := &approvalStoreFake{request: pendingApprovalRequest(models.StatusDraft)}
	handler := NewApprovalHandler(service.NewApprovalService(store, auditSinkFake{}, nil, nil, nil))

	c, rec := newApprovalTestContext(t, http.MethodPost, `{"note":"please review"}`, &models.JWTClaims{UserID: "user-req", Role: models.RoleRequester})
	handler.Submit(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(models.StatusForRecApproval), envelope.Data["status"])
}
