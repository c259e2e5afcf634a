package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/middleware"
	"github.com/noah-isme/procure-mr-api/internal/models"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeDashboardSrv struct {
	resp *dto.DashboardResponse
	hit  bool
	err  error

	lastBusinessUnit string
	lastUserID       string
}

func (f *fakeDashboardSrv) Summary(_ context.Context, businessUnitID string, claims *models.JWTClaims) (*dto.DashboardResponse, bool, error) {
	f.lastBusinessUnit = businessUnitID
	f.lastUserID = claims.UserID
	return f.resp, f.hit, f.err
}

func TestDashboardHandlerRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeDashboardSrv{
		resp: &dto.DashboardResponse{BusinessUnitID: "bu-1"},
		hit:  true,
	}
	handler := NewDashboardHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-rec", Role: models.RoleApprover})
	c.Set(middleware.ContextBusinessUnitKey, "bu-1")

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bu-1", service.lastBusinessUnit)
	assert.Equal(t, "user-rec", service.lastUserID)

	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "bu-1", envelope.Data["business_unit_id"])
}
