package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/middleware"
	"github.com/noah-isme/procure-mr-api/internal/models"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
	"github.com/noah-isme/procure-mr-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, businessUnitID string, claims *models.JWTClaims) (*dto.DashboardResponse, bool, error)
}

// DashboardHandler wires the dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Business unit dashboard
// @Description Status counts, pending approvals for the caller, and recent activity
// @Tags Dashboard
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	start := time.Now()
	summary, cacheHit, err := h.service.Summary(c.Request.Context(), businessUnitFromContext(c), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
