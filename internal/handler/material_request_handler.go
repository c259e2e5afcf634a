package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/models"
	"github.com/noah-isme/procure-mr-api/internal/service"
	"github.com/noah-isme/procure-mr-api/pkg/response"
)

// MaterialRequestHandler handles material request CRUD endpoints.
type MaterialRequestHandler struct {
	service *service.MaterialRequestService
}

// NewMaterialRequestHandler creates a new handler.
func NewMaterialRequestHandler(svc *service.MaterialRequestService) *MaterialRequestHandler {
	return &MaterialRequestHandler{service: svc}
}

// List godoc
// @Summary List material requests
// @Description List material requests in the active business unit
// @Tags MaterialRequests
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Comma-separated status filter"
// @Param type query string false "Request type (ITEM or SERVICE)"
// @Param department query string false "Department ID"
// @Param requester query string false "Requester user ID"
// @Param date_from query string false "Prepared date from (YYYY-MM-DD)"
// @Param date_to query string false "Prepared date to (YYYY-MM-DD)"
// @Param search query string false "Search doc number or remarks"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *MaterialRequestHandler) List(c *gin.Context) {
	var query dto.MaterialRequestQuery

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		query.PageSize = size
	}

	if statuses := c.Query("status"); statuses != "" {
		for _, s := range strings.Split(statuses, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				query.Status = append(query.Status, models.RequestStatus(s))
			}
		}
	}

	query.Type = models.RequestType(c.Query("type"))
	query.DepartmentID = c.Query("department")
	query.RequesterID = c.Query("requester")
	query.DateFrom = c.Query("date_from")
	query.DateTo = c.Query("date_to")
	query.Search = c.Query("search")
	query.SortBy = c.Query("sort_by")
	query.SortOrder = c.Query("sort_order")

	requests, pagination, err := h.service.List(c.Request.Context(), businessUnitFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get material request
// @Description Get a material request with its lines
// @Tags MaterialRequests
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *MaterialRequestHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), businessUnitFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Create godoc
// @Summary Create material request
// @Description Draft a new material request with a document number from the chosen series
// @Tags MaterialRequests
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param payload body dto.CreateMaterialRequest true "Create payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [post]
func (h *MaterialRequestHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req dto.CreateMaterialRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	request, err := h.service.Create(c.Request.Context(), businessUnitFromContext(c), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, request)
}

// Update godoc
// @Summary Update material request
// @Description Edit a DRAFT or FOR_EDIT material request
// @Tags MaterialRequests
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateMaterialRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id} [put]
func (h *MaterialRequestHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req dto.UpdateMaterialRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	request, err := h.service.Update(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Delete godoc
// @Summary Delete material request
// @Description Delete a DRAFT material request
// @Tags MaterialRequests
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [delete]
func (h *MaterialRequestHandler) Delete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListEvents godoc
// @Summary List approval history
// @Description List approval events of a material request in chronological order
// @Tags MaterialRequests
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/events [get]
func (h *MaterialRequestHandler) ListEvents(c *gin.Context) {
	events, err := h.service.ListEvents(c.Request.Context(), businessUnitFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, events, nil)
}
