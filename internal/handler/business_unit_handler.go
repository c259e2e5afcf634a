package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procure-mr-api/internal/models"
	"github.com/noah-isme/procure-mr-api/internal/service"
	"github.com/noah-isme/procure-mr-api/pkg/response"
)

// BusinessUnitHandler handles business unit, department, and series endpoints.
type BusinessUnitHandler struct {
	service *service.BusinessUnitService
}

// NewBusinessUnitHandler creates a new handler.
func NewBusinessUnitHandler(svc *service.BusinessUnitService) *BusinessUnitHandler {
	return &BusinessUnitHandler{service: svc}
}

// List godoc
// @Summary List business units
// @Tags BusinessUnits
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param active query bool false "Active filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /business-units [get]
func (h *BusinessUnitHandler) List(c *gin.Context) {
	var filter models.BusinessUnitFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.Active = &val
		}
	}
	filter.Search = c.Query("search")

	units, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, units, pagination)
}

// Mine godoc
// @Summary List business units accessible to the current user
// @Tags BusinessUnits
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /business-units/mine [get]
func (h *BusinessUnitHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	units, err := h.service.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, units, nil)
}

// Get godoc
// @Summary Get business unit
// @Tags BusinessUnits
// @Produce json
// @Param id path string true "Business Unit ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /business-units/{id} [get]
func (h *BusinessUnitHandler) Get(c *gin.Context) {
	unit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, unit, nil)
}

// Create godoc
// @Summary Create business unit
// @Tags BusinessUnits
// @Accept json
// @Produce json
// @Param payload body service.CreateBusinessUnitRequest true "Create payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /business-units [post]
func (h *BusinessUnitHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.CreateBusinessUnitRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	unit, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, unit)
}

// Update godoc
// @Summary Update business unit
// @Tags BusinessUnits
// @Accept json
// @Produce json
// @Param id path string true "Business Unit ID"
// @Param payload body service.UpdateBusinessUnitRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /business-units/{id} [put]
func (h *BusinessUnitHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.UpdateBusinessUnitRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	unit, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, unit, nil)
}

// ListDepartments godoc
// @Summary List departments of a business unit
// @Tags BusinessUnits
// @Produce json
// @Param id path string true "Business Unit ID"
// @Success 200 {object} response.Envelope
// @Router /business-units/{id}/departments [get]
func (h *BusinessUnitHandler) ListDepartments(c *gin.Context) {
	departments, err := h.service.ListDepartments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, departments, nil)
}

// CreateDepartment godoc
// @Summary Create department
// @Tags BusinessUnits
// @Accept json
// @Produce json
// @Param id path string true "Business Unit ID"
// @Param payload body service.CreateDepartmentRequest true "Create payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /business-units/{id}/departments [post]
func (h *BusinessUnitHandler) CreateDepartment(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.CreateDepartmentRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	department, err := h.service.CreateDepartment(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, department)
}

// UpdateDepartment godoc
// @Summary Update department
// @Tags BusinessUnits
// @Accept json
// @Produce json
// @Param id path string true "Business Unit ID"
// @Param departmentId path string true "Department ID"
// @Param payload body service.UpdateDepartmentRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /business-units/{id}/departments/{departmentId} [put]
func (h *BusinessUnitHandler) UpdateDepartment(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.UpdateDepartmentRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	department, err := h.service.UpdateDepartment(c.Request.Context(), c.Param("id"), c.Param("departmentId"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, department, nil)
}

// AddMember godoc
// @Summary Add user to business unit
// @Tags BusinessUnits
// @Accept json
// @Produce json
// @Param id path string true "Business Unit ID"
// @Param payload body map[string]string true "User ID"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /business-units/{id}/members [post]
func (h *BusinessUnitHandler) AddMember(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var payload struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if !bindJSON(c, &payload, "user_id required") {
		return
	}

	if err := h.service.AddMember(c.Request.Context(), c.Param("id"), payload.UserID, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// RemoveMember godoc
// @Summary Remove user from business unit
// @Tags BusinessUnits
// @Produce json
// @Param id path string true "Business Unit ID"
// @Param userId path string true "User ID"
// @Success 204 {object} response.Envelope
// @Router /business-units/{id}/members/{userId} [delete]
func (h *BusinessUnitHandler) RemoveMember(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	if err := h.service.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListSeries godoc
// @Summary List document series of a business unit
// @Tags BusinessUnits
// @Produce json
// @Param id path string true "Business Unit ID"
// @Success 200 {object} response.Envelope
// @Router /business-units/{id}/series [get]
func (h *BusinessUnitHandler) ListSeries(c *gin.Context) {
	series, err := h.service.ListSeries(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, series, nil)
}

// CreateSeries godoc
// @Summary Create a document numbering series
// @Tags BusinessUnits
// @Accept json
// @Produce json
// @Param id path string true "Business Unit ID"
// @Param payload body service.CreateSeriesRequest true "Create payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /business-units/{id}/series [post]
func (h *BusinessUnitHandler) CreateSeries(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.CreateSeriesRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	series, err := h.service.CreateSeries(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, series)
}
