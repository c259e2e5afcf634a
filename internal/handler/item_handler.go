package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procure-mr-api/internal/models"
	"github.com/noah-isme/procure-mr-api/internal/service"
	"github.com/noah-isme/procure-mr-api/pkg/response"
)

// ItemHandler handles catalog item endpoints.
type ItemHandler struct {
	service *service.ItemService
}

// NewItemHandler creates a new handler.
func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{service: svc}
}

// List godoc
// @Summary List catalog items
// @Tags Items
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param active query bool false "Active filter"
// @Param search query string false "Search code or description"
// @Success 200 {object} response.Envelope
// @Router /items [get]
func (h *ItemHandler) List(c *gin.Context) {
	var filter models.CatalogItemFilter

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

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get catalog item by code
// @Tags Items
// @Produce json
// @Param code path string true "Item code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /items/{code} [get]
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create catalog item
// @Tags Items
// @Accept json
// @Produce json
// @Param payload body service.CreateItemRequest true "Create payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /items [post]
func (h *ItemHandler) Create(c *gin.Context) {
	var req service.CreateItemRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}

// Update godoc
// @Summary Update catalog item
// @Tags Items
// @Accept json
// @Produce json
// @Param code path string true "Item code"
// @Param payload body service.UpdateItemRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /items/{code} [put]
func (h *ItemHandler) Update(c *gin.Context) {
	var req service.UpdateItemRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	item, err := h.service.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item, nil)
}
