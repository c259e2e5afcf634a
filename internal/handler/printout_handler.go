package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/models"
	"github.com/noah-isme/procure-mr-api/internal/service"
	appErrors "github.com/noah-isme/procure-mr-api/pkg/errors"
	"github.com/noah-isme/procure-mr-api/pkg/response"
)

// PrintoutHandler exposes printout job endpoints.
type PrintoutHandler struct {
	service *service.PrintoutService
}

// NewPrintoutHandler creates a new handler.
func NewPrintoutHandler(svc *service.PrintoutService) *PrintoutHandler {
	return &PrintoutHandler{service: svc}
}

// Create godoc
// @Summary Queue a printout job
// @Description Queue generation of a request PDF or a register CSV/PDF
// @Tags Printouts
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param payload body dto.PrintoutRequest true "Printout payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /printouts [post]
func (h *PrintoutHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req dto.PrintoutRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	job, err := h.service.CreateJob(c.Request.Context(), businessUnitFromContext(c), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, job)
}

// Status godoc
// @Summary Printout job status
// @Description Poll job progress; COMPLETED jobs include a signed download URL
// @Tags Printouts
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /printouts/{id} [get]
func (h *PrintoutHandler) Status(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished printout via signed token
// @Tags Printouts
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /printouts/download/{token} [get]
func (h *PrintoutHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	result, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}

	mimeType := "application/pdf"
	if result.Type == models.PrintJobRegisterCSV {
		mimeType = "text/csv"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeType, result.File, nil)
}
