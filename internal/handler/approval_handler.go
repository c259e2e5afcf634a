package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procure-mr-api/internal/dto"
	"github.com/noah-isme/procure-mr-api/internal/service"
	"github.com/noah-isme/procure-mr-api/pkg/response"
)

// ApprovalHandler exposes workflow transition endpoints for material requests.
type ApprovalHandler struct {
	service *service.ApprovalService
}

// NewApprovalHandler creates a new handler.
func NewApprovalHandler(svc *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: svc}
}

// Submit godoc
// @Summary Submit for recommending approval
// @Description Route a draft request to its recommending approver
// @Tags Approvals
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Param payload body dto.SubmitRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /requests/{id}/submit [post]
func (h *ApprovalHandler) Submit(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.SubmitRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	request, err := h.service.Submit(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Recommend godoc
// @Summary Approve at the recommending stage
// @Description Recommending approver accepts; the request routes on to final approval
// @Tags Approvals
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Param payload body dto.ApproveRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/recommend [post]
func (h *ApprovalHandler) Recommend(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.ApproveRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	request, err := h.service.Recommend(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Finalize godoc
// @Summary Approve at the final stage
// @Description Final approver accepts; auto_post additionally queues the request for posting
// @Tags Approvals
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Param payload body dto.ApproveRequest false "Optional note and auto_post flag"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/approve [post]
func (h *ApprovalHandler) Finalize(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.ApproveRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	request, err := h.service.Finalize(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Disapprove godoc
// @Summary Disapprove a pending request
// @Description Stage approver rejects with a mandatory reason
// @Tags Approvals
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Param payload body dto.DisapproveRequest true "Disapproval reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /requests/{id}/disapprove [post]
func (h *ApprovalHandler) Disapprove(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.DisapproveRequest
	if !bindJSON(c, &req, "reason required") {
		return
	}

	request, err := h.service.Disapprove(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Recall godoc
// @Summary Recall a request for editing
// @Description Requester pulls a pending or disapproved request back to FOR_EDIT
// @Tags Approvals
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Param payload body dto.RecallRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/recall [post]
func (h *ApprovalHandler) Recall(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.RecallRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	request, err := h.service.Recall(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Cancel godoc
// @Summary Cancel a request
// @Description Requester cancels a request that has not been posted
// @Tags Approvals
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Param payload body dto.RecallRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/cancel [post]
func (h *ApprovalHandler) Cancel(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.RecallRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	request, err := h.service.Cancel(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Post godoc
// @Summary Post an approved request
// @Description Poster moves a finally approved request to POSTED
// @Tags Approvals
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Param payload body dto.CompleteRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/post [post]
func (h *ApprovalHandler) Post(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CompleteRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	request, err := h.service.Post(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Complete godoc
// @Summary Complete a posted request
// @Description Mark a posted request RECEIVED (item) or TRANSMITTED (service)
// @Tags Approvals
// @Accept json
// @Produce json
// @Param X-Business-Unit header string true "Business Unit ID"
// @Param id path string true "Request ID"
// @Param payload body dto.CompleteRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/complete [post]
func (h *ApprovalHandler) Complete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CompleteRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	request, err := h.service.Complete(c.Request.Context(), businessUnitFromContext(c), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}
