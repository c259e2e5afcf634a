package dto

import "github.com/noah-isme/procure-mr-api/internal/models"

// DashboardResponse aggregates per-business-unit widget data.
type DashboardResponse struct {
	BusinessUnitID   string                   `json:"business_unit_id"`
	StatusCounts     []models.StatusCount     `json:"status_counts"`
	PendingApprovals []models.MaterialRequest `json:"pending_approvals"`
	RecentActivity   []models.ApprovalEvent   `json:"recent_activity"`
	GeneratedAt      string                   `json:"generated_at"`
}
