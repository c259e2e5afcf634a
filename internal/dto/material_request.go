package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/procure-mr-api/internal/models"
)

// RequestLine is a line item payload on create/update operations.
type RequestLine struct {
	ItemCode    *string         `json:"item_code"`
	Description string          `json:"description" validate:"required"`
	Unit        string          `json:"unit" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateMaterialRequest payload for drafting a new material request.
type CreateMaterialRequest struct {
	Series          string             `json:"series" validate:"required"`
	Type            models.RequestType `json:"type" validate:"required,oneof=ITEM SERVICE"`
	DepartmentID    string             `json:"department_id" validate:"required"`
	RecApproverID   string             `json:"rec_approver_id" validate:"required"`
	FinalApproverID string             `json:"final_approver_id" validate:"required"`
	RequiredDate    string             `json:"required_date" validate:"required"`
	Freight         decimal.Decimal    `json:"freight"`
	Discount        decimal.Decimal    `json:"discount"`
	Remarks         string             `json:"remarks"`
	Items           []RequestLine      `json:"items" validate:"dive"`
}

// UpdateMaterialRequest payload for editing a DRAFT or FOR_EDIT request.
// Items, when present, replace the existing lines wholesale.
type UpdateMaterialRequest struct {
	DepartmentID    string          `json:"department_id" validate:"required"`
	RecApproverID   string          `json:"rec_approver_id" validate:"required"`
	FinalApproverID string          `json:"final_approver_id" validate:"required"`
	RequiredDate    string          `json:"required_date" validate:"required"`
	Freight         decimal.Decimal `json:"freight"`
	Discount        decimal.Decimal `json:"discount"`
	Remarks         string          `json:"remarks"`
	Items           []RequestLine   `json:"items" validate:"dive"`
}

// MaterialRequestQuery mirrors supported listing filters.
type MaterialRequestQuery struct {
	Status       []models.RequestStatus
	Type         models.RequestType
	DepartmentID string
	RequesterID  string
	DateFrom     string
	DateTo       string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
