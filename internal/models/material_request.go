package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestType distinguishes goods requests from service requests.
type RequestType string

const (
	RequestTypeItem    RequestType = "ITEM"
	RequestTypeService RequestType = "SERVICE"
)

// RequestStatus captures the material request lifecycle.
type RequestStatus string

const (
	StatusDraft            RequestStatus = "DRAFT"
	StatusForRecApproval   RequestStatus = "FOR_REC_APPROVAL"
	StatusRecApproved      RequestStatus = "REC_APPROVED"
	StatusForFinalApproval RequestStatus = "FOR_FINAL_APPROVAL"
	StatusFinalApproved    RequestStatus = "FINAL_APPROVED"
	StatusForPosting       RequestStatus = "FOR_POSTING"
	StatusPosted           RequestStatus = "POSTED"
	StatusReceived         RequestStatus = "RECEIVED"
	StatusTransmitted      RequestStatus = "TRANSMITTED"
	StatusCancelled        RequestStatus = "CANCELLED"
	StatusDisapproved      RequestStatus = "DISAPPROVED"
	StatusForEdit          RequestStatus = "FOR_EDIT"
)

// transitions lists every legal status move. The pipeline is monotonic;
// DISAPPROVED and FOR_EDIT are the only backward side paths.
var transitions = map[RequestStatus][]RequestStatus{
	StatusDraft:            {StatusForRecApproval, StatusCancelled},
	StatusForEdit:          {StatusForRecApproval, StatusCancelled},
	StatusForRecApproval:   {StatusRecApproved, StatusDisapproved, StatusForEdit},
	StatusRecApproved:      {StatusForFinalApproval},
	StatusForFinalApproval: {StatusFinalApproved, StatusDisapproved, StatusForEdit},
	StatusFinalApproved:    {StatusForPosting, StatusPosted},
	StatusForPosting:       {StatusPosted},
	StatusPosted:           {StatusReceived, StatusTransmitted},
	StatusDisapproved:      {StatusForEdit, StatusCancelled},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist for the status.
func (s RequestStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsEditable reports whether header and lines may still be modified.
func (s RequestStatus) IsEditable() bool {
	return s == StatusDraft || s == StatusForEdit
}

// Valid reports whether the status is a known lifecycle value.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusForRecApproval, StatusRecApproved, StatusForFinalApproval,
		StatusFinalApproved, StatusForPosting, StatusPosted, StatusReceived,
		StatusTransmitted, StatusCancelled, StatusDisapproved, StatusForEdit:
		return true
	}
	return false
}

// CompletionStatus returns the terminal handoff status matching the request type.
func (t RequestType) CompletionStatus() RequestStatus {
	if t == RequestTypeService {
		return StatusTransmitted
	}
	return StatusReceived
}

// MaterialRequest is the document header for a purchasing request.
type MaterialRequest struct {
	ID              string          `db:"id" json:"id"`
	DocNo           string          `db:"doc_no" json:"doc_no"`
	Series          string          `db:"series" json:"series"`
	Type            RequestType     `db:"type" json:"type"`
	Status          RequestStatus   `db:"status" json:"status"`
	BusinessUnitID  string          `db:"business_unit_id" json:"business_unit_id"`
	DepartmentID    string          `db:"department_id" json:"department_id"`
	RequesterID     string          `db:"requester_id" json:"requester_id"`
	RecApproverID   string          `db:"rec_approver_id" json:"rec_approver_id"`
	FinalApproverID string          `db:"final_approver_id" json:"final_approver_id"`
	PreparedDate    time.Time       `db:"prepared_date" json:"prepared_date"`
	RequiredDate    time.Time       `db:"required_date" json:"required_date"`
	ApprovedDate    *time.Time      `db:"approved_date" json:"approved_date,omitempty"`
	PostedDate      *time.Time      `db:"posted_date" json:"posted_date,omitempty"`
	Freight         decimal.Decimal `db:"freight" json:"freight"`
	Discount        decimal.Decimal `db:"discount" json:"discount"`
	Total           decimal.Decimal `db:"total" json:"total"`
	Remarks         *string         `db:"remarks" json:"remarks,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`

	Items []MaterialRequestItem `db:"-" json:"items,omitempty"`
}

// MaterialRequestItem is a line item owned by a material request.
// ItemCode is nil for items not yet in the catalog.
type MaterialRequestItem struct {
	ID          string          `db:"id" json:"id"`
	RequestID   string          `db:"request_id" json:"request_id"`
	LineNo      int             `db:"line_no" json:"line_no"`
	ItemCode    *string         `db:"item_code" json:"item_code,omitempty"`
	Description string          `db:"description" json:"description"`
	Unit        string          `db:"unit" json:"unit"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	LineTotal   decimal.Decimal `db:"line_total" json:"line_total"`
}

// ComputeTotal applies the document total invariant:
// total = sum(quantity x unit price) + freight - discount.
func (r *MaterialRequest) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.Quantity.Mul(item.UnitPrice))
	}
	return total.Add(r.Freight).Sub(r.Discount)
}

// WorkflowAction names an approval workflow operation.
type WorkflowAction string

const (
	ActionSubmit     WorkflowAction = "SUBMIT"
	ActionRecommend  WorkflowAction = "RECOMMEND_APPROVE"
	ActionFinalize   WorkflowAction = "FINAL_APPROVE"
	ActionDisapprove WorkflowAction = "DISAPPROVE"
	ActionRecall     WorkflowAction = "RECALL_FOR_EDIT"
	ActionCancel     WorkflowAction = "CANCEL"
	ActionPost       WorkflowAction = "POST"
	ActionReceive    WorkflowAction = "RECEIVE"
	ActionTransmit   WorkflowAction = "TRANSMIT"
)

// ApprovalEvent is an append-only record of a workflow transition.
type ApprovalEvent struct {
	ID         string         `db:"id" json:"id"`
	RequestID  string         `db:"request_id" json:"request_id"`
	ActorID    string         `db:"actor_id" json:"actor_id"`
	Action     WorkflowAction `db:"action" json:"action"`
	FromStatus RequestStatus  `db:"from_status" json:"from_status"`
	ToStatus   RequestStatus  `db:"to_status" json:"to_status"`
	Note       *string        `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// MaterialRequestFilter constrains request listings.
type MaterialRequestFilter struct {
	BusinessUnitID string
	Status         []RequestStatus
	Type           RequestType
	DepartmentID   string
	RequesterID    string
	ApproverID     string
	DateFrom       *time.Time
	DateTo         *time.Time
	Search         string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// StatusCount pairs a lifecycle status with the number of requests in it.
type StatusCount struct {
	Status RequestStatus `db:"status" json:"status"`
	Count  int           `db:"count" json:"count"`
}
