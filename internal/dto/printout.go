package dto

import "github.com/noah-isme/procure-mr-api/internal/models"

// PrintoutRequest payload for queueing a printout job.
type PrintoutRequest struct {
	Type      models.PrintJobType `json:"type" validate:"required,oneof=REQUEST_PDF REGISTER_CSV REGISTER_PDF"`
	RequestID string              `json:"request_id"`
	DateFrom  string              `json:"date_from"`
	DateTo    string              `json:"date_to"`
	Statuses  string              `json:"statuses"`
}

// PrintJobResponse acknowledges job creation.
type PrintJobResponse struct {
	ID       string                `json:"id"`
	Status   models.PrintJobStatus `json:"status"`
	Progress int                   `json:"progress"`
}

// PrintStatusResponse exposes job progress and the signed result URL.
type PrintStatusResponse struct {
	ID        string                `json:"id"`
	Status    models.PrintJobStatus `json:"status"`
	Progress  int                   `json:"progress"`
	ResultURL *string               `json:"result_url,omitempty"`
	Error     *string               `json:"error,omitempty"`
}
