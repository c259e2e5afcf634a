package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PrintJobType enumerates the supported printout kinds.
type PrintJobType string

const (
	PrintJobRequestPDF  PrintJobType = "REQUEST_PDF"
	PrintJobRegisterCSV PrintJobType = "REGISTER_CSV"
	PrintJobRegisterPDF PrintJobType = "REGISTER_PDF"
)

// PrintJobStatus captures the async printout lifecycle.
type PrintJobStatus string

const (
	PrintStatusQueued     PrintJobStatus = "QUEUED"
	PrintStatusProcessing PrintJobStatus = "PROCESSING"
	PrintStatusCompleted  PrintJobStatus = "COMPLETED"
	PrintStatusFailed     PrintJobStatus = "FAILED"
)

// PrintJobParams stores the generation parameters as a JSONB column.
type PrintJobParams struct {
	RequestID string `json:"request_id,omitempty"`
	DateFrom  string `json:"date_from,omitempty"`
	DateTo    string `json:"date_to,omitempty"`
	Statuses  string `json:"statuses,omitempty"`
}

// Value implements driver.Valuer.
func (p PrintJobParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *PrintJobParams) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = PrintJobParams{}
		return nil
	default:
		return fmt.Errorf("unsupported print job params type %T", src)
	}
}

// PrintJob tracks an asynchronous printout generation request.
type PrintJob struct {
	ID             string         `db:"id" json:"id"`
	Type           PrintJobType   `db:"type" json:"type"`
	Params         PrintJobParams `db:"params" json:"params"`
	Status         PrintJobStatus `db:"status" json:"status"`
	Progress       int            `db:"progress" json:"progress"`
	BusinessUnitID string         `db:"business_unit_id" json:"business_unit_id"`
	CreatedBy      string         `db:"created_by" json:"created_by"`
	FilePath       *string        `db:"file_path" json:"-"`
	ResultURL      *string        `db:"result_url" json:"result_url,omitempty"`
	ErrorMessage   *string        `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	StartedAt      *time.Time     `db:"started_at" json:"started_at,omitempty"`
	FinishedAt     *time.Time     `db:"finished_at" json:"finished_at,omitempty"`
}
