package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded by services and middleware.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionUserCreate     = "USER_CREATE"
	AuditActionUserUpdate     = "USER_UPDATE"
	AuditActionUserDelete     = "USER_DELETE"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionMasterUpdate   = "MASTER_UPDATE"
	AuditActionRequestCreate  = "REQUEST_CREATE"
	AuditActionRequestUpdate  = "REQUEST_UPDATE"
	AuditActionRequestDelete  = "REQUEST_DELETE"
	AuditActionWorkflow       = "REQUEST_WORKFLOW"
	AuditActionPrintout       = "PRINTOUT"
)

// AuditLog is one row of the audit trail. Old and new values hold JSON
// snapshots of the affected resource.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	UserID     *string         `db:"user_id" json:"user_id,omitempty"`
	Action     string          `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID *string         `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  json.RawMessage `db:"old_values" json:"old_values,omitempty"`
	NewValues  json.RawMessage `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string          `db:"ip_address" json:"ip_address"`
	UserAgent  string          `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
