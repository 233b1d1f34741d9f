package models

import "time"

// StatementStatus tracks asynchronous statement generation.
type StatementStatus string

const (
	StatementStatusQueued     StatementStatus = "QUEUED"
	StatementStatusProcessing StatementStatus = "PROCESSING"
	StatementStatusDone       StatementStatus = "DONE"
	StatementStatusFailed     StatementStatus = "FAILED"
)

// Statement is a generated monthly financial statement for a tenant.
type Statement struct {
	ID           string          `db:"id" json:"id"`
	TenantID     string          `db:"tenant_id" json:"tenant_id"`
	Period       string          `db:"period" json:"period"`
	Status       StatementStatus `db:"status" json:"status"`
	FilePath     *string         `db:"file_path" json:"file_path,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
}
