package models

import "time"

// ImportStatus is the lifecycle state of a bulk upload. Transitions are
// monotonic: Pending → Processing → Completed|Failed. Terminal jobs are
// never mutated again; a re-upload creates a fresh job.
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// IsTerminal reports whether no further status transitions are allowed.
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// ImportJob tracks one bulk-upload ingestion attempt. It is created when the
// file is accepted and owned by the ingestion pipeline until it reaches a
// terminal state.
type ImportJob struct {
	ID             string       `json:"id" db:"id"`
	Filename       string       `json:"filename" db:"filename"`
	FileType       string       `json:"file_type" db:"file_type"`
	FileSize       int64        `json:"file_size" db:"file_size"`
	Status         ImportStatus `json:"status" db:"status"`
	EntriesUpdated int          `json:"entries_updated" db:"entries_updated"`
	ErrorMessage   *string      `json:"error_message,omitempty" db:"error_message"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}
