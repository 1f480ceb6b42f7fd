package models

import "time"

// RunStatus represents the status of a migration run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunKind represents what a run does to a family
type RunKind string

const (
	RunKindMigrate  RunKind = "migrate"
	RunKindRepair   RunKind = "repair"
	RunKindRollback RunKind = "rollback"
)

// MigrationRun is one ledgered pass over a content family.
type MigrationRun struct {
	ID          string     `json:"run_id" db:"id"`
	Kind        RunKind    `json:"kind" db:"kind"`
	Family      Family     `json:"family" db:"family"`
	Status      RunStatus  `json:"status" db:"status"`
	Total       int        `json:"total" db:"total_records"`
	Processed   int        `json:"processed" db:"processed_count"`
	Migrated    int        `json:"migrated" db:"migrated_count"`
	Skipped     int        `json:"skipped" db:"skipped_count"`
	Errors      int        `json:"errors" db:"error_count"`
	Message     string     `json:"message,omitempty" db:"message"`
	DurationMs  int64      `json:"duration_ms,omitempty" db:"duration_ms"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// RunRequest is the API payload that starts a run.
type RunRequest struct {
	Family Family  `json:"family"`
	Kind   RunKind `json:"kind,omitempty"`
}

// RunCounts accumulates per-record outcomes of one pass over a family.
type RunCounts struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Migrated  int `json:"migrated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// ApplyTo copies the counts onto a run row.
func (c RunCounts) ApplyTo(run *MigrationRun) {
	run.Total = c.Total
	run.Processed = c.Processed
	run.Migrated = c.Migrated
	run.Skipped = c.Skipped
	run.Errors = c.Errors
}
