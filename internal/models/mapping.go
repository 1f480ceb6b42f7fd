package models

import "time"

// MappingEntry links one source-system id to one target-system id within a
// family. At most one entry exists per (family, source_id); re-resolving the
// same source id updates the entry instead of inserting a second one.
type MappingEntry struct {
	Family       Family    `json:"family" db:"family"`
	SourceID     int64     `json:"source_id" db:"source_id"`
	TargetID     int64     `json:"target_id" db:"target_id"`
	DisplayName  string    `json:"display_name,omitempty" db:"display_name"`
	MigratedAt   time.Time `json:"migrated_at" db:"migrated_at"`
	BodyRepaired bool      `json:"body_repaired,omitempty" db:"body_repaired"`
}
