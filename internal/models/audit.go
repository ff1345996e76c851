package models

import "time"

// FieldChange is one old/new value pair, stored as part of the audit row's
// JSONB column.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// AuditLogEntry is the database representation of one append-only audit row.
type AuditLogEntry struct {
	EntryID      string                 `json:"entryID"` // Primary key (UUID)
	EntityType   string                 `json:"entityType"`
	EntityID     string                 `json:"entityID"`
	Action       string                 `json:"action"`
	ActorID      string                 `json:"actorID"`
	Timestamp    time.Time              `json:"timestamp"`
	FieldChanges map[string]FieldChange `json:"fieldChanges,omitempty"`
	DocumentHash string                 `json:"documentHash,omitempty"`
	Note         string                 `json:"note,omitempty"`
}
