package domain

import "time"

// AuditAction classifies a state-changing operation.
type AuditAction string

const (
	ActionCreate          AuditAction = "CREATE"
	ActionUpdate          AuditAction = "UPDATE"
	ActionSubmit          AuditAction = "SUBMIT"
	ActionApprove         AuditAction = "APPROVE"
	ActionReject          AuditAction = "REJECT"
	ActionSendGateway     AuditAction = "SEND_GATEWAY"
	ActionReceiveResponse AuditAction = "RECEIVE_RESPONSE"
	ActionLock            AuditAction = "LOCK"
	ActionUnlock          AuditAction = "UNLOCK"
	ActionExport          AuditAction = "EXPORT"
	ActionPrint           AuditAction = "PRINT"
	ActionLogin           AuditAction = "LOGIN"
	ActionLogout          AuditAction = "LOGOUT"
)

// FieldChange records the old and new value of one changed field.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// AuditLogEntry is one append-only record of a mutation. Entries are never
// updated or deleted once written.
type AuditLogEntry struct {
	EntryID      string                 `json:"entryID"` // Primary key (UUID)
	EntityType   string                 `json:"entityType"`
	EntityID     string                 `json:"entityID"`
	Action       AuditAction            `json:"action"`
	ActorID      string                 `json:"actorID"`
	Timestamp    time.Time              `json:"timestamp"`
	FieldChanges map[string]FieldChange `json:"fieldChanges,omitempty"`
	DocumentHash string                 `json:"documentHash,omitempty"`
	Note         string                 `json:"note,omitempty"`
}
