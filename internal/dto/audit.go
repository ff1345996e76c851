package dto

import (
	"time"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// AuditEntryResponse is the API view of one audit log entry.
type AuditEntryResponse struct {
	EntryID      string                        `json:"entryID"`
	EntityType   string                        `json:"entityType"`
	EntityID     string                        `json:"entityID"`
	Action       string                        `json:"action"`
	ActorID      string                        `json:"actorID"`
	Timestamp    time.Time                     `json:"timestamp"`
	FieldChanges map[string]domain.FieldChange `json:"fieldChanges,omitempty"`
	DocumentHash string                        `json:"documentHash,omitempty"`
	Note         string                        `json:"note,omitempty"`
}

// ListAuditResponse is a paginated audit listing.
type ListAuditResponse struct {
	Entries   []AuditEntryResponse `json:"entries"`
	NextToken *string              `json:"nextToken,omitempty"`
}

// ToAuditEntryResponse converts a domain audit entry to its API view.
func ToAuditEntryResponse(entry *domain.AuditLogEntry) AuditEntryResponse {
	return AuditEntryResponse{
		EntryID:      entry.EntryID,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		Action:       string(entry.Action),
		ActorID:      entry.ActorID,
		Timestamp:    entry.Timestamp,
		FieldChanges: entry.FieldChanges,
		DocumentHash: entry.DocumentHash,
		Note:         entry.Note,
	}
}

// ToAuditEntryResponses converts a slice of domain audit entries.
func ToAuditEntryResponses(entries []domain.AuditLogEntry) []AuditEntryResponse {
	responses := make([]AuditEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToAuditEntryResponse(&entries[i])
	}
	return responses
}
