package mapping

import (
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/kurniadi/customs_declaration_app/internal/models"
)

// ToModelAuditEntry converts a domain AuditLogEntry to its model.
func ToModelAuditEntry(d domain.AuditLogEntry) models.AuditLogEntry {
	var changes map[string]models.FieldChange
	if len(d.FieldChanges) > 0 {
		changes = make(map[string]models.FieldChange, len(d.FieldChanges))
		for field, c := range d.FieldChanges {
			changes[field] = models.FieldChange{Old: c.Old, New: c.New}
		}
	}
	return models.AuditLogEntry{
		EntryID:      d.EntryID,
		EntityType:   d.EntityType,
		EntityID:     d.EntityID,
		Action:       string(d.Action),
		ActorID:      d.ActorID,
		Timestamp:    d.Timestamp,
		FieldChanges: changes,
		DocumentHash: d.DocumentHash,
		Note:         d.Note,
	}
}

// ToDomainAuditEntry converts a model AuditLogEntry to its domain type.
func ToDomainAuditEntry(m models.AuditLogEntry) domain.AuditLogEntry {
	var changes map[string]domain.FieldChange
	if len(m.FieldChanges) > 0 {
		changes = make(map[string]domain.FieldChange, len(m.FieldChanges))
		for field, c := range m.FieldChanges {
			changes[field] = domain.FieldChange{Old: c.Old, New: c.New}
		}
	}
	return domain.AuditLogEntry{
		EntryID:      m.EntryID,
		EntityType:   m.EntityType,
		EntityID:     m.EntityID,
		Action:       domain.AuditAction(m.Action),
		ActorID:      m.ActorID,
		Timestamp:    m.Timestamp,
		FieldChanges: changes,
		DocumentHash: m.DocumentHash,
		Note:         m.Note,
	}
}
