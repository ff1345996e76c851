package mapping

import (
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/kurniadi/customs_declaration_app/internal/models"
)

// ToModelQueueItem converts a domain QueueItem to a model QueueItem.
func ToModelQueueItem(d domain.QueueItem) models.QueueItem {
	return models.QueueItem{
		QueueItemID:   d.QueueItemID,
		DeclarationID: d.DeclarationID,
		DocumentType:  string(d.DocumentType),
		Status:        string(d.Status),
		Attempts:      d.Attempts,
		LastAttemptAt: d.LastAttemptAt,
		LastError:     d.LastError,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainQueueItem converts a model QueueItem to a domain QueueItem.
func ToDomainQueueItem(m models.QueueItem) domain.QueueItem {
	return domain.QueueItem{
		QueueItemID:   m.QueueItemID,
		DeclarationID: m.DeclarationID,
		DocumentType:  domain.DocumentType(m.DocumentType),
		Status:        domain.QueueStatus(m.Status),
		Attempts:      m.Attempts,
		LastAttemptAt: m.LastAttemptAt,
		LastError:     m.LastError,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainQueueItemSlice converts a slice of model queue items.
func ToDomainQueueItemSlice(ms []models.QueueItem) []domain.QueueItem {
	ds := make([]domain.QueueItem, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainQueueItem(m)
	}
	return ds
}

// ToModelIncomingMessage converts a domain IncomingMessage to its model.
func ToModelIncomingMessage(d domain.IncomingMessage) models.IncomingMessage {
	errs := make([]models.ResponseError, len(d.Errors))
	for i, e := range d.Errors {
		errs[i] = models.ResponseError{Code: e.Code, Message: e.Message}
	}
	return models.IncomingMessage{
		MessageID:    d.MessageID,
		NomorAju:     d.NomorAju,
		DocumentType: string(d.DocumentType),
		Status:       string(d.Status),
		Errors:       errs,
		RawPayload:   d.RawPayload,
		ReceivedAt:   d.ReceivedAt,
	}
}

// ToDomainIncomingMessage converts a model IncomingMessage to its domain type.
func ToDomainIncomingMessage(m models.IncomingMessage) domain.IncomingMessage {
	errs := make([]domain.ResponseError, len(m.Errors))
	for i, e := range m.Errors {
		errs[i] = domain.ResponseError{Code: e.Code, Message: e.Message}
	}
	return domain.IncomingMessage{
		MessageID:    m.MessageID,
		NomorAju:     m.NomorAju,
		DocumentType: domain.DocumentType(m.DocumentType),
		Status:       domain.MessageStatus(m.Status),
		Errors:       errs,
		RawPayload:   m.RawPayload,
		ReceivedAt:   m.ReceivedAt,
	}
}

// ToDomainArchiveEntry converts a model ArchiveEntry to its domain type.
func ToDomainArchiveEntry(m models.ArchiveEntry) domain.ArchiveEntry {
	return domain.ArchiveEntry{
		IncomingMessage: ToDomainIncomingMessage(m.IncomingMessage),
		ArchivedAt:      m.ArchivedAt,
	}
}
