package models

import "time"

// QueueItem is the database representation of one outbound transmission.
type QueueItem struct {
	QueueItemID   string     `json:"queueItemID"` // Primary key (UUID)
	DeclarationID string     `json:"declarationID"`
	DocumentType  string     `json:"documentType"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"lastAttemptAt"`
	LastError     string     `json:"lastError"`
	AuditFields
}
