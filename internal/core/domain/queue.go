package domain

import "time"

// QueueStatus is the state of one outbound transmission.
type QueueStatus string

const (
	QueuePending  QueueStatus = "PENDING"
	QueueAccepted QueueStatus = "ACCEPTED"
	QueueFailed   QueueStatus = "FAILED"
)

// QueueItem is one pending outbound transmission to the customs gateway,
// owned by exactly one declaration. At most one item may be PENDING for a
// given declaration at a time.
type QueueItem struct {
	QueueItemID   string       `json:"queueItemID"` // Primary key (UUID)
	DeclarationID string       `json:"declarationID"`
	DocumentType  DocumentType `json:"documentType"`
	Status        QueueStatus  `json:"status"`
	Attempts      int          `json:"attempts"`
	LastAttemptAt *time.Time   `json:"lastAttemptAt"`
	LastError     string       `json:"lastError"`
	AuditFields
}

// RetryExhausted reports whether the item has exceeded the retry bound and
// now requires manual intervention.
func (q *QueueItem) RetryExhausted(maxAttempts int) bool {
	return q.Status == QueueFailed && q.Attempts >= maxAttempts
}
