package models

import "time"

// ResponseError is one error pair from a gateway rejection, stored as part
// of the message row's JSONB column.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncomingMessage is the database representation of a received gateway
// response that has not been applied yet.
type IncomingMessage struct {
	MessageID    string          `json:"messageID"` // Primary key (UUID)
	NomorAju     string          `json:"nomorAju"`
	DocumentType string          `json:"documentType"`
	Status       string          `json:"status"`
	Errors       []ResponseError `json:"errors,omitempty"`
	RawPayload   string          `json:"rawPayload"`
	ReceivedAt   time.Time       `json:"receivedAt"`
}

// ArchiveEntry is an applied (or orphaned) message in the archive.
type ArchiveEntry struct {
	IncomingMessage
	ArchivedAt time.Time `json:"archivedAt"`
}
