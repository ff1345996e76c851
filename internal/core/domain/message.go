package domain

import "time"

// MessageStatus is the outcome carried by a gateway response.
type MessageStatus string

const (
	MessageAccepted MessageStatus = "ACCEPTED"
	MessageRejected MessageStatus = "REJECTED"
)

// ResponseError is one error code/message pair from a gateway rejection.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncomingMessage is a response received from the gateway, referencing a
// declaration by its submission number. Once applied it is moved to the
// archive and is no longer mutable.
type IncomingMessage struct {
	MessageID    string          `json:"messageID"` // Primary key (UUID)
	NomorAju     string          `json:"nomorAju"`
	DocumentType DocumentType    `json:"documentType"`
	Status       MessageStatus   `json:"status"`
	Errors       []ResponseError `json:"errors,omitempty"`
	RawPayload   string          `json:"rawPayload"`
	ReceivedAt   time.Time       `json:"receivedAt"`
}

// ArchiveEntry is an applied IncomingMessage, frozen with its archival time.
type ArchiveEntry struct {
	IncomingMessage
	ArchivedAt time.Time `json:"archivedAt"`
}
