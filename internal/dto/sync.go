package dto

import (
	"time"

	"github.com/kurniadi/customs_declaration_app/internal/adapters/gateway"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// SyncLegRequest is the filter for one document type within a sync run.
// TaxpayerID and OfficeCode are mandatory; SubmissionNo narrows the fetch.
type SyncLegRequest struct {
	SubmissionNo string `json:"submissionNo"`
	TaxpayerID   string `json:"taxpayerID" binding:"required"`
	OfficeCode   string `json:"officeCode" binding:"required"`
}

// SyncRequest triggers a manual sync. A nil leg is explicitly skipped.
type SyncRequest struct {
	PEB *SyncLegRequest `json:"peb"`
	PIB *SyncLegRequest `json:"pib"`
}

// SyncLegError is one classified error from a sync leg.
type SyncLegError struct {
	Code        string `json:"code,omitempty"`
	Message     string `json:"message"`
	UserMessage string `json:"userMessage"`
	Action      string `json:"recommendedAction"`
}

// SyncLegResult reports one document type's leg of a sync run.
type SyncLegResult struct {
	Requested bool           `json:"requested"`
	Fetched   int            `json:"fetched"`
	Saved     int            `json:"saved"`
	Errors    []SyncLegError `json:"errors,omitempty"`
	Message   string         `json:"message"`
}

// SyncResult is the structured outcome of one Sync invocation. Legs are
// independent; partial success is a valid, reportable outcome.
type SyncResult struct {
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Summary  string        `json:"summary"`
	PEB      SyncLegResult `json:"peb"`
	PIB      SyncLegResult `json:"pib"`
}

// QueueRunResult reports one ProcessQueue invocation.
type QueueRunResult struct {
	Processed int           `json:"processed"`
	Accepted  int           `json:"accepted"`
	Failed    int           `json:"failed"`
	Exhausted int           `json:"exhausted"` // retry budget spent, manual intervention needed
	Duration  time.Duration `json:"duration"`
}

// IngestResult reports one incoming-message ingestion pass.
type IngestResult struct {
	Applied  int `json:"applied"`
	Orphaned int `json:"orphaned"` // messages referencing no known declaration
}

// QueueItemResponse is the API view of one queue item.
type QueueItemResponse struct {
	QueueItemID   string     `json:"queueItemID"`
	DeclarationID string     `json:"declarationID"`
	DocumentType  string     `json:"documentType"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
}

// ToQueueItemResponse converts a domain queue item to its API view.
func ToQueueItemResponse(item *domain.QueueItem) QueueItemResponse {
	return QueueItemResponse{
		QueueItemID:   item.QueueItemID,
		DeclarationID: item.DeclarationID,
		DocumentType:  string(item.DocumentType),
		Status:        string(item.Status),
		Attempts:      item.Attempts,
		LastAttemptAt: item.LastAttemptAt,
		LastError:     item.LastError,
	}
}

// FetchDiagnostic is the captured trace of the most recent fetch for one
// document type.
type FetchDiagnostic struct {
	DocumentType string        `json:"documentType"`
	Trace        gateway.Trace `json:"trace"`
}

// DiagnosticsReport is the privileged diagnostics view: last fetch per
// document type plus a rolling operation log.
type DiagnosticsReport struct {
	Enabled      bool              `json:"enabled"`
	LastFetches  []FetchDiagnostic `json:"lastFetches"`
	OperationLog []string          `json:"operationLog"`
}

// EnqueueRequest schedules an approved declaration for transmission.
type EnqueueRequest struct {
	DeclarationID string `json:"declarationID" binding:"required"`
}

// DiagnosticsToggleRequest enables or disables diagnostics capture.
type DiagnosticsToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ArchiveEntryResponse is the API view of one archived gateway message.
type ArchiveEntryResponse struct {
	MessageID    string                 `json:"messageID"`
	NomorAju     string                 `json:"nomorAju"`
	DocumentType string                 `json:"documentType"`
	Status       string                 `json:"status"`
	Errors       []domain.ResponseError `json:"errors,omitempty"`
	ReceivedAt   time.Time              `json:"receivedAt"`
	ArchivedAt   time.Time              `json:"archivedAt"`
}

// ListArchiveResponse is a paginated archive listing.
type ListArchiveResponse struct {
	Entries   []ArchiveEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ToArchiveEntryResponse converts an archived message to its API view. The
// raw payload stays server-side; the archive listing is an overview.
func ToArchiveEntryResponse(e *domain.ArchiveEntry) ArchiveEntryResponse {
	return ArchiveEntryResponse{
		MessageID:    e.MessageID,
		NomorAju:     e.NomorAju,
		DocumentType: string(e.DocumentType),
		Status:       string(e.Status),
		Errors:       e.Errors,
		ReceivedAt:   e.ReceivedAt,
		ArchivedAt:   e.ArchivedAt,
	}
}
