package services

import (
	"context"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
)

// SyncSvcFacade is the EDI synchronization layer: manual-trigger fetch from
// the customs portal, outbound queue processing, and inbound response
// ingestion.
type SyncSvcFacade interface {
	// Sync runs the requested legs independently; one leg failing never
	// rolls back or blocks the other.
	Sync(ctx context.Context, actor domain.Actor, req dto.SyncRequest) (*dto.SyncResult, error)

	// Enqueue schedules an APPROVED declaration for transmission. A second
	// enqueue while one is pending returns a conflict.
	Enqueue(ctx context.Context, actor domain.Actor, declarationID string) (*domain.QueueItem, error)

	// ProcessQueue transmits pending queue items, at most one in flight per
	// declaration.
	ProcessQueue(ctx context.Context, actor domain.Actor) (*dto.QueueRunResult, error)

	// RetryFailed returns a FAILED item with remaining retry budget to the
	// queue.
	RetryFailed(ctx context.Context, actor domain.Actor, queueItemID string) (*domain.QueueItem, error)

	// IngestIncoming applies received gateway responses to their
	// declarations and archives them.
	IngestIncoming(ctx context.Context, actor domain.Actor) (*dto.IngestResult, error)

	ListQueue(ctx context.Context, actor domain.Actor, status domain.QueueStatus, limit int) ([]domain.QueueItem, error)

	// ListArchive pages through applied and orphaned gateway messages,
	// newest first.
	ListArchive(ctx context.Context, actor domain.Actor, limit int, nextToken *string) (*dto.ListArchiveResponse, error)

	// Diagnostics returns the captured portal traces and operation log.
	// Requires the diagnose capability.
	Diagnostics(ctx context.Context, actor domain.Actor) (*dto.DiagnosticsReport, error)
	SetDiagnostics(ctx context.Context, actor domain.Actor, enabled bool) error
}
