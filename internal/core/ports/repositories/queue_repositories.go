package repositories

import (
	"context"
	"time"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// QueueRepositoryFacade persists outbound transmission queue items.
type QueueRepositoryFacade interface {
	// Enqueue inserts a PENDING item. The store enforces at most one PENDING
	// item per declaration; a second enqueue returns apperrors.ErrConflict.
	Enqueue(ctx context.Context, item domain.QueueItem, audit domain.AuditLogEntry) error

	// ClaimNextPending atomically claims one PENDING item for transmission:
	// it increments the attempt counter, stamps the attempt time, and skips
	// rows claimed by a concurrent processor (or claimed within the stale
	// window, which callers set to the gateway timeout). Returns
	// apperrors.ErrNotFound when no eligible item exists.
	ClaimNextPending(ctx context.Context, staleBefore time.Time) (*domain.QueueItem, error)

	// MarkOutcome finalizes a claimed item as ACCEPTED or FAILED and writes
	// the audit entry in the same transaction.
	MarkOutcome(ctx context.Context, queueItemID string, status domain.QueueStatus, lastError string, audit domain.AuditLogEntry) error

	// RequeueFailed flips a FAILED item whose retry budget is not exhausted
	// back to PENDING.
	RequeueFailed(ctx context.Context, queueItemID string, audit domain.AuditLogEntry) error

	FindByID(ctx context.Context, queueItemID string) (*domain.QueueItem, error)
	FindPendingByDeclaration(ctx context.Context, declarationID string) (*domain.QueueItem, error)
	ListByStatus(ctx context.Context, status domain.QueueStatus, limit int) ([]domain.QueueItem, error)
}
