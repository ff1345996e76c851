package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
	"github.com/kurniadi/customs_declaration_app/internal/models"
	"github.com/kurniadi/customs_declaration_app/internal/utils/mapping"
)

// PgxQueueRepository persists outbound transmission queue items. A partial
// unique index on (declaration_id) WHERE status = 'PENDING' enforces the
// one-pending-per-declaration rule in the store itself.
type PgxQueueRepository struct {
	BaseRepository
}

func newPgxQueueRepository(pool *pgxpool.Pool) portsrepo.QueueRepositoryFacade {
	return &PgxQueueRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.QueueRepositoryFacade = (*PgxQueueRepository)(nil)

const queueColumns = `
	queue_item_id, declaration_id, document_type, status, attempts,
	last_attempt_at, last_error, created_at, created_by, last_updated_at, last_updated_by`

func scanQueueItem(row pgx.Row) (*models.QueueItem, error) {
	var m models.QueueItem
	err := row.Scan(
		&m.QueueItemID, &m.DeclarationID, &m.DocumentType, &m.Status, &m.Attempts,
		&m.LastAttemptAt, &m.LastError,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// uniqueViolation is the PostgreSQL error code for a unique-index conflict.
const uniqueViolation = "23505"

// Enqueue inserts a PENDING item. A second pending item for the same
// declaration hits the partial unique index and surfaces as a conflict.
func (r *PgxQueueRepository) Enqueue(ctx context.Context, item domain.QueueItem, audit domain.AuditLogEntry) error {
	m := mapping.ToModelQueueItem(item)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO queue_items (` + queueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = tx.Exec(ctx, query,
		m.QueueItemID, m.DeclarationID, m.DocumentType, m.Status, m.Attempts,
		m.LastAttemptAt, m.LastError,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("declaration %s already has a pending transmission: %w", m.DeclarationID, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to enqueue item %s: %w", m.QueueItemID, err)
	}

	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// ClaimNextPending claims one PENDING item: the attempt counter and stamp
// are advanced in the same statement that selects the row, and SKIP LOCKED
// keeps concurrent processors off each other's claims. Items attempted
// after staleBefore are left alone; they may still be in flight elsewhere.
func (r *PgxQueueRepository) ClaimNextPending(ctx context.Context, staleBefore time.Time) (*domain.QueueItem, error) {
	query := `
		UPDATE queue_items
		SET attempts = attempts + 1, last_attempt_at = NOW(), last_updated_at = NOW()
		WHERE queue_item_id = (
			SELECT queue_item_id FROM queue_items
			WHERE status = 'PENDING'
			  AND (last_attempt_at IS NULL OR last_attempt_at < $1)
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + queueColumns + `;
	`
	m, err := scanQueueItem(r.Pool.QueryRow(ctx, query, staleBefore))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim queue item: %w", err)
	}
	item := mapping.ToDomainQueueItem(*m)
	return &item, nil
}

// MarkOutcome finalizes a claimed item with its audit entry.
func (r *PgxQueueRepository) MarkOutcome(ctx context.Context, queueItemID string, status domain.QueueStatus, lastError string, audit domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE queue_items
		SET status = $2, last_error = $3, last_updated_at = NOW(), last_updated_by = $4
		WHERE queue_item_id = $1;
	`
	tag, err := tx.Exec(ctx, query, queueItemID, string(status), lastError, audit.ActorID)
	if err != nil {
		return fmt.Errorf("failed to mark outcome for %s: %w", queueItemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("queue item %s: %w", queueItemID, apperrors.ErrNotFound)
	}

	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// RequeueFailed flips a FAILED item back to PENDING. The status guard in the
// WHERE clause keeps a concurrent retry from double-requeueing.
func (r *PgxQueueRepository) RequeueFailed(ctx context.Context, queueItemID string, audit domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE queue_items
		SET status = 'PENDING', last_attempt_at = NULL, last_updated_at = NOW(), last_updated_by = $2
		WHERE queue_item_id = $1 AND status = 'FAILED';
	`
	tag, err := tx.Exec(ctx, query, queueItemID, audit.ActorID)
	if err != nil {
		return fmt.Errorf("failed to requeue item %s: %w", queueItemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("queue item %s is not FAILED: %w", queueItemID, apperrors.ErrConflict)
	}

	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// FindByID retrieves one queue item.
func (r *PgxQueueRepository) FindByID(ctx context.Context, queueItemID string) (*domain.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM queue_items WHERE queue_item_id = $1;`
	m, err := scanQueueItem(r.Pool.QueryRow(ctx, query, queueItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("queue item %s: %w", queueItemID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find queue item %s: %w", queueItemID, err)
	}
	item := mapping.ToDomainQueueItem(*m)
	return &item, nil
}

// FindPendingByDeclaration retrieves the PENDING item for a declaration.
func (r *PgxQueueRepository) FindPendingByDeclaration(ctx context.Context, declarationID string) (*domain.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM queue_items WHERE declaration_id = $1 AND status = 'PENDING';`
	m, err := scanQueueItem(r.Pool.QueryRow(ctx, query, declarationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no pending item for declaration %s: %w", declarationID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find pending item for %s: %w", declarationID, err)
	}
	item := mapping.ToDomainQueueItem(*m)
	return &item, nil
}

// ListByStatus retrieves queue items by status, oldest first.
func (r *PgxQueueRepository) ListByStatus(ctx context.Context, status domain.QueueStatus, limit int) ([]domain.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM queue_items WHERE status = $1 ORDER BY created_at LIMIT $2;`
	rows, err := r.Pool.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}
	defer rows.Close()

	var modelItems []models.QueueItem
	for rows.Next() {
		m, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		modelItems = append(modelItems, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue items: %w", err)
	}
	return mapping.ToDomainQueueItemSlice(modelItems), nil
}
