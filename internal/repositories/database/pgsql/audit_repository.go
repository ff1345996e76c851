package pgsql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
	"github.com/kurniadi/customs_declaration_app/internal/models"
	"github.com/kurniadi/customs_declaration_app/internal/utils/mapping"
	"github.com/kurniadi/customs_declaration_app/internal/utils/pagination"
)

// PgxAuditRepository is the append-only audit sink. It exposes inserts and
// reads only; the audit_log table additionally revokes UPDATE and DELETE.
type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepositoryFacade {
	return &PgxAuditRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

const insertAuditEntrySQL = `
	INSERT INTO audit_log (entry_id, entity_type, entity_id, action, actor_id, timestamp, field_changes, document_hash, note)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`

// insertAuditEntryTx writes one audit row inside an existing transaction.
// Repositories use it so a state change and its audit entry commit together.
func insertAuditEntryTx(ctx context.Context, tx pgx.Tx, entry domain.AuditLogEntry) error {
	modelEntry := mapping.ToModelAuditEntry(entry)

	var changesJSON []byte
	if modelEntry.FieldChanges != nil {
		var err error
		changesJSON, err = json.Marshal(modelEntry.FieldChanges)
		if err != nil {
			return fmt.Errorf("failed to marshal field changes: %w", err)
		}
	}

	_, err := tx.Exec(ctx, insertAuditEntrySQL,
		modelEntry.EntryID,
		modelEntry.EntityType,
		modelEntry.EntityID,
		modelEntry.Action,
		modelEntry.ActorID,
		modelEntry.Timestamp,
		changesJSON,
		modelEntry.DocumentHash,
		modelEntry.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry %s: %w", modelEntry.EntryID, err)
	}
	return nil
}

// SaveEntry inserts a standalone audit entry (read-only operations such as
// export and print record these outside a mutation transaction).
func (r *PgxAuditRepository) SaveEntry(ctx context.Context, entry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertAuditEntryTx(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

const selectAuditEntrySQL = `
	SELECT entry_id, entity_type, entity_id, action, actor_id, timestamp, field_changes, document_hash, note
	FROM audit_log
`

func scanAuditRows(rows pgx.Rows) ([]models.AuditLogEntry, error) {
	defer rows.Close()
	var entries []models.AuditLogEntry
	for rows.Next() {
		var m models.AuditLogEntry
		var changesJSON []byte
		if err := rows.Scan(
			&m.EntryID,
			&m.EntityType,
			&m.EntityID,
			&m.Action,
			&m.ActorID,
			&m.Timestamp,
			&changesJSON,
			&m.DocumentHash,
			&m.Note,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(changesJSON) > 0 {
			if err := json.Unmarshal(changesJSON, &m.FieldChanges); err != nil {
				return nil, fmt.Errorf("failed to unmarshal field changes for %s: %w", m.EntryID, err)
			}
		}
		entries = append(entries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}

func (r *PgxAuditRepository) listEntries(ctx context.Context, where string, limit int, nextToken *string, args ...any) ([]domain.AuditLogEntry, *string, error) {
	query := selectAuditEntrySQL + " WHERE " + where

	if nextToken != nil {
		ts, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid page token", apperrors.ErrValidation)
		}
		query += fmt.Sprintf(" AND (timestamp, entry_id) < ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, ts, id)
	}

	query += fmt.Sprintf(" ORDER BY timestamp DESC, entry_id DESC LIMIT $%d;", len(args)+1)
	args = append(args, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	modelEntries, err := scanAuditRows(rows)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(modelEntries) > limit {
		modelEntries = modelEntries[:limit]
		last := modelEntries[limit-1]
		t := pagination.EncodeToken(last.Timestamp, last.EntryID)
		token = &t
	}

	entries := make([]domain.AuditLogEntry, len(modelEntries))
	for i, m := range modelEntries {
		entries[i] = mapping.ToDomainAuditEntry(m)
	}
	return entries, token, nil
}

// ListByEntity retrieves audit entries for one entity, newest first.
func (r *PgxAuditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	return r.listEntries(ctx, "entity_type = $1 AND entity_id = $2", limit, nextToken, entityType, entityID)
}

// ListByActor retrieves audit entries recorded by one actor, newest first.
func (r *PgxAuditRepository) ListByActor(ctx context.Context, actorID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	return r.listEntries(ctx, "actor_id = $1", limit, nextToken, actorID)
}
