package pgsql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
	"github.com/kurniadi/customs_declaration_app/internal/models"
	"github.com/kurniadi/customs_declaration_app/internal/utils/mapping"
	"github.com/kurniadi/customs_declaration_app/internal/utils/pagination"
)

// PgxMessageRepository persists gateway responses and their archive. A
// message lives in exactly one of incoming_messages or message_archive.
type PgxMessageRepository struct {
	BaseRepository
}

func newPgxMessageRepository(pool *pgxpool.Pool) portsrepo.MessageRepositoryFacade {
	return &PgxMessageRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.MessageRepositoryFacade = (*PgxMessageRepository)(nil)

const messageColumns = `message_id, nomor_aju, document_type, status, errors, raw_payload, received_at`

func marshalMessageErrors(m models.IncomingMessage) ([]byte, error) {
	errs := m.Errors
	if errs == nil {
		errs = []models.ResponseError{}
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message errors: %w", err)
	}
	return errsJSON, nil
}

func scanMessage(row pgx.Row) (*models.IncomingMessage, error) {
	var m models.IncomingMessage
	var errsJSON []byte
	err := row.Scan(&m.MessageID, &m.NomorAju, &m.DocumentType, &m.Status, &errsJSON, &m.RawPayload, &m.ReceivedAt)
	if err != nil {
		return nil, err
	}
	if len(errsJSON) > 0 {
		if err := json.Unmarshal(errsJSON, &m.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal errors for message %s: %w", m.MessageID, err)
		}
	}
	return &m, nil
}

// SaveIncoming stores a received gateway response for later ingestion.
func (r *PgxMessageRepository) SaveIncoming(ctx context.Context, msg domain.IncomingMessage) error {
	m := mapping.ToModelIncomingMessage(msg)
	errsJSON, err := marshalMessageErrors(m)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO incoming_messages (` + messageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.MessageID, m.NomorAju, m.DocumentType, m.Status, errsJSON, m.RawPayload, m.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save incoming message %s: %w", m.MessageID, err)
	}
	return nil
}

// ListIncoming retrieves unapplied messages, oldest first.
func (r *PgxMessageRepository) ListIncoming(ctx context.Context, limit int) ([]domain.IncomingMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM incoming_messages ORDER BY received_at LIMIT $1;`
	rows, err := r.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.IncomingMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incoming message: %w", err)
		}
		msgs = append(msgs, mapping.ToDomainIncomingMessage(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incoming messages: %w", err)
	}
	return msgs, nil
}

// archiveTx moves one message row into the archive inside an existing
// transaction: insert into message_archive, delete from incoming_messages.
func archiveTx(ctx context.Context, tx pgx.Tx, msg models.IncomingMessage, archivedAt time.Time) error {
	errsJSON, err := marshalMessageErrors(msg)
	if err != nil {
		return err
	}

	insertQuery := `
		INSERT INTO message_archive (` + messageColumns + `, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	if _, err := tx.Exec(ctx, insertQuery,
		msg.MessageID, msg.NomorAju, msg.DocumentType, msg.Status, errsJSON, msg.RawPayload, msg.ReceivedAt,
		archivedAt,
	); err != nil {
		return fmt.Errorf("failed to archive message %s: %w", msg.MessageID, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM incoming_messages WHERE message_id = $1;`, msg.MessageID)
	if err != nil {
		return fmt.Errorf("failed to remove incoming message %s: %w", msg.MessageID, err)
	}
	if tag.RowsAffected() == 0 {
		// Another ingester already archived it.
		return fmt.Errorf("message %s already archived: %w", msg.MessageID, apperrors.ErrConflict)
	}
	return nil
}

// ApplyAndArchive applies a message to its declaration and archives it in
// one transaction: the compare-and-set status update, the archive move, and
// the audit entry all commit or roll back together.
func (r *PgxMessageRepository) ApplyAndArchive(ctx context.Context, msg domain.IncomingMessage, declarationID string, prev domain.DeclarationStatus, update portsrepo.StatusUpdate, audit domain.AuditLogEntry) error {
	m := mapping.ToModelIncomingMessage(msg)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	statusQuery := `
		UPDATE declarations
		SET status = $3,
		    registration_no = COALESCE($4, registration_no),
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE declaration_id = $1 AND status = $2;
	`
	tag, err := tx.Exec(ctx, statusQuery,
		declarationID, string(prev), string(update.Next),
		update.RegistrationNo, audit.Timestamp, audit.ActorID,
	)
	if err != nil {
		return fmt.Errorf("failed to apply message %s to declaration %s: %w", m.MessageID, declarationID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("declaration %s status changed concurrently: %w", declarationID, apperrors.ErrConflict)
	}

	if err := archiveTx(ctx, tx, m, audit.Timestamp); err != nil {
		return err
	}
	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// ArchiveOrphan archives a message without touching any declaration.
func (r *PgxMessageRepository) ArchiveOrphan(ctx context.Context, msg domain.IncomingMessage) error {
	m := mapping.ToModelIncomingMessage(msg)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := archiveTx(ctx, tx, m, time.Now().UTC()); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// ListArchive retrieves archived messages, newest first.
func (r *PgxMessageRepository) ListArchive(ctx context.Context, limit int, nextToken *string) ([]domain.ArchiveEntry, *string, error) {
	query := `SELECT ` + messageColumns + `, archived_at FROM message_archive`
	var args []any

	if nextToken != nil {
		ts, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid page token", apperrors.ErrValidation)
		}
		args = append(args, ts, id)
		query += " WHERE (archived_at, message_id) < ($1, $2)"
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY archived_at DESC, message_id DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list archive: %w", err)
	}
	defer rows.Close()

	var modelEntries []models.ArchiveEntry
	for rows.Next() {
		var m models.ArchiveEntry
		var errsJSON []byte
		if err := rows.Scan(
			&m.MessageID, &m.NomorAju, &m.DocumentType, &m.Status, &errsJSON, &m.RawPayload, &m.ReceivedAt,
			&m.ArchivedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan archive entry: %w", err)
		}
		if len(errsJSON) > 0 {
			if err := json.Unmarshal(errsJSON, &m.Errors); err != nil {
				return nil, nil, fmt.Errorf("failed to unmarshal errors for archived message %s: %w", m.MessageID, err)
			}
		}
		modelEntries = append(modelEntries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate archive: %w", err)
	}

	var token *string
	if len(modelEntries) > limit {
		modelEntries = modelEntries[:limit]
		last := modelEntries[limit-1]
		t := pagination.EncodeToken(last.ArchivedAt, last.MessageID)
		token = &t
	}

	entries := make([]domain.ArchiveEntry, len(modelEntries))
	for i, m := range modelEntries {
		entries[i] = mapping.ToDomainArchiveEntry(m)
	}
	return entries, token, nil
}
