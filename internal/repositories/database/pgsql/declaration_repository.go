package pgsql

import (
	"context"
	"encoding/json"
	"errors"
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

// PgxDeclarationRepository persists declarations and their goods lines.
// Every mutation writes its audit entry in the same transaction.
type PgxDeclarationRepository struct {
	BaseRepository
}

func newPgxDeclarationRepository(pool *pgxpool.Pool) portsrepo.DeclarationRepositoryFacade {
	return &PgxDeclarationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.DeclarationRepositoryFacade = (*PgxDeclarationRepository)(nil)

const declarationColumns = `
	declaration_id, document_type, nomor_aju, registration_no, taxpayer_id,
	currency_code, exchange_rate, total_value, freight_value, insurance_value,
	total_bm, total_ppn, total_pph, total_tax,
	transport_mode, incoterm, office_code, api_number, status,
	generated_xml, document_hash, locked_at, locked_by, supporting_documents,
	created_at, created_by, last_updated_at, last_updated_by`

func scanDeclaration(row pgx.Row) (*models.Declaration, error) {
	var m models.Declaration
	var docsJSON []byte
	err := row.Scan(
		&m.DeclarationID,
		&m.DocumentType,
		&m.NomorAju,
		&m.RegistrationNo,
		&m.TaxpayerID,
		&m.CurrencyCode,
		&m.ExchangeRate,
		&m.TotalValue,
		&m.FreightValue,
		&m.InsuranceValue,
		&m.TotalBM,
		&m.TotalPPN,
		&m.TotalPPh,
		&m.TotalTax,
		&m.TransportMode,
		&m.Incoterm,
		&m.OfficeCode,
		&m.APINumber,
		&m.Status,
		&m.GeneratedXML,
		&m.DocumentHash,
		&m.LockedAt,
		&m.LockedBy,
		&docsJSON,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if len(docsJSON) > 0 {
		if err := json.Unmarshal(docsJSON, &m.SupportingDocuments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal supporting documents for %s: %w", m.DeclarationID, err)
		}
	}
	return &m, nil
}

func marshalDocs(m models.Declaration) ([]byte, error) {
	docs := m.SupportingDocuments
	if docs == nil {
		docs = []models.SupportingDocument{}
	}
	docsJSON, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal supporting documents: %w", err)
	}
	return docsJSON, nil
}

// SaveDeclaration inserts a new declaration with its creation audit entry.
func (r *PgxDeclarationRepository) SaveDeclaration(ctx context.Context, decl domain.Declaration, audit domain.AuditLogEntry) error {
	m := mapping.ToModelDeclaration(decl)
	docsJSON, err := marshalDocs(m)
	if err != nil {
		return err
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO declarations (` + declarationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28);
	`
	_, err = tx.Exec(ctx, query,
		m.DeclarationID, m.DocumentType, m.NomorAju, m.RegistrationNo, m.TaxpayerID,
		m.CurrencyCode, m.ExchangeRate, m.TotalValue, m.FreightValue, m.InsuranceValue,
		m.TotalBM, m.TotalPPN, m.TotalPPh, m.TotalTax,
		m.TransportMode, m.Incoterm, m.OfficeCode, m.APINumber, m.Status,
		m.GeneratedXML, m.DocumentHash, m.LockedAt, m.LockedBy, docsJSON,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert declaration %s: %w", m.DeclarationID, err)
	}

	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// FindDeclarationByID retrieves a declaration header by primary key.
func (r *PgxDeclarationRepository) FindDeclarationByID(ctx context.Context, declarationID string) (*domain.Declaration, error) {
	query := `SELECT ` + declarationColumns + ` FROM declarations WHERE declaration_id = $1;`
	m, err := scanDeclaration(r.Pool.QueryRow(ctx, query, declarationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("declaration %s: %w", declarationID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find declaration %s: %w", declarationID, err)
	}
	decl := mapping.ToDomainDeclaration(*m)
	return &decl, nil
}

// FindDeclarationByNomorAju retrieves a declaration by its gateway
// submission number.
func (r *PgxDeclarationRepository) FindDeclarationByNomorAju(ctx context.Context, nomorAju string) (*domain.Declaration, error) {
	query := `SELECT ` + declarationColumns + ` FROM declarations WHERE nomor_aju = $1;`
	m, err := scanDeclaration(r.Pool.QueryRow(ctx, query, nomorAju))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("nomor aju %s: %w", nomorAju, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find declaration by nomor aju %s: %w", nomorAju, err)
	}
	decl := mapping.ToDomainDeclaration(*m)
	return &decl, nil
}

// ListDeclarations retrieves a filtered page of declarations, newest first.
func (r *PgxDeclarationRepository) ListDeclarations(ctx context.Context, filter portsrepo.ListDeclarationsFilter) ([]domain.Declaration, *string, error) {
	query := `SELECT ` + declarationColumns + ` FROM declarations WHERE 1=1`
	var args []any

	if filter.DocumentType != nil {
		args = append(args, string(*filter.DocumentType))
		query += fmt.Sprintf(" AND document_type = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.NextToken != nil {
		ts, id, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid page token", apperrors.ErrValidation)
		}
		args = append(args, ts, id)
		query += fmt.Sprintf(" AND (created_at, declaration_id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, filter.Limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, declaration_id DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list declarations: %w", err)
	}
	defer rows.Close()

	var modelDecls []models.Declaration
	for rows.Next() {
		m, err := scanDeclaration(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan declaration: %w", err)
		}
		modelDecls = append(modelDecls, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate declarations: %w", err)
	}

	var token *string
	if len(modelDecls) > filter.Limit {
		modelDecls = modelDecls[:filter.Limit]
		last := modelDecls[filter.Limit-1]
		t := pagination.EncodeToken(last.CreatedAt, last.DeclarationID)
		token = &t
	}

	decls := make([]domain.Declaration, len(modelDecls))
	for i, m := range modelDecls {
		decls[i] = mapping.ToDomainDeclaration(m)
	}
	return decls, token, nil
}

// UpdateDeclaration persists header field edits with their audit entry.
func (r *PgxDeclarationRepository) UpdateDeclaration(ctx context.Context, decl domain.Declaration, audit domain.AuditLogEntry) error {
	m := mapping.ToModelDeclaration(decl)
	docsJSON, err := marshalDocs(m)
	if err != nil {
		return err
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE declarations
		SET currency_code = $2, exchange_rate = $3, freight_value = $4, insurance_value = $5,
		    transport_mode = $6, incoterm = $7, office_code = $8, api_number = $9,
		    supporting_documents = $10, last_updated_at = $11, last_updated_by = $12
		WHERE declaration_id = $1;
	`
	tag, err := tx.Exec(ctx, query,
		m.DeclarationID,
		m.CurrencyCode, m.ExchangeRate, m.FreightValue, m.InsuranceValue,
		m.TransportMode, m.Incoterm, m.OfficeCode, m.APINumber,
		docsJSON, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update declaration %s: %w", m.DeclarationID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("declaration %s: %w", m.DeclarationID, apperrors.ErrNotFound)
	}

	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpdateDeclarationStatus performs the compare-and-set transition: the row
// is only touched while its status still equals prev.
func (r *PgxDeclarationRepository) UpdateDeclarationStatus(ctx context.Context, declarationID string, prev domain.DeclarationStatus, update portsrepo.StatusUpdate, audit domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE declarations
		SET status = $3,
		    nomor_aju = COALESCE($4, nomor_aju),
		    registration_no = COALESCE($5, registration_no),
		    locked_at = CASE WHEN $6 THEN NULL ELSE COALESCE($7, locked_at) END,
		    locked_by = CASE WHEN $6 THEN '' ELSE COALESCE($8, locked_by) END,
		    last_updated_at = $9,
		    last_updated_by = $10
		WHERE declaration_id = $1 AND status = $2;
	`
	tag, err := tx.Exec(ctx, query,
		declarationID,
		string(prev),
		string(update.Next),
		update.NomorAju,
		update.RegistrationNo,
		update.ClearLock,
		update.LockedAt,
		update.LockedBy,
		audit.Timestamp,
		audit.ActorID,
	)
	if err != nil {
		return fmt.Errorf("failed to transition declaration %s: %w", declarationID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or another writer moved the status first.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM declarations WHERE declaration_id = $1);`, declarationID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check declaration %s: %w", declarationID, err)
		}
		if !exists {
			return fmt.Errorf("declaration %s: %w", declarationID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("declaration %s status changed concurrently: %w", declarationID, apperrors.ErrConflict)
	}

	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// SubmitDeclaration stores the submission atomically: header totals, the
// generated XML and hash, the lock markers, the SUBMITTED status, every
// item's assessed amounts, and the audit entry.
func (r *PgxDeclarationRepository) SubmitDeclaration(ctx context.Context, decl domain.Declaration, items []domain.DeclarationItem, audit domain.AuditLogEntry) error {
	m := mapping.ToModelDeclaration(decl)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	headerQuery := `
		UPDATE declarations
		SET status = $2, total_value = $3, total_bm = $4, total_ppn = $5, total_pph = $6, total_tax = $7,
		    generated_xml = $8, document_hash = $9, locked_at = $10, locked_by = $11,
		    last_updated_at = $12, last_updated_by = $13
		WHERE declaration_id = $1;
	`
	tag, err := tx.Exec(ctx, headerQuery,
		m.DeclarationID, m.Status,
		m.TotalValue, m.TotalBM, m.TotalPPN, m.TotalPPh, m.TotalTax,
		m.GeneratedXML, m.DocumentHash, m.LockedAt, m.LockedBy,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to store submission for %s: %w", m.DeclarationID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("declaration %s: %w", m.DeclarationID, apperrors.ErrNotFound)
	}

	itemQuery := `
		UPDATE declaration_items
		SET pph_rate = $2, bm_amount = $3, ppn_amount = $4, pph_amount = $5, total_tax = $6
		WHERE item_id = $1;
	`
	for _, item := range items {
		mi := mapping.ToModelItem(item)
		if _, err := tx.Exec(ctx, itemQuery,
			mi.ItemID, mi.PPhRate, mi.BMAmount, mi.PPNAmount, mi.PPhAmount, mi.TotalTax,
		); err != nil {
			return fmt.Errorf("failed to store assessment for item %s: %w", mi.ItemID, err)
		}
	}

	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

const itemColumns = `
	item_id, declaration_id, line_number, hs_code, description, quantity, unit,
	net_weight, gross_weight, unit_price, line_value, country_of_origin,
	bm_rate, ppn_rate, pph_rate, bm_amount, ppn_amount, pph_amount, total_tax,
	created_at, created_by, last_updated_at, last_updated_by`

func scanItemRows(rows pgx.Rows) ([]models.DeclarationItem, error) {
	defer rows.Close()
	var items []models.DeclarationItem
	for rows.Next() {
		var m models.DeclarationItem
		if err := rows.Scan(
			&m.ItemID, &m.DeclarationID, &m.LineNumber, &m.HSCode, &m.Description,
			&m.Quantity, &m.Unit, &m.NetWeight, &m.GrossWeight, &m.UnitPrice,
			&m.LineValue, &m.CountryOfOrigin,
			&m.BMRate, &m.PPNRate, &m.PPhRate,
			&m.BMAmount, &m.PPNAmount, &m.PPhAmount, &m.TotalTax,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan declaration item: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate declaration items: %w", err)
	}
	return items, nil
}

// FindItemsByDeclarationID retrieves goods lines ordered by line number.
func (r *PgxDeclarationRepository) FindItemsByDeclarationID(ctx context.Context, declarationID string) ([]domain.DeclarationItem, error) {
	query := `SELECT ` + itemColumns + ` FROM declaration_items WHERE declaration_id = $1 ORDER BY line_number;`
	rows, err := r.Pool.Query(ctx, query, declarationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for %s: %w", declarationID, err)
	}
	modelItems, err := scanItemRows(rows)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainItemSlice(modelItems), nil
}

// refreshTotalValueTx recomputes the header's total goods value from its
// lines, inside the item mutation's transaction.
func refreshTotalValueTx(ctx context.Context, tx pgx.Tx, declarationID string) error {
	query := `
		UPDATE declarations
		SET total_value = COALESCE((SELECT SUM(line_value) FROM declaration_items WHERE declaration_id = $1), 0)
		WHERE declaration_id = $1;
	`
	if _, err := tx.Exec(ctx, query, declarationID); err != nil {
		return fmt.Errorf("failed to refresh total value for %s: %w", declarationID, err)
	}
	return nil
}

// SaveItem inserts one goods line and refreshes the header total.
func (r *PgxDeclarationRepository) SaveItem(ctx context.Context, item domain.DeclarationItem, audit domain.AuditLogEntry) error {
	m := mapping.ToModelItem(item)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO declaration_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23);
	`
	_, err = tx.Exec(ctx, query,
		m.ItemID, m.DeclarationID, m.LineNumber, m.HSCode, m.Description,
		m.Quantity, m.Unit, m.NetWeight, m.GrossWeight, m.UnitPrice,
		m.LineValue, m.CountryOfOrigin,
		m.BMRate, m.PPNRate, m.PPhRate,
		m.BMAmount, m.PPNAmount, m.PPhAmount, m.TotalTax,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", m.ItemID, err)
	}

	if err := refreshTotalValueTx(ctx, tx, m.DeclarationID); err != nil {
		return err
	}
	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpdateItem replaces one goods line's attributes and refreshes the header
// total.
func (r *PgxDeclarationRepository) UpdateItem(ctx context.Context, item domain.DeclarationItem, audit domain.AuditLogEntry) error {
	m := mapping.ToModelItem(item)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE declaration_items
		SET hs_code = $2, description = $3, quantity = $4, unit = $5,
		    net_weight = $6, gross_weight = $7, unit_price = $8, line_value = $9,
		    country_of_origin = $10, bm_rate = $11, ppn_rate = $12,
		    last_updated_at = $13, last_updated_by = $14
		WHERE item_id = $1;
	`
	tag, err := tx.Exec(ctx, query,
		m.ItemID, m.HSCode, m.Description, m.Quantity, m.Unit,
		m.NetWeight, m.GrossWeight, m.UnitPrice, m.LineValue,
		m.CountryOfOrigin, m.BMRate, m.PPNRate,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", m.ItemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", m.ItemID, apperrors.ErrNotFound)
	}

	if err := refreshTotalValueTx(ctx, tx, m.DeclarationID); err != nil {
		return err
	}
	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// DeleteItem removes one goods line and refreshes the header total.
func (r *PgxDeclarationRepository) DeleteItem(ctx context.Context, declarationID, itemID string, audit domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `DELETE FROM declaration_items WHERE item_id = $1 AND declaration_id = $2;`, itemID, declarationID)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", itemID, apperrors.ErrNotFound)
	}

	if err := refreshTotalValueTx(ctx, tx, declarationID); err != nil {
		return err
	}
	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpsertByNomorAju inserts a declaration fetched from the gateway, or
// refreshes the gateway-owned fields of the existing row with the same
// submission number. Returns true when a new row was created.
func (r *PgxDeclarationRepository) UpsertByNomorAju(ctx context.Context, decl domain.Declaration, audit domain.AuditLogEntry) (bool, error) {
	m := mapping.ToModelDeclaration(decl)
	docsJSON, err := marshalDocs(m)
	if err != nil {
		return false, err
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer r.Rollback(ctx, tx)

	// xmax = 0 distinguishes a fresh insert from a conflict-update.
	query := `
		INSERT INTO declarations (` + declarationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		ON CONFLICT (nomor_aju) WHERE nomor_aju <> '' DO UPDATE SET
			registration_no = EXCLUDED.registration_no,
			status = EXCLUDED.status,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by
		RETURNING declaration_id, (xmax = 0);
	`
	var created bool
	var rowID string
	err = tx.QueryRow(ctx, query,
		m.DeclarationID, m.DocumentType, m.NomorAju, m.RegistrationNo, m.TaxpayerID,
		m.CurrencyCode, m.ExchangeRate, m.TotalValue, m.FreightValue, m.InsuranceValue,
		m.TotalBM, m.TotalPPN, m.TotalPPh, m.TotalTax,
		m.TransportMode, m.Incoterm, m.OfficeCode, m.APINumber, m.Status,
		m.GeneratedXML, m.DocumentHash, m.LockedAt, m.LockedBy, docsJSON,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	).Scan(&rowID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert declaration %s: %w", m.NomorAju, err)
	}

	// The audit entry must point at the surviving row, not the candidate id.
	audit.EntityID = rowID
	if err := insertAuditEntryTx(ctx, tx, audit); err != nil {
		return false, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return false, err
	}
	return created, nil
}
