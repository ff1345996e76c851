package repositories

import (
	"context"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// MessageRepositoryFacade persists gateway responses and their archive.
type MessageRepositoryFacade interface {
	SaveIncoming(ctx context.Context, msg domain.IncomingMessage) error
	ListIncoming(ctx context.Context, limit int) ([]domain.IncomingMessage, error)

	// ApplyAndArchive atomically applies a message to its declaration and
	// moves it to the archive: the declaration status update, the archive
	// insert, the incoming-row delete, and the audit entry are one database
	// transaction. A message is never visible as both incoming and archived.
	ApplyAndArchive(ctx context.Context, msg domain.IncomingMessage, declarationID string, prev domain.DeclarationStatus, update StatusUpdate, audit domain.AuditLogEntry) error

	// ArchiveOrphan archives a message that references no known declaration.
	ArchiveOrphan(ctx context.Context, msg domain.IncomingMessage) error

	ListArchive(ctx context.Context, limit int, nextToken *string) ([]domain.ArchiveEntry, *string, error)
}
