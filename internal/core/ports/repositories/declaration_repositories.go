package repositories

import (
	"context"
	"time"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// ListDeclarationsFilter narrows a declaration listing.
type ListDeclarationsFilter struct {
	DocumentType *domain.DocumentType
	Status       *domain.DeclarationStatus
	Limit        int
	NextToken    *string
}

// StatusUpdate carries the fields a status transition is allowed to touch.
// Everything else on a locked declaration is immutable.
type StatusUpdate struct {
	Next           domain.DeclarationStatus
	NomorAju       *string
	RegistrationNo *string
	LockedAt       *time.Time
	LockedBy       *string
	ClearLock      bool
}

// DeclarationRepositoryFacade persists declarations and their goods lines.
// Every mutating method writes the given audit entry in the same database
// transaction as the state change: neither is committed without the other.
type DeclarationRepositoryFacade interface {
	SaveDeclaration(ctx context.Context, decl domain.Declaration, audit domain.AuditLogEntry) error
	FindDeclarationByID(ctx context.Context, declarationID string) (*domain.Declaration, error)
	FindDeclarationByNomorAju(ctx context.Context, nomorAju string) (*domain.Declaration, error)
	ListDeclarations(ctx context.Context, filter ListDeclarationsFilter) ([]domain.Declaration, *string, error)

	// UpdateDeclaration persists header field edits. Callers enforce the
	// immutability rules before calling.
	UpdateDeclaration(ctx context.Context, decl domain.Declaration, audit domain.AuditLogEntry) error

	// UpdateDeclarationStatus performs a compare-and-set on the status
	// column: the row is only updated when its status still equals prev,
	// otherwise apperrors.ErrConflict is returned.
	UpdateDeclarationStatus(ctx context.Context, declarationID string, prev domain.DeclarationStatus, update StatusUpdate, audit domain.AuditLogEntry) error

	// SubmitDeclaration atomically stores the generated XML, its hash, the
	// duty/tax amounts on every item, the new header totals, the lock
	// markers, and the SUBMITTED status.
	SubmitDeclaration(ctx context.Context, decl domain.Declaration, items []domain.DeclarationItem, audit domain.AuditLogEntry) error

	FindItemsByDeclarationID(ctx context.Context, declarationID string) ([]domain.DeclarationItem, error)
	SaveItem(ctx context.Context, item domain.DeclarationItem, audit domain.AuditLogEntry) error
	UpdateItem(ctx context.Context, item domain.DeclarationItem, audit domain.AuditLogEntry) error
	DeleteItem(ctx context.Context, declarationID, itemID string, audit domain.AuditLogEntry) error

	// UpsertByNomorAju inserts or refreshes a declaration fetched from the
	// gateway, keyed by its external submission number. Returns true when a
	// new row was created.
	UpsertByNomorAju(ctx context.Context, decl domain.Declaration, audit domain.AuditLogEntry) (bool, error)
}
