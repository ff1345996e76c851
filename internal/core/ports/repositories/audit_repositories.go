package repositories

import (
	"context"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// AuditRepositoryFacade is the append-only audit sink. There are no update
// or delete operations; the store additionally forbids them at the schema
// level.
type AuditRepositoryFacade interface {
	SaveEntry(ctx context.Context, entry domain.AuditLogEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error)
	ListByActor(ctx context.Context, actorID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error)
}
