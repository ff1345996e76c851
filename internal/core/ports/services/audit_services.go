package services

import (
	"context"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
)

// AuditSvcFacade records and queries the append-only audit trail. Mutations
// coupled to entity state changes are written by the repositories inside the
// same transaction; this facade covers standalone events (login, export,
// print) and querying.
type AuditSvcFacade interface {
	Record(ctx context.Context, entry domain.AuditLogEntry) error
	ListByEntity(ctx context.Context, actor domain.Actor, entityType, entityID string, limit int, nextToken *string) (*dto.ListAuditResponse, error)
	ListByActor(ctx context.Context, actor domain.Actor, actorID string, limit int, nextToken *string) (*dto.ListAuditResponse, error)
}
