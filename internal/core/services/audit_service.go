package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
	portssvc "github.com/kurniadi/customs_declaration_app/internal/core/ports/services"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
)

// auditService is the append-only audit sink for standalone events and the
// query surface over the trail. Entries coupled to entity mutations are
// written by the repositories inside the mutating transaction instead.
type auditService struct {
	auditRepo portsrepo.AuditRepositoryFacade
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo portsrepo.AuditRepositoryFacade) portssvc.AuditSvcFacade {
	return &auditService{auditRepo: auditRepo}
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// NewAuditEntry builds a fully-populated entry for the given mutation.
func NewAuditEntry(entityType, entityID string, action domain.AuditAction, actor domain.Actor) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		EntryID:    uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actor.UserID,
		Timestamp:  time.Now().UTC(),
	}
}

func (s *auditService) Record(ctx context.Context, entry domain.AuditLogEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := s.auditRepo.SaveEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

func (s *auditService) ListByEntity(ctx context.Context, actor domain.Actor, entityType, entityID string, limit int, nextToken *string) (*dto.ListAuditResponse, error) {
	if !actor.Can(domain.CapViewAudit) {
		return nil, fmt.Errorf("%w: viewing the audit trail requires %s", apperrors.ErrForbidden, domain.CapViewAudit)
	}
	if limit <= 0 {
		limit = 50
	}

	entries, next, err := s.auditRepo.ListByEntity(ctx, entityType, entityID, limit, nextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return &dto.ListAuditResponse{Entries: dto.ToAuditEntryResponses(entries), NextToken: next}, nil
}

func (s *auditService) ListByActor(ctx context.Context, actor domain.Actor, actorID string, limit int, nextToken *string) (*dto.ListAuditResponse, error) {
	if !actor.Can(domain.CapViewAudit) {
		return nil, fmt.Errorf("%w: viewing the audit trail requires %s", apperrors.ErrForbidden, domain.CapViewAudit)
	}
	if limit <= 0 {
		limit = 50
	}

	entries, next, err := s.auditRepo.ListByActor(ctx, actorID, limit, nextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return &dto.ListAuditResponse{Entries: dto.ToAuditEntryResponses(entries), NextToken: next}, nil
}
