package services

import (
	"context"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
)

// DeclarationSvcFacade owns the declaration lifecycle. Every operation takes
// the acting user's resolved capability set explicitly; nothing consults
// ambient state.
type DeclarationSvcFacade interface {
	CreateDeclaration(ctx context.Context, actor domain.Actor, req dto.CreateDeclarationRequest) (*domain.Declaration, error)
	GetDeclaration(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error)
	ListDeclarations(ctx context.Context, actor domain.Actor, params dto.ListDeclarationsParams) (*dto.ListDeclarationsResponse, error)
	UpdateDeclaration(ctx context.Context, actor domain.Actor, declarationID string, req dto.UpdateDeclarationRequest) (*domain.Declaration, error)

	AddItem(ctx context.Context, actor domain.Actor, declarationID string, req dto.ItemRequest) (*domain.DeclarationItem, error)
	UpdateItem(ctx context.Context, actor domain.Actor, declarationID, itemID string, req dto.ItemRequest) (*domain.DeclarationItem, error)
	RemoveItem(ctx context.Context, actor domain.Actor, declarationID, itemID string) error
	AttachDocument(ctx context.Context, actor domain.Actor, declarationID string, req dto.AttachDocumentRequest) (*domain.Declaration, error)

	// Submit runs the full submission guard, generates the canonical XML
	// and its hash, locks the declaration, and transitions it to SUBMITTED.
	Submit(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error)
	MarkUnderReview(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error)
	Approve(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error)
	Reject(ctx context.Context, actor domain.Actor, declarationID, reason string) (*domain.Declaration, error)
	Lock(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error)
	Unlock(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error)

	// ExportXML verifies the stored hash and returns the submitted payload.
	ExportXML(ctx context.Context, actor domain.Actor, declarationID string) (string, error)
	// PrintSummary renders the printable PDF summary.
	PrintSummary(ctx context.Context, actor domain.Actor, declarationID string) ([]byte, error)

	// AllowedIncoterms pre-filters trade terms for a transport mode.
	AllowedIncoterms(mode domain.TransportMode) []domain.Incoterm
}
