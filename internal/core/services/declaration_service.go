package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
	portssvc "github.com/kurniadi/customs_declaration_app/internal/core/ports/services"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
	"github.com/kurniadi/customs_declaration_app/internal/middleware"
	"github.com/kurniadi/customs_declaration_app/internal/platform/metrics"
	"github.com/kurniadi/customs_declaration_app/internal/utils/ceisaxml"
	"github.com/kurniadi/customs_declaration_app/internal/utils/compliance"
	"github.com/kurniadi/customs_declaration_app/internal/utils/dutytax"
	"github.com/kurniadi/customs_declaration_app/internal/utils/printing"
)

var (
	ErrNoItems          = errors.New("declaration must have at least one goods line")
	ErrZeroValue        = errors.New("declaration total value must be greater than zero")
	ErrMissingDocuments = errors.New("required supporting documents are missing")
)

const entityDeclaration = "Declaration"
const entityItem = "DeclarationItem"

// declarationService owns the declaration lifecycle: creation, validated
// field edits, goods lines, the submission guard, and status transitions.
// Mutations on one declaration are serialized through a per-id lock.
type declarationService struct {
	declRepo  portsrepo.DeclarationRepositoryFacade
	auditRepo portsrepo.AuditRepositoryFacade
	metrics   *metrics.Metrics
	locks     *declarationLocks
}

// NewDeclarationService creates a new DeclarationService.
func NewDeclarationService(declRepo portsrepo.DeclarationRepositoryFacade, auditRepo portsrepo.AuditRepositoryFacade, m *metrics.Metrics) portssvc.DeclarationSvcFacade {
	return &declarationService{
		declRepo:  declRepo,
		auditRepo: auditRepo,
		metrics:   m,
		locks:     newDeclarationLocks(),
	}
}

var _ portssvc.DeclarationSvcFacade = (*declarationService)(nil)

// AllowedIncoterms pre-filters trade terms for a transport mode so callers
// can disable illegal combinations before submission is ever attempted.
func (s *declarationService) AllowedIncoterms(mode domain.TransportMode) []domain.Incoterm {
	return compliance.AllowedIncoterms(mode)
}

// editGuard rejects mutations on declarations whose status forbids them.
// UNDER_REVIEW is not a locked status, but while a reviewer holds the
// document the only legal operations are approve and reject, so edits are
// refused as a transition conflict rather than an immutability error.
func editGuard(decl *domain.Declaration) error {
	if decl.Status == domain.StatusUnderReview {
		return fmt.Errorf("%w: declaration is under review, only approve or reject are allowed", apperrors.ErrConflict)
	}
	if !decl.Editable() {
		return fmt.Errorf("%w: status is %s", apperrors.ErrImmutable, decl.Status)
	}
	return nil
}

func complianceError(violations []compliance.Violation) error {
	errs := make([]error, 0, len(violations)+1)
	errs = append(errs, apperrors.ErrValidation)
	for _, v := range violations {
		errs = append(errs, v)
	}
	return errors.Join(errs...)
}

// CreateDeclaration creates a new DRAFT declaration after checking the
// trade-term rule table, so an illegal transport/incoterm pair never enters
// the system.
func (s *declarationService) CreateDeclaration(ctx context.Context, actor domain.Actor, req dto.CreateDeclarationRequest) (*domain.Declaration, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if violations := compliance.Validate(req.TransportMode, req.Incoterm, req.FreightValue, req.InsuranceValue); len(violations) > 0 {
		return nil, complianceError(violations)
	}
	if req.ExchangeRate.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: exchange rate must be greater than zero", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	decl := domain.Declaration{
		DeclarationID:  uuid.NewString(),
		DocumentType:   req.DocumentType,
		TaxpayerID:     req.TaxpayerID,
		CurrencyCode:   req.CurrencyCode,
		ExchangeRate:   req.ExchangeRate,
		TotalValue:     decimal.Zero,
		FreightValue:   req.FreightValue,
		InsuranceValue: req.InsuranceValue,
		TotalBM:        decimal.Zero,
		TotalPPN:       decimal.Zero,
		TotalPPh:       decimal.Zero,
		TotalTax:       decimal.Zero,
		TransportMode:  req.TransportMode,
		Incoterm:       req.Incoterm,
		OfficeCode:     req.OfficeCode,
		APINumber:      req.APINumber,
		Status:         domain.StatusDraft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	audit := NewAuditEntry(entityDeclaration, decl.DeclarationID, domain.ActionCreate, actor)
	audit.Note = fmt.Sprintf("created %s draft", decl.DocumentType)

	if err := s.declRepo.SaveDeclaration(ctx, decl, audit); err != nil {
		logger.Error("Failed to save declaration", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save declaration: %w", err)
	}

	logger.Info("Declaration created", slog.String("declaration_id", decl.DeclarationID), slog.String("document_type", string(decl.DocumentType)))
	return &decl, nil
}

// GetDeclaration retrieves a declaration with its goods lines.
func (s *declarationService) GetDeclaration(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error) {
	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find declaration %s: %w", declarationID, err)
	}

	items, err := s.declRepo.FindItemsByDeclarationID(ctx, declarationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for declaration %s: %w", declarationID, err)
	}
	decl.Items = items
	return decl, nil
}

// ListDeclarations retrieves a paginated declaration listing.
func (s *declarationService) ListDeclarations(ctx context.Context, actor domain.Actor, params dto.ListDeclarationsParams) (*dto.ListDeclarationsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	decls, nextToken, err := s.declRepo.ListDeclarations(ctx, portsrepo.ListDeclarationsFilter{
		DocumentType: params.DocumentType,
		Status:       params.Status,
		Limit:        limit,
		NextToken:    params.NextToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list declarations: %w", err)
	}

	resp := &dto.ListDeclarationsResponse{NextToken: nextToken}
	resp.Declarations = make([]dto.DeclarationResponse, len(decls))
	for i := range decls {
		resp.Declarations[i] = dto.ToDeclarationResponse(&decls[i])
	}
	return resp, nil
}

// UpdateDeclaration applies header field edits. Edits on a locked
// declaration are rejected with an immutability error at this boundary,
// independent of any UI-level disabling.
func (s *declarationService) UpdateDeclaration(ctx context.Context, actor domain.Actor, declarationID string, req dto.UpdateDeclarationRequest) (*domain.Declaration, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	unlock := s.locks.Lock(declarationID)
	defer unlock()

	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if err := editGuard(decl); err != nil {
		return nil, err
	}

	changes := make(map[string]domain.FieldChange)
	apply := func(field, oldVal, newVal string) {
		if oldVal != newVal {
			changes[field] = domain.FieldChange{Old: oldVal, New: newVal}
		}
	}

	if req.CurrencyCode != nil {
		apply("currencyCode", decl.CurrencyCode, *req.CurrencyCode)
		decl.CurrencyCode = *req.CurrencyCode
	}
	if req.ExchangeRate != nil {
		if req.ExchangeRate.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: exchange rate must be greater than zero", apperrors.ErrValidation)
		}
		apply("exchangeRate", decl.ExchangeRate.String(), req.ExchangeRate.String())
		decl.ExchangeRate = *req.ExchangeRate
	}
	if req.FreightValue != nil {
		if req.FreightValue.IsNegative() {
			return nil, fmt.Errorf("%w: freight value must not be negative", apperrors.ErrValidation)
		}
		apply("freightValue", decl.FreightValue.String(), req.FreightValue.String())
		decl.FreightValue = *req.FreightValue
	}
	if req.InsuranceValue != nil {
		if req.InsuranceValue.IsNegative() {
			return nil, fmt.Errorf("%w: insurance value must not be negative", apperrors.ErrValidation)
		}
		apply("insuranceValue", decl.InsuranceValue.String(), req.InsuranceValue.String())
		decl.InsuranceValue = *req.InsuranceValue
	}
	if req.TransportMode != nil {
		apply("transportMode", string(decl.TransportMode), string(*req.TransportMode))
		decl.TransportMode = *req.TransportMode
	}
	if req.Incoterm != nil {
		apply("incoterm", string(decl.Incoterm), string(*req.Incoterm))
		decl.Incoterm = *req.Incoterm
	}
	if req.OfficeCode != nil {
		apply("officeCode", decl.OfficeCode, *req.OfficeCode)
		decl.OfficeCode = *req.OfficeCode
	}
	if req.APINumber != nil {
		apply("apiNumber", decl.APINumber, *req.APINumber)
		decl.APINumber = *req.APINumber
	}

	if len(changes) == 0 {
		logger.Debug("No fields provided for declaration update", slog.String("declaration_id", declarationID))
		return decl, nil
	}

	// The edited combination must still be legal.
	if violations := compliance.Validate(decl.TransportMode, decl.Incoterm, decl.FreightValue, decl.InsuranceValue); len(violations) > 0 {
		return nil, complianceError(violations)
	}

	decl.LastUpdatedAt = time.Now().UTC()
	decl.LastUpdatedBy = actor.UserID

	audit := NewAuditEntry(entityDeclaration, declarationID, domain.ActionUpdate, actor)
	audit.FieldChanges = changes

	if err := s.declRepo.UpdateDeclaration(ctx, *decl, audit); err != nil {
		logger.Error("Failed to update declaration", slog.String("error", err.Error()), slog.String("declaration_id", declarationID))
		return nil, fmt.Errorf("failed to update declaration: %w", err)
	}

	logger.Info("Declaration updated", slog.String("declaration_id", declarationID), slog.Int("changed_fields", len(changes)))
	return decl, nil
}

// AddItem appends a goods line to an editable declaration.
func (s *declarationService) AddItem(ctx context.Context, actor domain.Actor, declarationID string, req dto.ItemRequest) (*domain.DeclarationItem, error) {
	unlock := s.locks.Lock(declarationID)
	defer unlock()

	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if err := editGuard(decl); err != nil {
		return nil, err
	}

	existing, err := s.declRepo.FindItemsByDeclarationID(ctx, declarationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	nextLine := 1
	for _, it := range existing {
		if it.LineNumber >= nextLine {
			nextLine = it.LineNumber + 1
		}
	}

	now := time.Now().UTC()
	item := domain.DeclarationItem{
		ItemID:          uuid.NewString(),
		DeclarationID:   declarationID,
		LineNumber:      nextLine,
		HSCode:          req.HSCode,
		Description:     req.Description,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		NetWeight:       req.NetWeight,
		GrossWeight:     req.GrossWeight,
		UnitPrice:       req.UnitPrice,
		LineValue:       req.Quantity.Mul(req.UnitPrice),
		CountryOfOrigin: req.CountryOfOrigin,
		BMRate:          req.BMRate,
		PPNRate:         req.PPNRate,
		BMAmount:        decimal.Zero,
		PPNAmount:       decimal.Zero,
		PPhAmount:       decimal.Zero,
		TotalTax:        decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	audit := NewAuditEntry(entityItem, item.ItemID, domain.ActionCreate, actor)
	audit.Note = fmt.Sprintf("line %d (%s) added to declaration %s", item.LineNumber, item.HSCode, declarationID)

	if err := s.declRepo.SaveItem(ctx, item, audit); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	return &item, nil
}

// UpdateItem replaces the editable attributes of a goods line.
func (s *declarationService) UpdateItem(ctx context.Context, actor domain.Actor, declarationID, itemID string, req dto.ItemRequest) (*domain.DeclarationItem, error) {
	unlock := s.locks.Lock(declarationID)
	defer unlock()

	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if err := editGuard(decl); err != nil {
		return nil, err
	}

	items, err := s.declRepo.FindItemsByDeclarationID(ctx, declarationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	var current *domain.DeclarationItem
	for i := range items {
		if items[i].ItemID == itemID {
			current = &items[i]
			break
		}
	}
	if current == nil {
		return nil, fmt.Errorf("item %s: %w", itemID, apperrors.ErrNotFound)
	}

	changes := make(map[string]domain.FieldChange)
	apply := func(field, oldVal, newVal string) {
		if oldVal != newVal {
			changes[field] = domain.FieldChange{Old: oldVal, New: newVal}
		}
	}
	apply("hsCode", current.HSCode, req.HSCode)
	apply("description", current.Description, req.Description)
	apply("quantity", current.Quantity.String(), req.Quantity.String())
	apply("unit", current.Unit, req.Unit)
	apply("netWeight", current.NetWeight.String(), req.NetWeight.String())
	apply("grossWeight", current.GrossWeight.String(), req.GrossWeight.String())
	apply("unitPrice", current.UnitPrice.String(), req.UnitPrice.String())
	apply("countryOfOrigin", current.CountryOfOrigin, req.CountryOfOrigin)
	apply("bmRate", current.BMRate.String(), req.BMRate.String())
	apply("ppnRate", current.PPNRate.String(), req.PPNRate.String())

	updated := *current
	updated.HSCode = req.HSCode
	updated.Description = req.Description
	updated.Quantity = req.Quantity
	updated.Unit = req.Unit
	updated.NetWeight = req.NetWeight
	updated.GrossWeight = req.GrossWeight
	updated.UnitPrice = req.UnitPrice
	updated.LineValue = req.Quantity.Mul(req.UnitPrice)
	updated.CountryOfOrigin = req.CountryOfOrigin
	updated.BMRate = req.BMRate
	updated.PPNRate = req.PPNRate
	updated.LastUpdatedAt = time.Now().UTC()
	updated.LastUpdatedBy = actor.UserID

	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if len(changes) == 0 {
		return current, nil
	}

	audit := NewAuditEntry(entityItem, itemID, domain.ActionUpdate, actor)
	audit.FieldChanges = changes

	if err := s.declRepo.UpdateItem(ctx, updated, audit); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return &updated, nil
}

// RemoveItem deletes a goods line from an editable declaration.
func (s *declarationService) RemoveItem(ctx context.Context, actor domain.Actor, declarationID, itemID string) error {
	unlock := s.locks.Lock(declarationID)
	defer unlock()

	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return err
	}
	if err := editGuard(decl); err != nil {
		return err
	}

	audit := NewAuditEntry(entityItem, itemID, domain.ActionUpdate, actor)
	audit.Note = fmt.Sprintf("line removed from declaration %s", declarationID)

	if err := s.declRepo.DeleteItem(ctx, declarationID, itemID, audit); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// AttachDocument attaches a supporting document to an editable declaration.
func (s *declarationService) AttachDocument(ctx context.Context, actor domain.Actor, declarationID string, req dto.AttachDocumentRequest) (*domain.Declaration, error) {
	unlock := s.locks.Lock(declarationID)
	defer unlock()

	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if err := editGuard(decl); err != nil {
		return nil, err
	}

	decl.SupportingDocuments = append(decl.SupportingDocuments, domain.SupportingDocument{
		Category:     req.Category,
		DocumentNo:   req.DocumentNo,
		DocumentDate: req.DocumentDate,
	})
	decl.LastUpdatedAt = time.Now().UTC()
	decl.LastUpdatedBy = actor.UserID

	audit := NewAuditEntry(entityDeclaration, declarationID, domain.ActionUpdate, actor)
	audit.Note = fmt.Sprintf("supporting document attached: %s %s", req.Category, req.DocumentNo)

	if err := s.declRepo.UpdateDeclaration(ctx, *decl, audit); err != nil {
		return nil, fmt.Errorf("failed to attach document: %w", err)
	}
	return decl, nil
}

// validateForSubmission runs the full submission guard and returns one error
// per violated rule.
func (s *declarationService) validateForSubmission(decl *domain.Declaration, items []domain.DeclarationItem) error {
	var errs []error

	if violations := compliance.Validate(decl.TransportMode, decl.Incoterm, decl.FreightValue, decl.InsuranceValue); len(violations) > 0 {
		for _, v := range violations {
			errs = append(errs, v)
		}
	}

	if len(items) == 0 {
		errs = append(errs, ErrNoItems)
	}
	for i := range items {
		if err := items[i].Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	totalValue := decimal.Zero
	for _, item := range items {
		totalValue = totalValue.Add(item.LineValue)
	}
	if !totalValue.IsPositive() {
		errs = append(errs, ErrZeroValue)
	}

	if missing := decl.MissingDocumentCategories(); len(missing) > 0 {
		for _, cat := range missing {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingDocuments, cat))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{apperrors.ErrValidation}, errs...)...)
}

// Submit runs the submission guard, computes duties and taxes for imports,
// generates the canonical XML with its SHA-256 hash, locks the declaration,
// and transitions it to SUBMITTED. The stored XML, hash, totals, item
// amounts, status, and audit entry are committed atomically.
func (s *declarationService) Submit(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	unlock := s.locks.Lock(declarationID)
	defer unlock()

	if !actor.Can(domain.CapSubmit) {
		return nil, fmt.Errorf("%w: submitting requires %s", apperrors.ErrForbidden, domain.CapSubmit)
	}

	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(decl.Status, domain.StatusSubmitted) {
		return nil, fmt.Errorf("%w: cannot submit from status %s", apperrors.ErrConflict, decl.Status)
	}

	items, err := s.declRepo.FindItemsByDeclarationID(ctx, declarationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	if err := s.validateForSubmission(decl, items); err != nil {
		return nil, err
	}

	totalValue := decimal.Zero
	for _, item := range items {
		totalValue = totalValue.Add(item.LineValue)
	}
	decl.TotalValue = totalValue

	// Import declarations carry duty/tax assessments; exports do not.
	if decl.DocumentType == domain.DocTypePIB {
		assessed, totals := dutytax.AssessDeclaration(decl, items)
		items = assessed
		decl.TotalBM = totals.TotalBM
		decl.TotalPPN = totals.TotalPPN
		decl.TotalPPh = totals.TotalPPh
		decl.TotalTax = totals.TotalTax
	} else {
		decl.TotalBM = decimal.Zero
		decl.TotalPPN = decimal.Zero
		decl.TotalPPh = decimal.Zero
		decl.TotalTax = decimal.Zero
	}

	payload, hash, err := ceisaxml.Generate(decl, items)
	if err != nil {
		return nil, fmt.Errorf("failed to generate declaration XML: %w", err)
	}

	now := time.Now().UTC()
	prev := decl.Status
	decl.GeneratedXML = payload
	decl.DocumentHash = hash
	decl.Status = domain.StatusSubmitted
	decl.LockedAt = &now
	decl.LockedBy = actor.UserID
	decl.LastUpdatedAt = now
	decl.LastUpdatedBy = actor.UserID

	audit := NewAuditEntry(entityDeclaration, declarationID, domain.ActionSubmit, actor)
	audit.DocumentHash = hash
	audit.FieldChanges = map[string]domain.FieldChange{
		"status": {Old: string(prev), New: string(domain.StatusSubmitted)},
	}

	if err := s.declRepo.SubmitDeclaration(ctx, *decl, items, audit); err != nil {
		logger.Error("Failed to persist submission", slog.String("error", err.Error()), slog.String("declaration_id", declarationID))
		return nil, fmt.Errorf("failed to submit declaration: %w", err)
	}

	s.metrics.CountTransition(string(domain.StatusSubmitted))
	logger.Info("Declaration submitted", slog.String("declaration_id", declarationID), slog.String("hash", hash))
	decl.Items = items
	return decl, nil
}

// transition performs one compare-and-set status move with its audit entry.
func (s *declarationService) transition(ctx context.Context, actor domain.Actor, declarationID string, next domain.DeclarationStatus, action domain.AuditAction, update portsrepo.StatusUpdate, note string) (*domain.Declaration, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(decl.Status, next) {
		return nil, fmt.Errorf("%w: transition %s -> %s is not allowed", apperrors.ErrConflict, decl.Status, next)
	}

	prev := decl.Status
	update.Next = next

	audit := NewAuditEntry(entityDeclaration, declarationID, action, actor)
	audit.FieldChanges = map[string]domain.FieldChange{
		"status": {Old: string(prev), New: string(next)},
	}
	audit.Note = note

	if err := s.declRepo.UpdateDeclarationStatus(ctx, declarationID, prev, update, audit); err != nil {
		return nil, fmt.Errorf("failed to transition declaration %s: %w", declarationID, err)
	}

	s.metrics.CountTransition(string(next))
	logger.Info("Declaration transitioned",
		slog.String("declaration_id", declarationID),
		slog.String("from", string(prev)),
		slog.String("to", string(next)))

	decl.Status = next
	return decl, nil
}

// MarkUnderReview moves a submitted declaration into review.
func (s *declarationService) MarkUnderReview(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error) {
	if !actor.Can(domain.CapApprove) {
		return nil, fmt.Errorf("%w: reviewing requires %s", apperrors.ErrForbidden, domain.CapApprove)
	}
	unlock := s.locks.Lock(declarationID)
	defer unlock()
	return s.transition(ctx, actor, declarationID, domain.StatusUnderReview, domain.ActionUpdate, portsrepo.StatusUpdate{}, "moved to review")
}

// Approve approves a submitted or reviewed declaration. The lock stays.
func (s *declarationService) Approve(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error) {
	if !actor.Can(domain.CapApprove) {
		return nil, fmt.Errorf("%w: approving requires %s", apperrors.ErrForbidden, domain.CapApprove)
	}
	unlock := s.locks.Lock(declarationID)
	defer unlock()
	return s.transition(ctx, actor, declarationID, domain.StatusApproved, domain.ActionApprove, portsrepo.StatusUpdate{}, "")
}

// Reject rejects a declaration and re-opens editing (implicit unlock) so the
// originator can correct and resubmit.
func (s *declarationService) Reject(ctx context.Context, actor domain.Actor, declarationID, reason string) (*domain.Declaration, error) {
	if !actor.Can(domain.CapApprove) {
		return nil, fmt.Errorf("%w: rejecting requires %s", apperrors.ErrForbidden, domain.CapApprove)
	}
	unlock := s.locks.Lock(declarationID)
	defer unlock()
	decl, err := s.transition(ctx, actor, declarationID, domain.StatusRejected, domain.ActionReject, portsrepo.StatusUpdate{ClearLock: true}, reason)
	if err != nil {
		return nil, err
	}
	decl.LockedAt = nil
	decl.LockedBy = ""
	return decl, nil
}

// Lock manually locks an editable declaration.
func (s *declarationService) Lock(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error) {
	if !actor.Can(domain.CapLock) {
		return nil, fmt.Errorf("%w: locking requires %s", apperrors.ErrForbidden, domain.CapLock)
	}
	unlock := s.locks.Lock(declarationID)
	defer unlock()

	now := time.Now().UTC()
	actorID := actor.UserID
	return s.transition(ctx, actor, declarationID, domain.StatusLocked, domain.ActionLock,
		portsrepo.StatusUpdate{LockedAt: &now, LockedBy: &actorID}, "")
}

// Unlock re-opens a locked or finalized declaration back to DRAFT.
func (s *declarationService) Unlock(ctx context.Context, actor domain.Actor, declarationID string) (*domain.Declaration, error) {
	if !actor.Can(domain.CapUnlock) {
		return nil, fmt.Errorf("%w: unlocking requires %s", apperrors.ErrForbidden, domain.CapUnlock)
	}
	unlock := s.locks.Lock(declarationID)
	defer unlock()

	decl, err := s.transition(ctx, actor, declarationID, domain.StatusDraft, domain.ActionUnlock,
		portsrepo.StatusUpdate{ClearLock: true}, "")
	if err != nil {
		return nil, err
	}
	decl.LockedAt = nil
	decl.LockedBy = ""
	return decl, nil
}

// ExportXML verifies the stored payload against its recorded hash and
// returns it. A mismatch is a fatal integrity violation.
func (s *declarationService) ExportXML(ctx context.Context, actor domain.Actor, declarationID string) (string, error) {
	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return "", err
	}
	if decl.GeneratedXML == "" {
		return "", fmt.Errorf("%w: declaration has not been submitted", apperrors.ErrConflict)
	}
	if err := ceisaxml.Verify(decl.GeneratedXML, decl.DocumentHash); err != nil {
		return "", err
	}

	audit := NewAuditEntry(entityDeclaration, declarationID, domain.ActionExport, actor)
	audit.DocumentHash = decl.DocumentHash
	if err := s.auditRepo.SaveEntry(ctx, audit); err != nil {
		// The export must not be observable without its audit entry.
		return "", fmt.Errorf("failed to record export: %w", err)
	}
	return decl.GeneratedXML, nil
}

// PrintSummary renders the printable summary PDF.
func (s *declarationService) PrintSummary(ctx context.Context, actor domain.Actor, declarationID string) ([]byte, error) {
	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	items, err := s.declRepo.FindItemsByDeclarationID(ctx, declarationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	pdf, err := printing.DeclarationPDF(decl, items)
	if err != nil {
		return nil, err
	}

	audit := NewAuditEntry(entityDeclaration, declarationID, domain.ActionPrint, actor)
	audit.DocumentHash = decl.DocumentHash
	if err := s.auditRepo.SaveEntry(ctx, audit); err != nil {
		return nil, fmt.Errorf("failed to record print: %w", err)
	}
	return pdf, nil
}
