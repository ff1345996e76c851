package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kurniadi/customs_declaration_app/internal/adapters/gateway"
	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
	portssvc "github.com/kurniadi/customs_declaration_app/internal/core/ports/services"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
	"github.com/kurniadi/customs_declaration_app/internal/middleware"
	"github.com/kurniadi/customs_declaration_app/internal/platform/metrics"
)

const (
	ingestBatchSize      = 100
	operationLogCapacity = 50
	noDocumentsMessage   = "Tidak ada dokumen baru dari portal."
	entityQueueItem      = "QueueItem"
)

// syncService is the EDI synchronization layer. Fetches run only on an
// explicit trigger; there is no background polling. The PEB and PIB legs of
// one run are fully independent. Outbound transmissions flow through a
// persistent queue with at most one item in flight per declaration.
type syncService struct {
	declRepo  portsrepo.DeclarationRepositoryFacade
	queueRepo portsrepo.QueueRepositoryFacade
	msgRepo   portsrepo.MessageRepositoryFacade
	auditRepo portsrepo.AuditRepositoryFacade
	client    gateway.Client
	metrics   *metrics.Metrics

	gatewayTimeout time.Duration
	maxAttempts    int

	// Diagnostics state. Purely observational; recording never fails a sync.
	diagMu       sync.Mutex
	diagEnabled  bool
	lastFetches  map[domain.DocumentType]gateway.Trace
	operationLog []string
}

// NewSyncService creates a new SyncService. The gateway timeout doubles as
// the queue claim stale window: an item attempted more recently than one
// timeout ago may still be in flight on another processor.
func NewSyncService(
	declRepo portsrepo.DeclarationRepositoryFacade,
	queueRepo portsrepo.QueueRepositoryFacade,
	msgRepo portsrepo.MessageRepositoryFacade,
	auditRepo portsrepo.AuditRepositoryFacade,
	client gateway.Client,
	m *metrics.Metrics,
	gatewayTimeout time.Duration,
	maxAttempts int,
) portssvc.SyncSvcFacade {
	return &syncService{
		declRepo:       declRepo,
		queueRepo:      queueRepo,
		msgRepo:        msgRepo,
		auditRepo:      auditRepo,
		client:         client,
		metrics:        m,
		gatewayTimeout: gatewayTimeout,
		maxAttempts:    maxAttempts,
		lastFetches:    make(map[domain.DocumentType]gateway.Trace),
	}
}

var _ portssvc.SyncSvcFacade = (*syncService)(nil)
var _ gateway.TraceRecorder = (*syncService)(nil)

// RecordTrace stores the most recent portal exchange per document type and
// appends a line to the rolling operation log.
func (s *syncService) RecordTrace(docType domain.DocumentType, trace gateway.Trace) {
	s.diagMu.Lock()
	defer s.diagMu.Unlock()
	if !s.diagEnabled {
		return
	}
	s.lastFetches[docType] = trace
	line := fmt.Sprintf("%s %s %s status=%d elapsed=%s",
		trace.At.Format(time.RFC3339), docType, trace.Endpoint, trace.HTTPStatus, trace.Elapsed)
	s.operationLog = append(s.operationLog, line)
	if len(s.operationLog) > operationLogCapacity {
		s.operationLog = s.operationLog[len(s.operationLog)-operationLogCapacity:]
	}
}

// Sync runs the requested legs. Each leg fetches matching documents from the
// portal and upserts them locally, keyed by nomor aju. An empty result is a
// normal outcome, not an error; a failed leg never blocks the other.
func (s *syncService) Sync(ctx context.Context, actor domain.Actor, req dto.SyncRequest) (*dto.SyncResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.Can(domain.CapSync) {
		return nil, fmt.Errorf("%w: synchronizing requires %s", apperrors.ErrForbidden, domain.CapSync)
	}
	if req.PEB == nil && req.PIB == nil {
		return nil, fmt.Errorf("%w: at least one document type must be requested", apperrors.ErrValidation)
	}

	start := time.Now()
	result := &dto.SyncResult{}
	result.PEB = s.runLeg(ctx, actor, domain.DocTypePEB, req.PEB)
	result.PIB = s.runLeg(ctx, actor, domain.DocTypePIB, req.PIB)
	result.Duration = time.Since(start)

	result.Success = true
	var parts []string
	for _, leg := range []struct {
		name string
		res  dto.SyncLegResult
	}{{"PEB", result.PEB}, {"PIB", result.PIB}} {
		if !leg.res.Requested {
			parts = append(parts, leg.name+": skipped")
			continue
		}
		if len(leg.res.Errors) > 0 {
			result.Success = false
		}
		parts = append(parts, fmt.Sprintf("%s: fetched %d, saved %d, errors %d",
			leg.name, leg.res.Fetched, leg.res.Saved, len(leg.res.Errors)))
	}
	result.Summary = strings.Join(parts, "; ")

	logger.Info("Sync completed",
		slog.Bool("success", result.Success),
		slog.String("summary", result.Summary),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// runLeg executes one document type's fetch-and-save leg. All failures are
// captured in the leg result; runLeg itself never aborts the run.
func (s *syncService) runLeg(ctx context.Context, actor domain.Actor, docType domain.DocumentType, req *dto.SyncLegRequest) dto.SyncLegResult {
	logger := middleware.GetLoggerFromCtx(ctx)
	leg := dto.SyncLegResult{}
	if req == nil {
		return leg
	}
	leg.Requested = true

	if err := ctx.Err(); err != nil {
		leg.Errors = append(leg.Errors, classifiedLegError(err))
		leg.Message = "Sinkronisasi dibatalkan sebelum dimulai."
		return leg
	}

	fetchStart := time.Now()
	docs, err := s.client.FetchDocuments(ctx, docType, gateway.FetchFilter{
		SubmissionNo: req.SubmissionNo,
		TaxpayerID:   req.TaxpayerID,
		OfficeCode:   req.OfficeCode,
	})
	s.metrics.ObserveGatewayLatency("fetch", time.Since(fetchStart))
	if err != nil {
		legErr := classifiedLegError(err)
		s.metrics.CountSyncError(string(docType), legErr.Action)
		logger.Warn("Sync leg fetch failed",
			slog.String("doc_type", string(docType)),
			slog.String("error", err.Error()),
			slog.String("action", legErr.Action))
		leg.Errors = append(leg.Errors, legErr)
		leg.Message = legErr.UserMessage
		return leg
	}

	leg.Fetched = len(docs)
	s.metrics.CountSyncDocuments(string(docType), "fetched", len(docs))
	if len(docs) == 0 {
		leg.Message = noDocumentsMessage
		return leg
	}

	for i := range docs {
		if err := s.saveFetched(ctx, actor, docType, &docs[i]); err != nil {
			legErr := classifiedLegError(err)
			s.metrics.CountSyncError(string(docType), legErr.Action)
			leg.Errors = append(leg.Errors, legErr)
			continue
		}
		leg.Saved++
	}
	s.metrics.CountSyncDocuments(string(docType), "saved", leg.Saved)
	leg.Message = fmt.Sprintf("%d dokumen diterima, %d disimpan.", leg.Fetched, leg.Saved)
	return leg
}

// saveFetched upserts one fetched document, keyed by nomor aju.
func (s *syncService) saveFetched(ctx context.Context, actor domain.Actor, docType domain.DocumentType, doc *gateway.Document) error {
	if doc.NomorAju == "" {
		return fmt.Errorf("%w: fetched document has no nomor aju", apperrors.ErrValidation)
	}

	status := domain.StatusGatewayAccepted
	if doc.Status == domain.MessageRejected {
		status = domain.StatusGatewayRejected
	}

	now := time.Now().UTC()
	decl := domain.Declaration{
		DeclarationID:  uuid.NewString(),
		DocumentType:   docType,
		NomorAju:       doc.NomorAju,
		RegistrationNo: doc.RegistrationNo,
		Status:         status,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	audit := NewAuditEntry(entityDeclaration, decl.DeclarationID, domain.ActionReceiveResponse, actor)
	audit.Note = fmt.Sprintf("fetched from portal, nomor aju %s, status %s", doc.NomorAju, doc.Status)

	created, err := s.declRepo.UpsertByNomorAju(ctx, decl, audit)
	if err != nil {
		return fmt.Errorf("failed to save fetched document %s: %w", doc.NomorAju, err)
	}
	if created {
		middleware.GetLoggerFromCtx(ctx).Info("New declaration created from portal fetch",
			slog.String("nomor_aju", doc.NomorAju), slog.String("doc_type", string(docType)))
	}
	return nil
}

func classifiedLegError(err error) dto.SyncLegError {
	cls := gateway.ClassifyErr(err)
	legErr := dto.SyncLegError{
		Message:     err.Error(),
		UserMessage: cls.UserMessage,
		Action:      string(cls.Action),
	}
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		legErr.Code = gwErr.Code
	}
	return legErr
}

// Enqueue schedules an APPROVED declaration for transmission. The store's
// one-PENDING-per-declaration rule makes a duplicate enqueue a conflict.
func (s *syncService) Enqueue(ctx context.Context, actor domain.Actor, declarationID string) (*domain.QueueItem, error) {
	if !actor.Can(domain.CapSync) {
		return nil, fmt.Errorf("%w: enqueueing requires %s", apperrors.ErrForbidden, domain.CapSync)
	}

	decl, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if decl.Status != domain.StatusApproved {
		return nil, fmt.Errorf("%w: only APPROVED declarations can be queued, status is %s", apperrors.ErrConflict, decl.Status)
	}
	if decl.GeneratedXML == "" {
		return nil, fmt.Errorf("%w: declaration has no generated document", apperrors.ErrConflict)
	}

	now := time.Now().UTC()
	item := domain.QueueItem{
		QueueItemID:   uuid.NewString(),
		DeclarationID: declarationID,
		DocumentType:  decl.DocumentType,
		Status:        domain.QueuePending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	audit := NewAuditEntry(entityQueueItem, item.QueueItemID, domain.ActionSendGateway, actor)
	audit.Note = fmt.Sprintf("declaration %s queued for transmission", declarationID)

	if err := s.queueRepo.Enqueue(ctx, item, audit); err != nil {
		return nil, fmt.Errorf("failed to enqueue declaration %s: %w", declarationID, err)
	}
	return &item, nil
}

// ProcessQueue drains eligible PENDING items one at a time: claim, transmit,
// record the outcome. The claim skips items attempted within the last
// gateway-timeout window, so a concurrent processor's in-flight item is
// never transmitted twice. A failed item with retry budget left goes back to
// PENDING; an exhausted one is finalized FAILED for manual intervention.
func (s *syncService) ProcessQueue(ctx context.Context, actor domain.Actor) (*dto.QueueRunResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.Can(domain.CapSync) {
		return nil, fmt.Errorf("%w: queue processing requires %s", apperrors.ErrForbidden, domain.CapSync)
	}

	start := time.Now()
	staleBefore := start.Add(-s.gatewayTimeout)
	result := &dto.QueueRunResult{}

	for {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("queue run interrupted: %w", err)
		}

		item, err := s.queueRepo.ClaimNextPending(ctx, staleBefore)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				break
			}
			result.Duration = time.Since(start)
			return result, fmt.Errorf("failed to claim queue item: %w", err)
		}
		result.Processed++

		if err := s.transmitItem(ctx, actor, item); err != nil {
			result.Failed++
			if item.Attempts >= s.maxAttempts {
				result.Exhausted++
				s.metrics.CountQueueOutcome("exhausted")
			} else {
				s.metrics.CountQueueOutcome("failed")
			}
			logger.Warn("Queue item transmission failed",
				slog.String("queue_item_id", item.QueueItemID),
				slog.Int("attempts", item.Attempts),
				slog.String("error", err.Error()))
			continue
		}

		result.Accepted++
		s.metrics.CountQueueOutcome("accepted")
	}

	result.Duration = time.Since(start)
	logger.Info("Queue run completed",
		slog.Int("processed", result.Processed),
		slog.Int("accepted", result.Accepted),
		slog.Int("failed", result.Failed),
		slog.Int("exhausted", result.Exhausted),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// transmitItem sends one claimed item and records its outcome. The returned
// error reports the transmission failure; the outcome itself is already
// persisted either way.
func (s *syncService) transmitItem(ctx context.Context, actor domain.Actor, item *domain.QueueItem) error {
	decl, err := s.declRepo.FindDeclarationByID(ctx, item.DeclarationID)
	if err != nil {
		s.failItem(ctx, actor, item, fmt.Sprintf("declaration lookup failed: %v", err))
		return err
	}
	if decl.GeneratedXML == "" {
		err := fmt.Errorf("%w: declaration %s has no generated document", apperrors.ErrConflict, decl.DeclarationID)
		s.failItem(ctx, actor, item, err.Error())
		return err
	}

	transmitStart := time.Now()
	res, err := s.client.Transmit(ctx, item.DocumentType, decl.GeneratedXML)
	s.metrics.ObserveGatewayLatency("transmit", time.Since(transmitStart))
	if err != nil {
		cls := gateway.ClassifyErr(err)
		s.failItem(ctx, actor, item, fmt.Sprintf("%s (%s)", err.Error(), cls.Action))
		return err
	}
	if !res.Accepted {
		msgs := make([]string, 0, len(res.Errors))
		for _, re := range res.Errors {
			msgs = append(msgs, fmt.Sprintf("%s: %s", re.Code, re.Message))
		}
		err := fmt.Errorf("portal rejected transmission: %s", strings.Join(msgs, "; "))
		s.failItem(ctx, actor, item, err.Error())
		return err
	}

	audit := NewAuditEntry(entityQueueItem, item.QueueItemID, domain.ActionSendGateway, actor)
	audit.Note = fmt.Sprintf("declaration %s accepted by portal, nomor aju %s", item.DeclarationID, res.NomorAju)
	if err := s.queueRepo.MarkOutcome(ctx, item.QueueItemID, domain.QueueAccepted, "", audit); err != nil {
		return fmt.Errorf("failed to finalize queue item %s: %w", item.QueueItemID, err)
	}

	// The portal assigned a submission number: move the declaration along.
	nomorAju := res.NomorAju
	statusAudit := NewAuditEntry(entityDeclaration, decl.DeclarationID, domain.ActionSendGateway, actor)
	statusAudit.FieldChanges = map[string]domain.FieldChange{
		"status": {Old: string(decl.Status), New: string(domain.StatusSentToGateway)},
	}
	update := portsrepo.StatusUpdate{Next: domain.StatusSentToGateway}
	if nomorAju != "" {
		update.NomorAju = &nomorAju
		statusAudit.FieldChanges["nomorAju"] = domain.FieldChange{Old: decl.NomorAju, New: nomorAju}
	}
	if err := s.declRepo.UpdateDeclarationStatus(ctx, decl.DeclarationID, decl.Status, update, statusAudit); err != nil {
		return fmt.Errorf("transmission accepted but status update failed: %w", err)
	}
	s.metrics.CountTransition(string(domain.StatusSentToGateway))
	return nil
}

// failItem records a failed attempt. Budget remaining: back to PENDING for a
// later run. Budget spent: finalized FAILED.
func (s *syncService) failItem(ctx context.Context, actor domain.Actor, item *domain.QueueItem, lastError string) {
	logger := middleware.GetLoggerFromCtx(ctx)

	next := domain.QueuePending
	note := fmt.Sprintf("attempt %d/%d failed, will retry", item.Attempts, s.maxAttempts)
	if item.Attempts >= s.maxAttempts {
		next = domain.QueueFailed
		note = fmt.Sprintf("attempt %d/%d failed, retry budget exhausted", item.Attempts, s.maxAttempts)
	}

	audit := NewAuditEntry(entityQueueItem, item.QueueItemID, domain.ActionSendGateway, actor)
	audit.Note = note

	if err := s.queueRepo.MarkOutcome(ctx, item.QueueItemID, next, lastError, audit); err != nil {
		logger.Error("Failed to record queue item outcome",
			slog.String("queue_item_id", item.QueueItemID),
			slog.String("error", err.Error()))
	}
}

// RetryFailed returns a finalized FAILED item to the queue. This is the
// manual intervention path, so it resets nothing silently: the attempt
// counter keeps its history and the caller needs the sync capability.
func (s *syncService) RetryFailed(ctx context.Context, actor domain.Actor, queueItemID string) (*domain.QueueItem, error) {
	if !actor.Can(domain.CapSync) {
		return nil, fmt.Errorf("%w: retrying requires %s", apperrors.ErrForbidden, domain.CapSync)
	}

	item, err := s.queueRepo.FindByID(ctx, queueItemID)
	if err != nil {
		return nil, err
	}
	if item.Status != domain.QueueFailed {
		return nil, fmt.Errorf("%w: only FAILED items can be retried, status is %s", apperrors.ErrConflict, item.Status)
	}

	audit := NewAuditEntry(entityQueueItem, queueItemID, domain.ActionSendGateway, actor)
	audit.Note = fmt.Sprintf("manually requeued after %d attempts", item.Attempts)

	if err := s.queueRepo.RequeueFailed(ctx, queueItemID, audit); err != nil {
		return nil, fmt.Errorf("failed to requeue item %s: %w", queueItemID, err)
	}
	item.Status = domain.QueuePending
	return item, nil
}

// IngestIncoming applies received gateway responses to their declarations.
// Each message is applied and archived in one transaction; a message whose
// submission number matches no declaration is archived as an orphan.
func (s *syncService) IngestIncoming(ctx context.Context, actor domain.Actor) (*dto.IngestResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.Can(domain.CapSync) {
		return nil, fmt.Errorf("%w: ingesting requires %s", apperrors.ErrForbidden, domain.CapSync)
	}

	msgs, err := s.msgRepo.ListIncoming(ctx, ingestBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming messages: %w", err)
	}

	result := &dto.IngestResult{}
	for i := range msgs {
		msg := msgs[i]

		decl, err := s.declRepo.FindDeclarationByNomorAju(ctx, msg.NomorAju)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				if err := s.msgRepo.ArchiveOrphan(ctx, msg); err != nil {
					return result, fmt.Errorf("failed to archive orphan message %s: %w", msg.MessageID, err)
				}
				result.Orphaned++
				logger.Warn("Archived orphan gateway message",
					slog.String("message_id", msg.MessageID),
					slog.String("nomor_aju", msg.NomorAju))
				continue
			}
			return result, fmt.Errorf("failed to resolve message %s: %w", msg.MessageID, err)
		}

		next := domain.StatusGatewayAccepted
		if msg.Status == domain.MessageRejected {
			next = domain.StatusGatewayRejected
		}
		if !domain.CanTransition(decl.Status, next) {
			// Stale or out-of-order response; keep it, but do not touch the
			// declaration.
			if err := s.msgRepo.ArchiveOrphan(ctx, msg); err != nil {
				return result, fmt.Errorf("failed to archive stale message %s: %w", msg.MessageID, err)
			}
			result.Orphaned++
			logger.Warn("Gateway message not applicable to declaration status",
				slog.String("message_id", msg.MessageID),
				slog.String("declaration_status", string(decl.Status)),
				slog.String("message_status", string(msg.Status)))
			continue
		}

		audit := NewAuditEntry(entityDeclaration, decl.DeclarationID, domain.ActionReceiveResponse, actor)
		audit.FieldChanges = map[string]domain.FieldChange{
			"status": {Old: string(decl.Status), New: string(next)},
		}
		if len(msg.Errors) > 0 {
			notes := make([]string, 0, len(msg.Errors))
			for _, re := range msg.Errors {
				notes = append(notes, fmt.Sprintf("%s: %s", re.Code, re.Message))
			}
			audit.Note = strings.Join(notes, "; ")
		}

		update := portsrepo.StatusUpdate{Next: next}
		if err := s.msgRepo.ApplyAndArchive(ctx, msg, decl.DeclarationID, decl.Status, update, audit); err != nil {
			return result, fmt.Errorf("failed to apply message %s: %w", msg.MessageID, err)
		}
		s.metrics.CountTransition(string(next))
		result.Applied++
	}

	logger.Info("Incoming messages ingested",
		slog.Int("applied", result.Applied),
		slog.Int("orphaned", result.Orphaned))
	return result, nil
}

// ListQueue retrieves queue items by status.
func (s *syncService) ListQueue(ctx context.Context, actor domain.Actor, status domain.QueueStatus, limit int) ([]domain.QueueItem, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queueRepo.ListByStatus(ctx, status, limit)
}

// ListArchive pages through archived gateway messages, newest first.
func (s *syncService) ListArchive(ctx context.Context, actor domain.Actor, limit int, nextToken *string) (*dto.ListArchiveResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, next, err := s.msgRepo.ListArchive(ctx, limit, nextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list message archive: %w", err)
	}

	resp := &dto.ListArchiveResponse{NextToken: next}
	for i := range entries {
		resp.Entries = append(resp.Entries, dto.ToArchiveEntryResponse(&entries[i]))
	}
	return resp, nil
}

// Diagnostics returns the captured traces and operation log.
func (s *syncService) Diagnostics(ctx context.Context, actor domain.Actor) (*dto.DiagnosticsReport, error) {
	if !actor.Can(domain.CapDiagnose) {
		return nil, fmt.Errorf("%w: diagnostics requires %s", apperrors.ErrForbidden, domain.CapDiagnose)
	}

	s.diagMu.Lock()
	defer s.diagMu.Unlock()

	report := &dto.DiagnosticsReport{Enabled: s.diagEnabled}
	for _, docType := range []domain.DocumentType{domain.DocTypePEB, domain.DocTypePIB} {
		if trace, ok := s.lastFetches[docType]; ok {
			report.LastFetches = append(report.LastFetches, dto.FetchDiagnostic{
				DocumentType: string(docType),
				Trace:        trace,
			})
		}
	}
	report.OperationLog = append(report.OperationLog, s.operationLog...)
	return report, nil
}

// SetDiagnostics toggles trace capture. Turning it off clears captured data.
func (s *syncService) SetDiagnostics(ctx context.Context, actor domain.Actor, enabled bool) error {
	if !actor.Can(domain.CapDiagnose) {
		return fmt.Errorf("%w: diagnostics requires %s", apperrors.ErrForbidden, domain.CapDiagnose)
	}

	s.diagMu.Lock()
	defer s.diagMu.Unlock()
	s.diagEnabled = enabled
	if !enabled {
		s.lastFetches = make(map[domain.DocumentType]gateway.Trace)
		s.operationLog = nil
	}
	return nil
}
