package services_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kurniadi/customs_declaration_app/internal/adapters/gateway"
	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
	portssvc "github.com/kurniadi/customs_declaration_app/internal/core/ports/services"
	"github.com/kurniadi/customs_declaration_app/internal/core/services"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
)

const testMaxAttempts = 3

type SyncServiceTestSuite struct {
	suite.Suite
	mockDeclRepo  *MockDeclarationRepository
	mockQueueRepo *MockQueueRepository
	mockMsgRepo   *MockMessageRepository
	mockAuditRepo *MockAuditRepository
	mockClient    *MockGatewayClient
	service       portssvc.SyncSvcFacade
}

func (suite *SyncServiceTestSuite) SetupTest() {
	suite.mockDeclRepo = new(MockDeclarationRepository)
	suite.mockQueueRepo = new(MockQueueRepository)
	suite.mockMsgRepo = new(MockMessageRepository)
	suite.mockAuditRepo = new(MockAuditRepository)
	suite.mockClient = new(MockGatewayClient)
	suite.service = services.NewSyncService(
		suite.mockDeclRepo,
		suite.mockQueueRepo,
		suite.mockMsgRepo,
		suite.mockAuditRepo,
		suite.mockClient,
		nil,
		30*time.Second,
		testMaxAttempts,
	)
}

func legRequest() *dto.SyncLegRequest {
	return &dto.SyncLegRequest{TaxpayerID: "011234567891000", OfficeCode: "040300"}
}

func (suite *SyncServiceTestSuite) TestSync_RequiresCapability() {
	actor := actorWithRole(domain.RoleOperator)
	actor.Capabilities = nil

	_, err := suite.service.Sync(context.Background(), actor, dto.SyncRequest{PEB: legRequest()})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *SyncServiceTestSuite) TestSync_NoLegsRequested() {
	actor := actorWithRole(domain.RoleOperator)

	_, err := suite.service.Sync(context.Background(), actor, dto.SyncRequest{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SyncServiceTestSuite) TestSync_EmptyResultIsNotAnError() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)

	suite.mockClient.On("FetchDocuments", ctx, domain.DocTypePEB, mock.Anything).
		Return([]gateway.Document{}, nil).Once()

	result, err := suite.service.Sync(ctx, actor, dto.SyncRequest{PEB: legRequest()})

	suite.Require().NoError(err)
	suite.True(result.Success)
	suite.True(result.PEB.Requested)
	suite.Zero(result.PEB.Fetched)
	suite.NotEmpty(result.PEB.Message)
	suite.False(result.PIB.Requested)
	suite.mockClient.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestSync_LegsAreIndependent() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)

	// PEB leg fails at the portal; the PIB leg still runs and saves.
	suite.mockClient.On("FetchDocuments", ctx, domain.DocTypePEB, mock.Anything).
		Return(nil, &gateway.Error{HTTPStatus: http.StatusServiceUnavailable, Code: "CE-5001", Message: "maintenance"}).Once()
	suite.mockClient.On("FetchDocuments", ctx, domain.DocTypePIB, mock.Anything).
		Return([]gateway.Document{{
			NomorAju:       "000040-012345-20260815-000001",
			RegistrationNo: "R-001",
			Status:         domain.MessageAccepted,
		}}, nil).Once()
	suite.mockDeclRepo.On("UpsertByNomorAju", ctx, mock.MatchedBy(func(d domain.Declaration) bool {
		return d.NomorAju == "000040-012345-20260815-000001" && d.Status == domain.StatusGatewayAccepted
	}), mock.Anything).Return(true, nil).Once()

	result, err := suite.service.Sync(ctx, actor, dto.SyncRequest{PEB: legRequest(), PIB: legRequest()})

	suite.Require().NoError(err)
	suite.False(result.Success)
	suite.Len(result.PEB.Errors, 1)
	suite.Equal("CE-5001", result.PEB.Errors[0].Code)
	suite.Equal(string(gateway.ActionRetryLater), result.PEB.Errors[0].Action)
	suite.Equal(1, result.PIB.Saved)
	suite.Empty(result.PIB.Errors)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestEnqueue_OnlyApproved() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()

	_, err := suite.service.Enqueue(ctx, actor, decl.DeclarationID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockQueueRepo.AssertNotCalled(suite.T(), "Enqueue", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestEnqueue_DuplicatePendingConflicts() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusApproved
	decl.GeneratedXML = "<PemberitahuanPabean/>"

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockQueueRepo.On("Enqueue", ctx, mock.Anything, mock.Anything).Return(apperrors.ErrConflict).Once()

	_, err := suite.service.Enqueue(ctx, actor, decl.DeclarationID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockQueueRepo.AssertExpectations(suite.T())
}

func claimedItem(declarationID string, attempts int) *domain.QueueItem {
	now := time.Now().UTC()
	return &domain.QueueItem{
		QueueItemID:   uuid.NewString(),
		DeclarationID: declarationID,
		DocumentType:  domain.DocTypePIB,
		Status:        domain.QueuePending,
		Attempts:      attempts,
		LastAttemptAt: &now,
	}
}

func (suite *SyncServiceTestSuite) TestProcessQueue_AcceptedTransmission() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusApproved
	decl.GeneratedXML = "<PemberitahuanPabean/>"
	item := claimedItem(decl.DeclarationID, 1)

	suite.mockQueueRepo.On("ClaimNextPending", ctx, mock.Anything).Return(item, nil).Once()
	suite.mockQueueRepo.On("ClaimNextPending", ctx, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockClient.On("Transmit", ctx, domain.DocTypePIB, decl.GeneratedXML).
		Return(&gateway.TransmitResult{Accepted: true, NomorAju: "000040-012345-20260815-000002"}, nil).Once()
	suite.mockQueueRepo.On("MarkOutcome", ctx, item.QueueItemID, domain.QueueAccepted, "", mock.Anything).Return(nil).Once()
	suite.mockDeclRepo.On("UpdateDeclarationStatus", ctx, decl.DeclarationID, domain.StatusApproved,
		mock.MatchedBy(func(u portsrepo.StatusUpdate) bool {
			return u.Next == domain.StatusSentToGateway && u.NomorAju != nil && *u.NomorAju == "000040-012345-20260815-000002"
		}), mock.Anything).Return(nil).Once()

	result, err := suite.service.ProcessQueue(ctx, actor)

	suite.Require().NoError(err)
	suite.Equal(1, result.Processed)
	suite.Equal(1, result.Accepted)
	suite.Zero(result.Failed)
	suite.mockQueueRepo.AssertExpectations(suite.T())
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestProcessQueue_FailureWithBudgetGoesBackToPending() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusApproved
	decl.GeneratedXML = "<PemberitahuanPabean/>"
	item := claimedItem(decl.DeclarationID, 1)

	suite.mockQueueRepo.On("ClaimNextPending", ctx, mock.Anything).Return(item, nil).Once()
	suite.mockQueueRepo.On("ClaimNextPending", ctx, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockClient.On("Transmit", ctx, domain.DocTypePIB, decl.GeneratedXML).
		Return(nil, &gateway.Error{HTTPStatus: http.StatusTooManyRequests, Code: "CE-4290", Message: "rate limited"}).Once()
	suite.mockQueueRepo.On("MarkOutcome", ctx, item.QueueItemID, domain.QueuePending,
		mock.MatchedBy(func(lastError string) bool { return lastError != "" }), mock.Anything).Return(nil).Once()

	result, err := suite.service.ProcessQueue(ctx, actor)

	suite.Require().NoError(err)
	suite.Equal(1, result.Processed)
	suite.Equal(1, result.Failed)
	suite.Zero(result.Exhausted)
	suite.mockQueueRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestProcessQueue_ExhaustedBudgetFinalizesFailed() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusApproved
	decl.GeneratedXML = "<PemberitahuanPabean/>"
	item := claimedItem(decl.DeclarationID, testMaxAttempts)

	suite.mockQueueRepo.On("ClaimNextPending", ctx, mock.Anything).Return(item, nil).Once()
	suite.mockQueueRepo.On("ClaimNextPending", ctx, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockClient.On("Transmit", ctx, domain.DocTypePIB, decl.GeneratedXML).
		Return(nil, &gateway.Error{HTTPStatus: http.StatusInternalServerError, Code: "CE-5099", Message: "portal error"}).Once()
	suite.mockQueueRepo.On("MarkOutcome", ctx, item.QueueItemID, domain.QueueFailed,
		mock.Anything, mock.Anything).Return(nil).Once()

	result, err := suite.service.ProcessQueue(ctx, actor)

	suite.Require().NoError(err)
	suite.Equal(1, result.Failed)
	suite.Equal(1, result.Exhausted)
	suite.mockQueueRepo.AssertExpectations(suite.T())
}

// singleClaimQueue hands each pending item to exactly one caller, the
// contract the SQL claim provides with FOR UPDATE SKIP LOCKED plus the
// stale-attempt window.
type singleClaimQueue struct {
	MockQueueRepository
	mu      sync.Mutex
	pending []*domain.QueueItem
}

func (q *singleClaimQueue) ClaimNextPending(ctx context.Context, staleBefore time.Time) (*domain.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, apperrors.ErrNotFound
	}
	item := q.pending[0]
	q.pending = q.pending[1:]
	item.Attempts++
	now := time.Now().UTC()
	item.LastAttemptAt = &now
	return item, nil
}

func (q *singleClaimQueue) MarkOutcome(ctx context.Context, queueItemID string, status domain.QueueStatus, lastError string, audit domain.AuditLogEntry) error {
	return nil
}

func (suite *SyncServiceTestSuite) TestProcessQueue_ConcurrentRunsTransmitOnce() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusApproved
	decl.GeneratedXML = "<PemberitahuanPabean/>"

	queue := &singleClaimQueue{pending: []*domain.QueueItem{claimedItem(decl.DeclarationID, 0)}}
	svc := services.NewSyncService(
		suite.mockDeclRepo,
		queue,
		suite.mockMsgRepo,
		suite.mockAuditRepo,
		suite.mockClient,
		nil,
		30*time.Second,
		testMaxAttempts,
	)

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockClient.On("Transmit", ctx, domain.DocTypePIB, decl.GeneratedXML).
		Return(&gateway.TransmitResult{Accepted: true, NomorAju: "000040-012345-20260815-000003"}, nil).Once()
	suite.mockDeclRepo.On("UpdateDeclarationStatus", ctx, decl.DeclarationID, domain.StatusApproved,
		mock.Anything, mock.Anything).Return(nil).Once()

	var wg sync.WaitGroup
	results := make([]*dto.QueueRunResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.ProcessQueue(ctx, actor)
			suite.NoError(err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	suite.Equal(1, results[0].Processed+results[1].Processed)
	suite.Equal(1, results[0].Accepted+results[1].Accepted)
	suite.mockClient.AssertNumberOfCalls(suite.T(), "Transmit", 1)
}

func (suite *SyncServiceTestSuite) TestProcessQueue_CancelledBeforeClaim() {
	actor := actorWithRole(domain.RoleOperator)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.service.ProcessQueue(ctx, actor)

	suite.Require().Error(err)
	suite.ErrorIs(err, context.Canceled)
	suite.mockQueueRepo.AssertNotCalled(suite.T(), "ClaimNextPending", mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestRetryFailed_OnlyFailedItems() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	item := claimedItem(uuid.NewString(), 1)
	item.Status = domain.QueuePending

	suite.mockQueueRepo.On("FindByID", ctx, item.QueueItemID).Return(item, nil).Once()

	_, err := suite.service.RetryFailed(ctx, actor, item.QueueItemID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockQueueRepo.AssertNotCalled(suite.T(), "RequeueFailed", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestIngestIncoming_AppliesAndArchives() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusSentToGateway
	decl.NomorAju = "000040-012345-20260815-000003"

	msg := domain.IncomingMessage{
		MessageID:    uuid.NewString(),
		NomorAju:     decl.NomorAju,
		DocumentType: domain.DocTypePIB,
		Status:       domain.MessageRejected,
		Errors:       []domain.ResponseError{{Code: "CE-4003", Message: "data tidak lengkap"}},
		ReceivedAt:   time.Now().UTC(),
	}

	suite.mockMsgRepo.On("ListIncoming", ctx, mock.Anything).Return([]domain.IncomingMessage{msg}, nil).Once()
	suite.mockDeclRepo.On("FindDeclarationByNomorAju", ctx, decl.NomorAju).Return(decl, nil).Once()
	suite.mockMsgRepo.On("ApplyAndArchive", ctx, msg, decl.DeclarationID, domain.StatusSentToGateway,
		mock.MatchedBy(func(u portsrepo.StatusUpdate) bool { return u.Next == domain.StatusGatewayRejected }),
		mock.MatchedBy(func(a domain.AuditLogEntry) bool {
			return a.Action == domain.ActionReceiveResponse && a.FieldChanges["status"].New == string(domain.StatusGatewayRejected)
		})).Return(nil).Once()

	result, err := suite.service.IngestIncoming(ctx, actor)

	suite.Require().NoError(err)
	suite.Equal(1, result.Applied)
	suite.Zero(result.Orphaned)
	suite.mockMsgRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestIngestIncoming_OrphanIsArchived() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)

	msg := domain.IncomingMessage{
		MessageID:    uuid.NewString(),
		NomorAju:     "000040-999999-20260815-000099",
		DocumentType: domain.DocTypePEB,
		Status:       domain.MessageAccepted,
		ReceivedAt:   time.Now().UTC(),
	}

	suite.mockMsgRepo.On("ListIncoming", ctx, mock.Anything).Return([]domain.IncomingMessage{msg}, nil).Once()
	suite.mockDeclRepo.On("FindDeclarationByNomorAju", ctx, msg.NomorAju).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockMsgRepo.On("ArchiveOrphan", ctx, msg).Return(nil).Once()

	result, err := suite.service.IngestIncoming(ctx, actor)

	suite.Require().NoError(err)
	suite.Zero(result.Applied)
	suite.Equal(1, result.Orphaned)
	suite.mockMsgRepo.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestDiagnostics_RequiresCapability() {
	actor := actorWithRole(domain.RoleSupervisor) // no diagnose capability

	_, err := suite.service.Diagnostics(context.Background(), actor)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *SyncServiceTestSuite) TestDiagnostics_CapturesTracesWhenEnabled() {
	ctx := context.Background()
	admin := actorWithRole(domain.RoleAdmin)

	suite.Require().NoError(suite.service.SetDiagnostics(ctx, admin, true))

	recorder := services.SyncTraceRecorder(&portssvc.ServiceContainer{Sync: suite.service})
	suite.Require().NotNil(recorder)
	recorder.RecordTrace(domain.DocTypePEB, gateway.Trace{
		Endpoint:   "/api/v1/documents/PEB",
		HTTPStatus: http.StatusOK,
		At:         time.Now().UTC(),
	})

	report, err := suite.service.Diagnostics(ctx, admin)
	suite.Require().NoError(err)
	suite.True(report.Enabled)
	suite.Len(report.LastFetches, 1)
	suite.Len(report.OperationLog, 1)

	// Turning diagnostics off clears captured data.
	suite.Require().NoError(suite.service.SetDiagnostics(ctx, admin, false))
	report, err = suite.service.Diagnostics(ctx, admin)
	suite.Require().NoError(err)
	suite.False(report.Enabled)
	suite.Empty(report.LastFetches)
	suite.Empty(report.OperationLog)
}

func (suite *SyncServiceTestSuite) TestListArchive_DefaultsLimit() {
	entries := []domain.ArchiveEntry{
		{
			IncomingMessage: domain.IncomingMessage{
				MessageID:    "msg-1",
				NomorAju:     "000040-012345-20250101-000001",
				DocumentType: domain.DocTypePEB,
				Status:       domain.MessageAccepted,
			},
			ArchivedAt: time.Now(),
		},
	}
	suite.mockMsgRepo.On("ListArchive", mock.Anything, 50, (*string)(nil)).
		Return(entries, nil, nil).Once()

	resp, err := suite.service.ListArchive(context.Background(), actorWithRole(domain.RoleOperator), 0, nil)
	suite.Require().NoError(err)
	suite.Len(resp.Entries, 1)
	suite.Equal("msg-1", resp.Entries[0].MessageID)
	suite.Equal("ACCEPTED", resp.Entries[0].Status)
	suite.Nil(resp.NextToken)
	suite.mockMsgRepo.AssertExpectations(suite.T())
}

func TestSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}
