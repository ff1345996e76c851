package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kurniadi/customs_declaration_app/internal/adapters/gateway"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
)

// --- Mock DeclarationRepository ---
type MockDeclarationRepository struct {
	mock.Mock
}

func (m *MockDeclarationRepository) SaveDeclaration(ctx context.Context, decl domain.Declaration, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, decl, audit)
	return args.Error(0)
}

func (m *MockDeclarationRepository) FindDeclarationByID(ctx context.Context, declarationID string) (*domain.Declaration, error) {
	args := m.Called(ctx, declarationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Declaration), args.Error(1)
}

func (m *MockDeclarationRepository) FindDeclarationByNomorAju(ctx context.Context, nomorAju string) (*domain.Declaration, error) {
	args := m.Called(ctx, nomorAju)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Declaration), args.Error(1)
}

func (m *MockDeclarationRepository) ListDeclarations(ctx context.Context, filter portsrepo.ListDeclarationsFilter) ([]domain.Declaration, *string, error) {
	args := m.Called(ctx, filter)
	var decls []domain.Declaration
	if args.Get(0) != nil {
		decls = args.Get(0).([]domain.Declaration)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return decls, token, args.Error(2)
}

func (m *MockDeclarationRepository) UpdateDeclaration(ctx context.Context, decl domain.Declaration, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, decl, audit)
	return args.Error(0)
}

func (m *MockDeclarationRepository) UpdateDeclarationStatus(ctx context.Context, declarationID string, prev domain.DeclarationStatus, update portsrepo.StatusUpdate, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, declarationID, prev, update, audit)
	return args.Error(0)
}

func (m *MockDeclarationRepository) SubmitDeclaration(ctx context.Context, decl domain.Declaration, items []domain.DeclarationItem, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, decl, items, audit)
	return args.Error(0)
}

func (m *MockDeclarationRepository) FindItemsByDeclarationID(ctx context.Context, declarationID string) ([]domain.DeclarationItem, error) {
	args := m.Called(ctx, declarationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DeclarationItem), args.Error(1)
}

func (m *MockDeclarationRepository) SaveItem(ctx context.Context, item domain.DeclarationItem, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, item, audit)
	return args.Error(0)
}

func (m *MockDeclarationRepository) UpdateItem(ctx context.Context, item domain.DeclarationItem, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, item, audit)
	return args.Error(0)
}

func (m *MockDeclarationRepository) DeleteItem(ctx context.Context, declarationID, itemID string, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, declarationID, itemID, audit)
	return args.Error(0)
}

func (m *MockDeclarationRepository) UpsertByNomorAju(ctx context.Context, decl domain.Declaration, audit domain.AuditLogEntry) (bool, error) {
	args := m.Called(ctx, decl, audit)
	return args.Bool(0), args.Error(1)
}

// --- Mock QueueRepository ---
type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) Enqueue(ctx context.Context, item domain.QueueItem, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, item, audit)
	return args.Error(0)
}

func (m *MockQueueRepository) ClaimNextPending(ctx context.Context, staleBefore time.Time) (*domain.QueueItem, error) {
	args := m.Called(ctx, staleBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueItem), args.Error(1)
}

func (m *MockQueueRepository) MarkOutcome(ctx context.Context, queueItemID string, status domain.QueueStatus, lastError string, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, queueItemID, status, lastError, audit)
	return args.Error(0)
}

func (m *MockQueueRepository) RequeueFailed(ctx context.Context, queueItemID string, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, queueItemID, audit)
	return args.Error(0)
}

func (m *MockQueueRepository) FindByID(ctx context.Context, queueItemID string) (*domain.QueueItem, error) {
	args := m.Called(ctx, queueItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueItem), args.Error(1)
}

func (m *MockQueueRepository) FindPendingByDeclaration(ctx context.Context, declarationID string) (*domain.QueueItem, error) {
	args := m.Called(ctx, declarationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueItem), args.Error(1)
}

func (m *MockQueueRepository) ListByStatus(ctx context.Context, status domain.QueueStatus, limit int) ([]domain.QueueItem, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QueueItem), args.Error(1)
}

// --- Mock MessageRepository ---
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) SaveIncoming(ctx context.Context, msg domain.IncomingMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) ListIncoming(ctx context.Context, limit int) ([]domain.IncomingMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IncomingMessage), args.Error(1)
}

func (m *MockMessageRepository) ApplyAndArchive(ctx context.Context, msg domain.IncomingMessage, declarationID string, prev domain.DeclarationStatus, update portsrepo.StatusUpdate, audit domain.AuditLogEntry) error {
	args := m.Called(ctx, msg, declarationID, prev, update, audit)
	return args.Error(0)
}

func (m *MockMessageRepository) ArchiveOrphan(ctx context.Context, msg domain.IncomingMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) ListArchive(ctx context.Context, limit int, nextToken *string) ([]domain.ArchiveEntry, *string, error) {
	args := m.Called(ctx, limit, nextToken)
	var entries []domain.ArchiveEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.ArchiveEntry)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return entries, token, args.Error(2)
}

// --- Mock AuditRepository ---
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) SaveEntry(ctx context.Context, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	args := m.Called(ctx, entityType, entityID, limit, nextToken)
	var entries []domain.AuditLogEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.AuditLogEntry)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return entries, token, args.Error(2)
}

func (m *MockAuditRepository) ListByActor(ctx context.Context, actorID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	args := m.Called(ctx, actorID, limit, nextToken)
	var entries []domain.AuditLogEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.AuditLogEntry)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return entries, token, args.Error(2)
}

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock gateway Client ---
type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) FetchDocuments(ctx context.Context, docType domain.DocumentType, filter gateway.FetchFilter) ([]gateway.Document, error) {
	args := m.Called(ctx, docType, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.Document), args.Error(1)
}

func (m *MockGatewayClient) Transmit(ctx context.Context, docType domain.DocumentType, payload string) (*gateway.TransmitResult, error) {
	args := m.Called(ctx, docType, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.TransmitResult), args.Error(1)
}

func (m *MockGatewayClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
