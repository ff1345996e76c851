package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portssvc "github.com/kurniadi/customs_declaration_app/internal/core/ports/services"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
	"github.com/kurniadi/customs_declaration_app/internal/handlers"
	"github.com/kurniadi/customs_declaration_app/internal/middleware"
	"github.com/kurniadi/customs_declaration_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock AuditService ---
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockAuditService) ListByEntity(ctx context.Context, actor domain.Actor, entityType, entityID string, limit int, nextToken *string) (*dto.ListAuditResponse, error) {
	args := m.Called(ctx, actor, entityType, entityID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListAuditResponse), args.Error(1)
}
func (m *MockAuditService) ListByActor(ctx context.Context, actor domain.Actor, actorID string, limit int, nextToken *string) (*dto.ListAuditResponse, error) {
	args := m.Called(ctx, actor, actorID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListAuditResponse), args.Error(1)
}

var _ portssvc.AuditSvcFacade = (*MockAuditService)(nil)

const logoutTestSecret = "test-secret-key-that-is-long-enough"

func logoutTestRouter(audit *MockAuditService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: logoutTestSecret, JWTExpiryDuration: time.Hour, JWTIssuer: "cda-test"}
	h := handlers.NewAuthHandler(nil, audit, cfg)
	router := gin.New()
	router.POST("/api/v1/auth/logout", middleware.AuthMiddleware(cfg.JWTSecret), h.Logout)
	return router
}

func logoutTestToken(t *testing.T, userID string) string {
	claims := middleware.ActorClaims{
		Name: "Test User",
		Role: string(domain.RoleOperator),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "cda-test",
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(logoutTestSecret))
	require.NoError(t, err)
	return signed
}

func TestLogout_RecordsAuditEntry(t *testing.T) {
	mockAudit := new(MockAuditService)
	router := logoutTestRouter(mockAudit)
	userID := uuid.NewString()

	mockAudit.On("Record", mock.Anything, mock.MatchedBy(func(e domain.AuditLogEntry) bool {
		return e.Action == domain.ActionLogout && e.EntityType == "User" && e.EntityID == userID && e.ActorID == userID
	})).Return(nil).Once()

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+logoutTestToken(t, userID))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockAudit.AssertExpectations(t)
}

func TestLogout_MissingToken(t *testing.T) {
	mockAudit := new(MockAuditService)
	router := logoutTestRouter(mockAudit)

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockAudit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}
