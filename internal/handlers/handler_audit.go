package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	portssvc "github.com/kurniadi/customs_declaration_app/internal/core/ports/services"
	"github.com/kurniadi/customs_declaration_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// auditHandler handles HTTP requests for the audit trail.
type auditHandler struct {
	auditService portssvc.AuditSvcFacade
}

func newAuditHandler(as portssvc.AuditSvcFacade) *auditHandler {
	return &auditHandler{auditService: as}
}

// registerAuditRoutes registers read-only audit trail routes.
func registerAuditRoutes(rg *gin.RouterGroup, auditService portssvc.AuditSvcFacade) {
	h := newAuditHandler(auditService)

	audit := rg.Group("/audit")
	{
		audit.GET("/entities/:entityType/:entityID", h.listByEntity)
		audit.GET("/actors/:actorID", h.listByActor)
	}
}

func auditListParams(c *gin.Context) (int, *string, bool) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit parameter"})
			return 0, nil, false
		}
		limit = parsed
	}
	var nextToken *string
	if v := c.Query("nextToken"); v != "" {
		nextToken = &v
	}
	return limit, nextToken, true
}

// listByEntity godoc
// @Summary List audit entries for an entity
// @Tags audit
// @Produce json
// @Param entityType path string true "Entity type, e.g. Declaration"
// @Param entityID path string true "Entity ID"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Pagination cursor"
// @Success 200 {object} dto.ListAuditResponse
// @Failure 403 {object} ErrorResponse "Actor lacks the audit capability"
// @Security BearerAuth
// @Router /audit/entities/{entityType}/{entityID} [get]
func (h *auditHandler) listByEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, nextToken, ok := auditListParams(c)
	if !ok {
		return
	}

	resp, err := h.auditService.ListByEntity(c.Request.Context(), actor, c.Param("entityType"), c.Param("entityID"), limit, nextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("Failed to list audit entries")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list audit entries"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *auditHandler) listByActor(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, nextToken, ok := auditListParams(c)
	if !ok {
		return
	}

	resp, err := h.auditService.ListByActor(c.Request.Context(), actor, c.Param("actorID"), limit, nextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("Failed to list audit entries")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list audit entries"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
