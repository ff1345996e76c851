package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portssvc "github.com/kurniadi/customs_declaration_app/internal/core/ports/services"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
	"github.com/kurniadi/customs_declaration_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// syncHandler handles HTTP requests for the EDI synchronization layer.
type syncHandler struct {
	syncService portssvc.SyncSvcFacade
}

func newSyncHandler(ss portssvc.SyncSvcFacade) *syncHandler {
	return &syncHandler{syncService: ss}
}

// registerSyncRoutes registers routes for portal synchronization, the
// outbound queue, and inbound message ingestion.
func registerSyncRoutes(rg *gin.RouterGroup, syncService portssvc.SyncSvcFacade) {
	h := newSyncHandler(syncService)

	sync := rg.Group("/sync")
	{
		sync.POST("", h.runSync)
		sync.GET("/queue", h.listQueue)
		sync.POST("/queue", h.enqueue)
		sync.POST("/queue/process", h.processQueue)
		sync.POST("/queue/:id/retry", h.retryFailed)
		sync.POST("/messages/ingest", h.ingestIncoming)
		sync.GET("/messages/archive", h.listArchive)
		sync.GET("/diagnostics", h.getDiagnostics)
		sync.PUT("/diagnostics", h.setDiagnostics)
	}
}

func writeSyncError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation failure", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Operation forbidden for actor", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("State conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

// runSync godoc
// @Summary Run a manual portal sync
// @Description Fetches PEB and/or PIB status documents from the customs portal. Legs run independently; partial success is reported, not rolled back.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body dto.SyncRequest true "Legs to run; a nil leg is skipped"
// @Success 200 {object} dto.SyncResult
// @Failure 400 {object} ErrorResponse "No legs requested"
// @Security BearerAuth
// @Router /sync [post]
func (h *syncHandler) runSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Sync", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.syncService.Sync(c.Request.Context(), actor, req)
	if err != nil {
		writeSyncError(c, logger, err, "Sync run failed")
		return
	}

	logger.Info("Sync run finished",
		slog.Bool("success", result.Success),
		slog.String("summary", result.Summary),
		slog.Duration("duration", result.Duration))
	c.JSON(http.StatusOK, result)
}

func (h *syncHandler) enqueue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "declarationID is required"})
		return
	}

	item, err := h.syncService.Enqueue(c.Request.Context(), actor, req.DeclarationID)
	if err != nil {
		writeSyncError(c, logger, err, "Failed to enqueue declaration")
		return
	}

	logger.Info("Declaration enqueued for transmission", slog.String("declaration_id", req.DeclarationID))
	c.JSON(http.StatusCreated, dto.ToQueueItemResponse(item))
}

// processQueue godoc
// @Summary Process the outbound queue
// @Description Transmits pending queue items to the portal, at most one in flight per declaration. Items that fail with retry budget left return to PENDING.
// @Tags sync
// @Produce json
// @Success 200 {object} dto.QueueRunResult
// @Security BearerAuth
// @Router /sync/queue/process [post]
func (h *syncHandler) processQueue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	result, err := h.syncService.ProcessQueue(c.Request.Context(), actor)
	if err != nil {
		writeSyncError(c, logger, err, "Queue run failed")
		return
	}

	logger.Info("Queue run finished",
		slog.Int("processed", result.Processed),
		slog.Int("accepted", result.Accepted),
		slog.Int("failed", result.Failed),
		slog.Int("exhausted", result.Exhausted))
	c.JSON(http.StatusOK, result)
}

func (h *syncHandler) retryFailed(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	item, err := h.syncService.RetryFailed(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeSyncError(c, logger, err, "Failed to requeue item")
		return
	}

	logger.Info("Queue item requeued", slog.String("queue_item_id", item.QueueItemID))
	c.JSON(http.StatusOK, dto.ToQueueItemResponse(item))
}

func (h *syncHandler) listQueue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	status := domain.QueueStatus(c.DefaultQuery("status", string(domain.QueuePending)))
	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	items, err := h.syncService.ListQueue(c.Request.Context(), actor, status, limit)
	if err != nil {
		writeSyncError(c, logger, err, "Failed to list queue")
		return
	}

	responses := make([]dto.QueueItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, dto.ToQueueItemResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": responses})
}

// ingestIncoming godoc
// @Summary Ingest received portal messages
// @Description Applies buffered gateway responses to their declarations and archives them. Orphaned messages are archived without effect.
// @Tags sync
// @Produce json
// @Success 200 {object} dto.IngestResult
// @Security BearerAuth
// @Router /sync/messages/ingest [post]
func (h *syncHandler) ingestIncoming(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	result, err := h.syncService.IngestIncoming(c.Request.Context(), actor)
	if err != nil {
		writeSyncError(c, logger, err, "Message ingestion failed")
		return
	}

	logger.Info("Incoming messages ingested", slog.Int("applied", result.Applied), slog.Int("orphaned", result.Orphaned))
	c.JSON(http.StatusOK, result)
}

func (h *syncHandler) listArchive(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit parameter"})
			return
		}
		limit = parsed
	}
	var nextToken *string
	if v := c.Query("nextToken"); v != "" {
		nextToken = &v
	}

	resp, err := h.syncService.ListArchive(c.Request.Context(), actor, limit, nextToken)
	if err != nil {
		writeSyncError(c, logger, err, "Failed to list message archive")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *syncHandler) getDiagnostics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	report, err := h.syncService.Diagnostics(c.Request.Context(), actor)
	if err != nil {
		writeSyncError(c, logger, err, "Failed to read diagnostics")
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *syncHandler) setDiagnostics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.DiagnosticsToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "enabled is required"})
		return
	}

	if err := h.syncService.SetDiagnostics(c.Request.Context(), actor, *req.Enabled); err != nil {
		writeSyncError(c, logger, err, "Failed to toggle diagnostics")
		return
	}

	logger.Info("Diagnostics toggled", slog.Bool("enabled", *req.Enabled))
	c.Status(http.StatusNoContent)
}
