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

// declarationHandler handles HTTP requests for customs declarations.
type declarationHandler struct {
	declarationService portssvc.DeclarationSvcFacade
}

func newDeclarationHandler(ds portssvc.DeclarationSvcFacade) *declarationHandler {
	return &declarationHandler{declarationService: ds}
}

// RegisterDeclarationRoutes registers routes for the declaration lifecycle.
func RegisterDeclarationRoutes(rg *gin.RouterGroup, declarationService portssvc.DeclarationSvcFacade) {
	h := newDeclarationHandler(declarationService)

	declarations := rg.Group("/declarations")
	{
		declarations.POST("", h.createDeclaration)
		declarations.GET("", h.listDeclarations)
		declarations.GET("/allowed-incoterms", h.allowedIncoterms)
		declarations.GET("/:id", h.getDeclaration)
		declarations.PATCH("/:id", h.updateDeclaration)

		declarations.POST("/:id/items", h.addItem)
		declarations.PUT("/:id/items/:itemID", h.updateItem)
		declarations.DELETE("/:id/items/:itemID", h.removeItem)
		declarations.POST("/:id/documents", h.attachDocument)

		declarations.POST("/:id/submit", h.submit)
		declarations.POST("/:id/review", h.markUnderReview)
		declarations.POST("/:id/approve", h.approve)
		declarations.POST("/:id/reject", h.reject)
		declarations.POST("/:id/lock", h.lock)
		declarations.POST("/:id/unlock", h.unlock)

		declarations.GET("/:id/xml", h.exportXML)
		declarations.GET("/:id/print", h.printSummary)
	}
}

// writeDeclarationError maps service errors to HTTP responses. The caller
// handles nil errors; this is only for the failure path.
func writeDeclarationError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation failure", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Declaration or item not found")
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Operation forbidden for actor", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrImmutable), errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("State conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

// createDeclaration godoc
// @Summary Create a declaration
// @Description Creates a new DRAFT export (PEB) or import (PIB) declaration.
// @Tags declarations
// @Accept json
// @Produce json
// @Param declaration body dto.CreateDeclarationRequest true "Declaration header"
// @Success 201 {object} dto.DeclarationResponse
// @Failure 400 {object} ErrorResponse "Invalid input or incompatible trade term"
// @Security BearerAuth
// @Router /declarations [post]
func (h *declarationHandler) createDeclaration(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateDeclaration", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	decl, err := h.declarationService.CreateDeclaration(c.Request.Context(), actor, req)
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to create declaration")
		return
	}

	logger.Info("Declaration created", slog.String("declaration_id", decl.DeclarationID), slog.String("document_type", string(decl.DocumentType)))
	c.JSON(http.StatusCreated, dto.ToDeclarationResponse(decl))
}

func (h *declarationHandler) getDeclaration(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	decl, err := h.declarationService.GetDeclaration(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to retrieve declaration")
		return
	}

	c.JSON(http.StatusOK, dto.ToDeclarationResponse(decl))
}

// listDeclarations godoc
// @Summary List declarations
// @Description Lists declarations, optionally filtered by document type and status, with cursor pagination.
// @Tags declarations
// @Produce json
// @Param documentType query string false "PEB or PIB"
// @Param status query string false "Lifecycle status"
// @Param limit query int false "Page size"
// @Param nextToken query string false "Pagination cursor"
// @Success 200 {object} dto.ListDeclarationsResponse
// @Security BearerAuth
// @Router /declarations [get]
func (h *declarationHandler) listDeclarations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	params := dto.ListDeclarationsParams{}
	if v := c.Query("documentType"); v != "" {
		docType := domain.DocumentType(v)
		params.DocumentType = &docType
	}
	if v := c.Query("status"); v != "" {
		status := domain.DeclarationStatus(v)
		params.Status = &status
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid limit parameter"})
			return
		}
		params.Limit = limit
	}
	if v := c.Query("nextToken"); v != "" {
		params.NextToken = &v
	}

	resp, err := h.declarationService.ListDeclarations(c.Request.Context(), actor, params)
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to list declarations")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *declarationHandler) updateDeclaration(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.UpdateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateDeclaration", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	decl, err := h.declarationService.UpdateDeclaration(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to update declaration")
		return
	}

	c.JSON(http.StatusOK, dto.ToDeclarationResponse(decl))
}

func (h *declarationHandler) addItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddItem", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	item, err := h.declarationService.AddItem(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to add item")
		return
	}

	logger.Info("Item added", slog.String("declaration_id", c.Param("id")), slog.Int("line_number", item.LineNumber))
	c.JSON(http.StatusCreated, dto.ToItemResponse(item))
}

func (h *declarationHandler) updateItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateItem", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	item, err := h.declarationService.UpdateItem(c.Request.Context(), actor, c.Param("id"), c.Param("itemID"), req)
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to update item")
		return
	}

	c.JSON(http.StatusOK, dto.ToItemResponse(item))
}

func (h *declarationHandler) removeItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.declarationService.RemoveItem(c.Request.Context(), actor, c.Param("id"), c.Param("itemID")); err != nil {
		writeDeclarationError(c, logger, err, "Failed to remove item")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *declarationHandler) attachDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.AttachDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AttachDocument", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	decl, err := h.declarationService.AttachDocument(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to attach document")
		return
	}

	c.JSON(http.StatusOK, dto.ToDeclarationResponse(decl))
}

// submit godoc
// @Summary Submit a declaration
// @Description Runs the full submission guard, assesses duties for imports, generates the CEISA XML and hash, and locks the declaration.
// @Tags declarations
// @Produce json
// @Param id path string true "Declaration ID"
// @Success 200 {object} dto.DeclarationResponse
// @Failure 400 {object} ErrorResponse "Submission guard violations"
// @Failure 409 {object} ErrorResponse "Not submittable from current status"
// @Security BearerAuth
// @Router /declarations/{id}/submit [post]
func (h *declarationHandler) submit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	decl, err := h.declarationService.Submit(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to submit declaration")
		return
	}

	logger.Info("Declaration submitted", slog.String("declaration_id", decl.DeclarationID), slog.String("document_hash", decl.DocumentHash))
	c.JSON(http.StatusOK, dto.ToDeclarationResponse(decl))
}

func (h *declarationHandler) markUnderReview(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	decl, err := h.declarationService.MarkUnderReview(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to mark declaration under review")
		return
	}

	c.JSON(http.StatusOK, dto.ToDeclarationResponse(decl))
}

func (h *declarationHandler) approve(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	decl, err := h.declarationService.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to approve declaration")
		return
	}

	logger.Info("Declaration approved", slog.String("declaration_id", decl.DeclarationID))
	c.JSON(http.StatusOK, dto.ToDeclarationResponse(decl))
}

func (h *declarationHandler) reject(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Rejection reason is required"})
		return
	}

	decl, err := h.declarationService.Reject(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to reject declaration")
		return
	}

	logger.Info("Declaration rejected", slog.String("declaration_id", decl.DeclarationID))
	c.JSON(http.StatusOK, dto.ToDeclarationResponse(decl))
}

func (h *declarationHandler) lock(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	decl, err := h.declarationService.Lock(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to lock declaration")
		return
	}

	c.JSON(http.StatusOK, dto.ToDeclarationResponse(decl))
}

func (h *declarationHandler) unlock(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	decl, err := h.declarationService.Unlock(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to unlock declaration")
		return
	}

	c.JSON(http.StatusOK, dto.ToDeclarationResponse(decl))
}

// exportXML godoc
// @Summary Export the submitted XML
// @Description Verifies the stored document hash and returns the canonical CEISA XML payload.
// @Tags declarations
// @Produce xml
// @Param id path string true "Declaration ID"
// @Success 200 {string} string "XML payload"
// @Failure 500 {object} ErrorResponse "Stored payload failed integrity verification"
// @Security BearerAuth
// @Router /declarations/{id}/xml [get]
func (h *declarationHandler) exportXML(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	payload, err := h.declarationService.ExportXML(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrIntegrity) {
			logger.Error("Stored XML failed hash verification", slog.String("declaration_id", c.Param("id")))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		writeDeclarationError(c, logger, err, "Failed to export XML")
		return
	}

	c.Data(http.StatusOK, "application/xml", []byte(payload))
}

func (h *declarationHandler) printSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	pdf, err := h.declarationService.PrintSummary(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeDeclarationError(c, logger, err, "Failed to render declaration summary")
		return
	}

	c.Data(http.StatusOK, "application/pdf", pdf)
}

// allowedIncoterms godoc
// @Summary List trade terms legal for a transport mode
// @Tags declarations
// @Produce json
// @Param mode query string true "Transport mode (SEA, AIR, LAND, RAIL, OTHER)"
// @Success 200 {object} dto.AllowedIncotermsResponse
// @Security BearerAuth
// @Router /declarations/allowed-incoterms [get]
func (h *declarationHandler) allowedIncoterms(c *gin.Context) {
	mode := domain.TransportMode(c.Query("mode"))
	if mode == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "mode query parameter is required"})
		return
	}

	incoterms := h.declarationService.AllowedIncoterms(mode)
	resp := dto.AllowedIncotermsResponse{TransportMode: string(mode)}
	for _, term := range incoterms {
		resp.Incoterms = append(resp.Incoterms, string(term))
	}
	c.JSON(http.StatusOK, resp)
}
