package handler

import (
	"net/http"

	"github.com/classmark/cbt-backend/internal/response"
	"github.com/classmark/cbt-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the persisted audit trail to admins.
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditLogs godoc
// GET /api/v1/admin/audit-logs
// Newest-first audit events, optionally filtered by action.
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	page, perPage := paginationParams(c)

	events, total, err := h.auditService.List(c.Request.Context(), c.Query("action"), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"events": events}, buildPagination(page, perPage, total))
}
