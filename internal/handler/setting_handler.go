package handler

import (
	"errors"
	"net/http"

	"github.com/classmark/cbt-backend/internal/model"
	"github.com/classmark/cbt-backend/internal/response"
	"github.com/classmark/cbt-backend/internal/service"
	"github.com/classmark/cbt-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// SettingHandler handles the admin settings surface.
type SettingHandler struct {
	settingService *service.SettingService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(settingService *service.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// GetAllSettings godoc
// GET /api/v1/admin/settings
// Returns the stored rows plus the resolved engine snapshot.
func (h *SettingHandler) GetAllSettings(c *gin.Context) {
	settings, err := h.settingService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"settings": settings,
		"resolved": h.settingService.ExamSettings(c.Request.Context()),
	})
}

// UpdateSettings godoc
// PUT /api/v1/admin/settings
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.settingService.Update(c.Request.Context(), req.Settings); err != nil {
		if errors.Is(err, service.ErrInvalidSetting) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"resolved": h.settingService.ExamSettings(c.Request.Context()),
	})
}
