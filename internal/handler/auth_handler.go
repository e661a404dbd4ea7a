package handler

import (
	"errors"
	"net/http"

	"github.com/classmark/cbt-backend/internal/middleware"
	"github.com/classmark/cbt-backend/internal/model"
	"github.com/classmark/cbt-backend/internal/response"
	"github.com/classmark/cbt-backend/internal/service"
	"github.com/classmark/cbt-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles admin authentication.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
// Issues a JWT for the management API.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.authService.LoginAdmin(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, session)
}

// GetAdminProfile godoc
// GET /api/v1/auth/admin/me
// Returns the authenticated admin's claims.
func (h *AuthHandler) GetAdminProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"admin_id": claims.AdminID,
		"email":    claims.Email,
	})
}
