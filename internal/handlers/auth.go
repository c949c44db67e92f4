package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfloor/board/backend/internal/middleware"
	"github.com/shopfloor/board/backend/internal/services"
	"github.com/shopfloor/board/backend/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db),
	}
}

// Sync stores the identity-provider profile of the session user
// POST /api/auth/sync
func (h *AuthHandler) Sync(c *gin.Context) {
	var req services.SyncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.SyncUser(middleware.GetSession(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}

// Me returns the current user
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(middleware.GetSession(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}
