package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfloor/board/backend/internal/middleware"
	"github.com/shopfloor/board/backend/internal/services"
	"github.com/shopfloor/board/backend/pkg/response"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
	operatorOrg   string
}

// NewSystemConfigHandler serves the instance settings. Only admins of
// operatorOrg may change them; with no operator organization they are read-only.
func NewSystemConfigHandler(db *gorm.DB, operatorOrg string) *SystemConfigHandler {
	return &SystemConfigHandler{
		configService: services.NewSystemConfigService(db),
		operatorOrg:   operatorOrg,
	}
}

// GET /api/settings
func (h *SystemConfigHandler) GetBoardSettings(c *gin.Context) {
	response.Success(c, h.configService.GetBoardSettings())
}

// PUT /api/settings
func (h *SystemConfigHandler) UpdateBoardSettings(c *gin.Context) {
	if h.operatorOrg == "" || middleware.GetSession(c).OrganizationID != h.operatorOrg {
		response.Forbidden(c, "settings are managed by the operator organization")
		return
	}

	var req services.UpdateBoardSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.configService.UpdateBoardSettings(&req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, h.configService.GetBoardSettings())
}
