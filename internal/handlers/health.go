package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the store and the activity queue.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	code := http.StatusOK

	// Database check
	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}

	// Queue mode
	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var activeSprints int64
	h.db.Model(&models.Sprint{}).Where("status = ?", models.SprintActive).Count(&activeSprints)

	c.JSON(code, gin.H{
		"status":  overall,
		"service": "shopfloor-board",
		"components": gin.H{
			"database":       dbStatus,
			"queue_mode":     queueMode,
			"active_sprints": activeSprints,
			"board_clients":  services.GetSSEHub().ClientCount(),
		},
	})
}
