package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopfloor/board/backend/internal/middleware"
	"github.com/shopfloor/board/backend/internal/services"
	"github.com/shopfloor/board/backend/pkg/response"
)

type SprintHandler struct {
	sprintService *services.SprintService
	now           func() time.Time
}

func NewSprintHandler(sprintService *services.SprintService) *SprintHandler {
	return &SprintHandler{
		sprintService: sprintService,
		now:           time.Now,
	}
}

// List returns a project's sprints and the one the board opens on
// GET /api/projects/:id/sprints
func (h *SprintHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	resp, err := h.sprintService.List(middleware.GetSession(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// Create plans a sprint
// POST /api/projects/:id/sprints
func (h *SprintHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	var req services.CreateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sprint, err := h.sprintService.Create(middleware.GetSession(c), projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, sprint)
}

// UpdateStatus starts or completes a sprint
// PATCH /api/sprints/:id/status
func (h *SprintHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id", "sprint")
	if !ok {
		return
	}

	var req services.UpdateSprintStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sprint, err := h.sprintService.UpdateStatus(middleware.GetSession(c), id, req.Status, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, sprint)
}

// Summary returns column counts and the time left
// GET /api/sprints/:id/summary
func (h *SprintHandler) Summary(c *gin.Context) {
	id, ok := parseID(c, "id", "sprint")
	if !ok {
		return
	}

	summary, err := h.sprintService.Summary(middleware.GetSession(c), id, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, summary)
}
