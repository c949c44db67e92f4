package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfloor/board/backend/internal/middleware"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/internal/services"
	"github.com/shopfloor/board/backend/pkg/response"
)

type IssueHandler struct {
	issueService *services.IssueService
}

func NewIssueHandler(issueService *services.IssueService) *IssueHandler {
	return &IssueHandler{issueService: issueService}
}

// Create adds an issue to the top of its column
// POST /api/projects/:id/issues
func (h *IssueHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	var req services.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	issue, err := h.issueService.Create(middleware.GetSession(c), projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, issue)
}

// ListForSprint returns the board of a sprint
// GET /api/sprints/:id/issues
func (h *IssueHandler) ListForSprint(c *gin.Context) {
	sprintID, ok := parseID(c, "id", "sprint")
	if !ok {
		return
	}

	issues, err := h.issueService.ListForSprint(middleware.GetSession(c), sprintID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issues)
}

// ListMine returns issues assigned to or reported by the current user
// GET /api/issues/mine
func (h *IssueHandler) ListMine(c *gin.Context) {
	issues, err := h.issueService.ListMine(middleware.GetSession(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issues)
}

// UpdateOrder applies a board reconciliation batch
// PUT /api/issues/order
func (h *IssueHandler) UpdateOrder(c *gin.Context) {
	var placements []models.IssuePlacement
	if err := c.ShouldBindJSON(&placements); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.issueService.UpdateOrder(middleware.GetSession(c), placements); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}

// Move places an issue at an index of a column
// POST /api/issues/:id/move
func (h *IssueHandler) Move(c *gin.Context) {
	id, ok := parseID(c, "id", "issue")
	if !ok {
		return
	}

	var req services.MoveIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	issue, err := h.issueService.Move(middleware.GetSession(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issue)
}

// Track returns the transition history of an issue
// GET /api/issues/:id/track
func (h *IssueHandler) Track(c *gin.Context) {
	id, ok := parseID(c, "id", "issue")
	if !ok {
		return
	}

	track, err := h.issueService.Track(middleware.GetSession(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, track)
}

// Update overwrites status, priority, assignee and track
// PUT /api/issues/:id
func (h *IssueHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "issue")
	if !ok {
		return
	}

	var req services.UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	issue, err := h.issueService.Update(middleware.GetSession(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, issue)
}

// Delete removes an issue
// DELETE /api/issues/:id
func (h *IssueHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "issue")
	if !ok {
		return
	}

	if err := h.issueService.Delete(middleware.GetSession(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}
