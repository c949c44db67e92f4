package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/internal/services/board"
	"github.com/shopfloor/board/backend/pkg/logger"
	"github.com/shopfloor/board/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errDeleteForbidden = response.NewForbidden("You don't have permission to delete this issue")
	errUpdateForbidden = response.NewForbidden("You don't have permission to update this issue")
	errUpdateFailed    = response.NewServerError("Error updating issue")
)

var orderDesc = clause.OrderByColumn{Column: clause.Column{Name: "order"}, Desc: true}
var orderAsc = clause.OrderByColumn{Column: clause.Column{Name: "order"}}

// IssueService owns issue records and the board operations on them.
type IssueService struct {
	db    *gorm.DB
	queue TaskQueue
	now   func() time.Time
}

// NewIssueService publishes board transitions to queue; a nil queue drops them.
func NewIssueService(db *gorm.DB, queue TaskQueue) *IssueService {
	return &IssueService{db: db, queue: queue, now: time.Now}
}

type CreateIssueRequest struct {
	Title       string               `json:"title" binding:"required,max=500"`
	Description *string              `json:"description"`
	Status      models.IssueStatus   `json:"status" binding:"required"`
	Priority    models.IssuePriority `json:"priority" binding:"required"`
	AssigneeID  *uuid.UUID           `json:"assignee_id"`
	SprintID    *uuid.UUID           `json:"sprint_id"`
}

// UpdateIssueRequest is the details-view edit. A missing track leaves the
// stored track as it is.
type UpdateIssueRequest struct {
	Status     models.IssueStatus   `json:"status" binding:"required"`
	Priority   models.IssuePriority `json:"priority" binding:"required"`
	AssigneeID *uuid.UUID           `json:"assignee_id"`
	Track      models.Track         `json:"track"`
}

// MoveIssueRequest places an issue at Index of the Status column. Index
// counts from the lowest order, which is the bottom of a column listed in
// board order; an index past the end lands on top.
type MoveIssueRequest struct {
	Status models.IssueStatus `json:"status" binding:"required"`
	Index  int                `json:"index" binding:"min=0"`
}

type IssueTrackResponse struct {
	IssueID uuid.UUID           `json:"issue_id"`
	Status  models.IssueStatus  `json:"status"`
	Entries []models.TrackEntry `json:"entries"`
}

func withPeople(db *gorm.DB) *gorm.DB {
	return db.Preload("Assignee").Preload("Reporter")
}

// Create inserts an issue above the rest of its (project, status) column.
func (s *IssueService) Create(session Session, projectID uuid.UUID, req *CreateIssueRequest) (*models.Issue, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, response.NewBadRequest("invalid status")
	}
	if !req.Priority.Valid() {
		return nil, response.NewBadRequest("invalid priority")
	}

	var issue models.Issue
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := findProjectInOrg(tx, session, projectID)
		if err != nil {
			return err
		}
		reporter, err := findSessionUser(tx, session)
		if err != nil {
			return err
		}
		if req.SprintID != nil {
			var n int64
			if err := tx.Model(&models.Sprint{}).Where("id = ? AND project_id = ?", *req.SprintID, project.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return response.NewBadRequest("sprint does not belong to this project")
			}
		}
		if req.AssigneeID != nil {
			var n int64
			if err := tx.Model(&models.User{}).Where("id = ?", *req.AssigneeID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return response.NewBadRequest("assignee not found")
			}
		}

		var last *models.Issue
		var top models.Issue
		err = tx.Where("project_id = ? AND status = ?", project.ID, req.Status).Order(orderDesc).Limit(1).Find(&top).Error
		if err != nil {
			return err
		}
		if top.ID != uuid.Nil {
			last = &top
		}

		issue = models.Issue{
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			Status:      req.Status,
			Order:       board.NextOrder(last),
			Priority:    req.Priority,
			AssigneeID:  req.AssigneeID,
			ReporterID:  reporter.ID,
			ProjectID:   project.ID,
			SprintID:    req.SprintID,
			Track:       models.Track{},
		}
		if err := tx.Create(&issue).Error; err != nil {
			return err
		}
		return withPeople(tx).First(&issue, "id = ?", issue.ID).Error
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Issues", "Create", "Issue "+issue.Title+" created", ScopeOf(session), map[string]interface{}{
		"issue_id": issue.ID,
		"status":   issue.Status,
		"order":    issue.Order,
	})
	publishBoardEvent(session, EventIssueCreated, issue.ProjectID, issue.SprintID, issue.ID)
	return &issue, nil
}

// ListForSprint returns a sprint's issues in workflow order, highest order
// first within a column.
func (s *IssueService) ListForSprint(session Session, sprintID uuid.UUID) ([]models.Issue, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if _, err := findSprintInOrg(s.db, session, sprintID); err != nil {
		return nil, err
	}

	issues := []models.Issue{}
	if err := withPeople(s.db).
		Where("sprint_id = ?", sprintID).
		Order(models.BoardOrder()).
		Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

// ListMine returns issues of the session organization the user reports or is assigned to.
func (s *IssueService) ListMine(session Session) ([]models.Issue, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	user, err := findSessionUser(s.db, session)
	if err != nil {
		return nil, err
	}

	orgProjects := s.db.Model(&models.Project{}).Select("id").Where("organization_id = ?", session.OrganizationID)

	issues := []models.Issue{}
	if err := withPeople(s.db).Preload("Project").Preload("Sprint").
		Where("project_id IN (?)", orgProjects).
		Where(s.db.Where("assignee_id = ?", user.ID).Or("reporter_id = ?", user.ID)).
		Order("created_at DESC").
		Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

// Track returns the annotated transition history of an issue.
func (s *IssueService) Track(session Session, issueID uuid.UUID) (*IssueTrackResponse, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	var issue models.Issue
	err := s.db.Preload("Project").First(&issue, "id = ?", issueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errIssueNotFound
	}
	if err != nil {
		return nil, err
	}
	if issue.Project == nil || issue.Project.OrganizationID != session.OrganizationID {
		return nil, errIssueNotFound
	}

	return &IssueTrackResponse{
		IssueID: issue.ID,
		Status:  issue.Status,
		Entries: issue.Track.Entries(),
	}, nil
}

// Delete removes an issue. The reporter may always delete it; otherwise the
// issue's project must belong to the session organization.
func (s *IssueService) Delete(session Session, issueID uuid.UUID) error {
	if err := session.Validate(); err != nil {
		return err
	}

	var issue models.Issue
	err := s.db.Preload("Project").Preload("Reporter").First(&issue, "id = ?", issueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errIssueNotFound
	}
	if err != nil {
		return err
	}

	isReporter := issue.Reporter != nil && issue.Reporter.ExternalID == session.UserID
	sameOrg := issue.Project != nil && issue.Project.OrganizationID == session.OrganizationID
	if !isReporter && !sameOrg {
		return errDeleteForbidden
	}

	if err := s.db.Delete(&models.Issue{}, "id = ?", issue.ID).Error; err != nil {
		return err
	}

	LogInfo("Issues", "Delete", "Issue "+issue.Title+" deleted", ScopeOf(session), map[string]interface{}{
		"issue_id": issue.ID,
	})
	publishBoardEvent(session, EventIssueDeleted, issue.ProjectID, issue.SprintID, issue.ID)
	return nil
}

// Update applies a details-view edit. It is not gated by the sprint and does
// not append to the track; only board moves do. Store failures are reported
// as one generic error.
func (s *IssueService) Update(session Session, issueID uuid.UUID, req *UpdateIssueRequest) (*models.Issue, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, response.NewBadRequest("invalid status")
	}
	if !req.Priority.Valid() {
		return nil, response.NewBadRequest("invalid priority")
	}
	for _, st := range req.Track {
		if !st.Valid() {
			return nil, response.NewBadRequest("invalid status in track")
		}
	}

	var issue models.Issue
	err := s.db.Preload("Project").First(&issue, "id = ?", issueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errIssueNotFound
	}
	if err != nil {
		return nil, s.updateFailed(issueID, err)
	}
	if issue.Project == nil || issue.Project.OrganizationID != session.OrganizationID {
		return nil, errUpdateForbidden
	}

	updates := map[string]interface{}{
		"status":      req.Status,
		"priority":    req.Priority,
		"assignee_id": req.AssigneeID,
		"updated_at":  s.now(),
	}
	if req.Track != nil {
		updates["track"] = req.Track
	}

	if err := s.db.Model(&models.Issue{}).Where("id = ?", issue.ID).Updates(updates).Error; err != nil {
		return nil, s.updateFailed(issueID, err)
	}

	var updated models.Issue
	if err := withPeople(s.db).First(&updated, "id = ?", issue.ID).Error; err != nil {
		return nil, s.updateFailed(issueID, err)
	}
	publishBoardEvent(session, EventIssueUpdated, updated.ProjectID, updated.SprintID, updated.ID)
	return &updated, nil
}

func (s *IssueService) updateFailed(issueID uuid.UUID, err error) error {
	logger.Error().Err(err).Str("issue_id", issueID.String()).Msg("update issue failed")
	return errUpdateFailed.WithCause(err)
}

// UpdateOrder persists a board batch computed by the client. The placements
// are trusted as sent; only existence, organization and the sprint gate are
// checked. Everything is written in one transaction or not at all.
func (s *IssueService) UpdateOrder(session Session, placements []models.IssuePlacement) error {
	if err := session.Validate(); err != nil {
		return err
	}
	if len(placements) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(placements))
	seen := make(map[uuid.UUID]bool, len(placements))
	for _, p := range placements {
		if !p.Status.Valid() {
			return response.NewBadRequest("invalid status")
		}
		if p.Order < 0 {
			return response.NewBadRequest("order must not be negative")
		}
		for _, st := range p.Track {
			if !st.Valid() {
				return response.NewBadRequest("invalid status in track")
			}
		}
		if seen[p.ID] {
			return response.NewBadRequest("issue listed twice in batch")
		}
		seen[p.ID] = true
		ids = append(ids, p.ID)
	}

	var tasks []*TransitionTask
	projects := make(map[uuid.UUID][]uuid.UUID)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var issues []models.Issue
		if err := tx.Preload("Project").Preload("Sprint").Where("id IN ?", ids).Find(&issues).Error; err != nil {
			return err
		}
		if len(issues) != len(ids) {
			return errIssueNotFound
		}

		byID := make(map[uuid.UUID]*models.Issue, len(issues))
		for i := range issues {
			issue := &issues[i]
			if issue.Project == nil || issue.Project.OrganizationID != session.OrganizationID {
				return errUpdateForbidden
			}
			if err := checkIssueGate(issue); err != nil {
				return err
			}
			byID[issue.ID] = issue
			projects[issue.ProjectID] = append(projects[issue.ProjectID], issue.ID)
		}

		now := s.now()
		for _, p := range placements {
			if err := writePlacement(tx, p, now); err != nil {
				return err
			}
			if prev := byID[p.ID]; prev.Status != p.Status {
				tasks = append(tasks, transitionTask(session, prev, p, now))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	enqueueTransitions(s.queue, tasks)
	for projectID, issueIDs := range projects {
		publishBoardEvent(session, EventBoardReordered, projectID, nil, issueIDs...)
	}
	return nil
}

// Move places one issue at req.Index of the req.Status column and renumbers
// the affected columns. Order and track are derived here from the stored
// columns rather than taken from the client. Columns are restricted to the
// issue's sprint, so issues of other sprints keep their order.
func (s *IssueService) Move(session Session, issueID uuid.UUID, req *MoveIssueRequest) (*models.Issue, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, response.NewBadRequest("invalid status")
	}
	if req.Index < 0 {
		return nil, response.NewBadRequest("index must not be negative")
	}

	var moved models.Issue
	var tasks []*TransitionTask
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var issue models.Issue
		err := tx.Preload("Project").Preload("Sprint").First(&issue, "id = ?", issueID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errIssueNotFound
		}
		if err != nil {
			return err
		}
		if issue.Project == nil || issue.Project.OrganizationID != session.OrganizationID {
			return errUpdateForbidden
		}
		if err := checkIssueGate(&issue); err != nil {
			return err
		}

		source, err := loadColumn(tx, issue.ProjectID, issue.SprintID, issue.Status)
		if err != nil {
			return err
		}
		from := indexOf(source, issue.ID)
		if from < 0 {
			return errIssueNotFound
		}

		var placements []models.IssuePlacement
		if req.Status == issue.Status {
			to := req.Index
			if to >= len(source) {
				to = len(source) - 1
			}
			column, err := board.Reorder(source, from, to)
			if err != nil {
				return response.NewBadRequest(err.Error())
			}
			placements = board.Placements(column)
		} else {
			dest, err := loadColumn(tx, issue.ProjectID, issue.SprintID, req.Status)
			if err != nil {
				return err
			}
			residual, target, err := board.Move(source, dest, from, req.Index, req.Status)
			if err != nil {
				return response.NewBadRequest(err.Error())
			}
			placements = board.Placements(residual, target)
		}

		now := s.now()
		for _, p := range placements {
			if err := writePlacement(tx, p, now); err != nil {
				return err
			}
			if p.ID == issue.ID && p.Status != issue.Status {
				tasks = append(tasks, transitionTask(session, &issue, p, now))
			}
		}

		return withPeople(tx).First(&moved, "id = ?", issue.ID).Error
	})
	if err != nil {
		return nil, err
	}

	enqueueTransitions(s.queue, tasks)
	publishBoardEvent(session, EventBoardReordered, moved.ProjectID, moved.SprintID, moved.ID)
	return &moved, nil
}

// checkIssueGate applies the sprint gate. Backlog issues have no sprint and are not gated.
func checkIssueGate(issue *models.Issue) error {
	if issue.SprintID == nil || issue.Sprint == nil {
		return nil
	}
	return gateError(board.CheckGate(issue.Sprint.Status))
}

// loadColumn reads the issues of one sprint (or the backlog when sprintID is
// nil) in a (project, status) partition, lowest order first. Equal orders
// keep insertion order.
func loadColumn(tx *gorm.DB, projectID uuid.UUID, sprintID *uuid.UUID, status models.IssueStatus) ([]models.Issue, error) {
	q := tx.Where("project_id = ? AND status = ?", projectID, status)
	if sprintID != nil {
		q = q.Where("sprint_id = ?", *sprintID)
	} else {
		q = q.Where("sprint_id IS NULL")
	}
	var column []models.Issue
	err := q.Order(orderAsc).
		Order("created_at ASC").
		Find(&column).Error
	return column, err
}

// writePlacement stores one placement. A nil track keeps the stored one.
func writePlacement(tx *gorm.DB, p models.IssuePlacement, now time.Time) error {
	fields := map[string]interface{}{
		"status":     p.Status,
		"order":      p.Order,
		"updated_at": now,
	}
	if p.Track != nil {
		fields["track"] = p.Track
	}
	result := tx.Model(&models.Issue{}).Where("id = ?", p.ID).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("write placement %s: %w", p.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return errIssueNotFound
	}
	return nil
}

func transitionTask(session Session, prev *models.Issue, p models.IssuePlacement, now time.Time) *TransitionTask {
	return &TransitionTask{
		IssueID:        prev.ID,
		ProjectID:      prev.ProjectID,
		SprintID:       prev.SprintID,
		OrganizationID: session.OrganizationID,
		UserID:         session.UserID,
		From:           prev.Status,
		To:             p.Status,
		Order:          p.Order,
		TrackLength:    len(p.Track),
		MovedAt:        now,
	}
}

func indexOf(column []models.Issue, id uuid.UUID) int {
	for i := range column {
		if column[i].ID == id {
			return i
		}
	}
	return -1
}
