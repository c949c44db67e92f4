package services

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/internal/services/board"
	"github.com/shopfloor/board/backend/pkg/response"
	"gorm.io/gorm"
)

type SprintService struct {
	db       *gorm.DB
	holidays *HolidayService
	country  string
}

// NewSprintService counts working days with the holiday calendar of country.
func NewSprintService(db *gorm.DB, holidays *HolidayService, country string) *SprintService {
	if country == "" {
		country = "NONE"
	}
	return &SprintService{db: db, holidays: holidays, country: country}
}

// Country is the holiday calendar used for working days.
func (s *SprintService) Country() string {
	return s.country
}

type CreateSprintRequest struct {
	Name      string    `json:"name" binding:"required,max=200"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

type UpdateSprintStatusRequest struct {
	Status models.SprintStatus `json:"status" binding:"required"`
}

// SprintListResponse lists a project's sprints with the one the board opens on.
type SprintListResponse struct {
	Items   []models.Sprint `json:"items"`
	Current *models.Sprint  `json:"current"`
}

type StatusCount struct {
	Status models.IssueStatus `json:"status"`
	Phase  int                `json:"phase"`
	Count  int64              `json:"count"`
}

type SprintSummary struct {
	Sprint               *models.Sprint `json:"sprint"`
	Columns              []StatusCount  `json:"columns"`
	Total                int64          `json:"total"`
	DaysRemaining        int            `json:"days_remaining"`
	WorkingDaysRemaining int            `json:"working_days_remaining"`
	Overdue              bool           `json:"overdue"`
	CanStart             bool           `json:"can_start"`
	CanComplete          bool           `json:"can_complete"`
}

func (s *SprintService) Create(session Session, projectID uuid.UUID, req *CreateSprintRequest) (*models.Sprint, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, response.NewBadRequest("end_date must be after start_date")
	}

	project, err := findProjectInOrg(s.db, session, projectID)
	if err != nil {
		return nil, err
	}

	sprint := models.Sprint{
		Name:      strings.TrimSpace(req.Name),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    models.SprintPlanned,
		ProjectID: project.ID,
	}
	if err := s.db.Create(&sprint).Error; err != nil {
		return nil, err
	}

	LogInfo("Sprints", "Create", "Sprint "+sprint.Name+" planned in "+project.Key, ScopeOf(session), map[string]interface{}{
		"sprint_id": sprint.ID,
	})
	return &sprint, nil
}

// List returns a project's sprints in creation order.
func (s *SprintService) List(session Session, projectID uuid.UUID) (*SprintListResponse, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if _, err := findProjectInOrg(s.db, session, projectID); err != nil {
		return nil, err
	}

	var sprints []models.Sprint
	if err := s.db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&sprints).Error; err != nil {
		return nil, err
	}

	return &SprintListResponse{Items: sprints, Current: board.CurrentSprint(sprints)}, nil
}

// UpdateStatus moves a sprint along PLANNED → ACTIVE → COMPLETED.
func (s *SprintService) UpdateStatus(session Session, sprintID uuid.UUID, status models.SprintStatus, now time.Time) (*models.Sprint, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, response.NewBadRequest("invalid sprint status")
	}

	var sprint *models.Sprint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		sprint, err = findSprintInOrg(tx, session, sprintID)
		if err != nil {
			return err
		}
		if err := board.Transition(sprint, status, now); err != nil {
			return response.NewConflict(err.Error()).WithCause(err)
		}

		if err := tx.Model(&models.Sprint{}).Where("id = ?", sprint.ID).Updates(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}
		sprint.Status = status
		sprint.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	LogInfo("Sprints", "Status", "Sprint "+sprint.Name+" is now "+string(status), ScopeOf(session), map[string]interface{}{
		"sprint_id": sprint.ID,
		"status":    status,
	})
	publishBoardEvent(session, EventSprintStatus, sprint.ProjectID, &sprint.ID)
	return sprint, nil
}

// Summary reports per-column counts in workflow order and the time left in the sprint.
func (s *SprintService) Summary(session Session, sprintID uuid.UUID, now time.Time) (*SprintSummary, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	sprint, err := findSprintInOrg(s.db, session, sprintID)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status models.IssueStatus
		Count  int64
	}
	if err := s.db.Model(&models.Issue{}).
		Select("status, COUNT(*) AS count").
		Where("sprint_id = ?", sprint.ID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.IssueStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}

	summary := &SprintSummary{
		Sprint:      sprint,
		Columns:     make([]StatusCount, 0, len(models.MasterSequence)),
		Overdue:     sprint.Status == models.SprintActive && now.After(sprint.EndDate),
		CanStart:    board.CanStart(sprint, now),
		CanComplete: board.CanComplete(sprint),
	}
	for _, status := range models.MasterSequence {
		summary.Columns = append(summary.Columns, StatusCount{Status: status, Phase: status.Phase(), Count: counts[status]})
		summary.Total += counts[status]
	}

	if sprint.Status != models.SprintCompleted && !now.After(sprint.EndDate) {
		summary.DaysRemaining = int(math.Ceil(sprint.EndDate.Sub(now).Hours() / 24))
		from := now
		if from.Before(sprint.StartDate) {
			from = sprint.StartDate
		}
		if s.holidays != nil {
			summary.WorkingDaysRemaining = s.holidays.WorkingDaysBetween(from, sprint.EndDate, s.country)
		}
	}

	return summary, nil
}

// OverdueSprints lists ACTIVE sprints whose end date has passed, across all organizations.
func (s *SprintService) OverdueSprints(now time.Time) ([]models.Sprint, error) {
	var sprints []models.Sprint
	err := s.db.Preload("Project").
		Where("status = ? AND end_date < ?", models.SprintActive, now).
		Order("end_date ASC").
		Find(&sprints).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return sprints, nil
}
