package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/internal/services/board"
	"github.com/shopfloor/board/backend/pkg/response"
	"gorm.io/gorm"
)

var (
	errIssueNotFound   = response.NewNotFound("Issue not found")
	errProjectNotFound = response.NewNotFound("Project not found")
	errSprintNotFound  = response.NewNotFound("Sprint not found")
	errUserNotFound    = response.NewNotFound("User not found")
	errAdminRequired   = response.NewForbidden("admin access required")
)

// findProjectInOrg loads a project of the session's organization. Projects of
// other organizations read as missing.
func findProjectInOrg(db *gorm.DB, session Session, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := db.Where("id = ? AND organization_id = ?", id, session.OrganizationID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func findSprintInOrg(db *gorm.DB, session Session, id uuid.UUID) (*models.Sprint, error) {
	var sprint models.Sprint
	err := db.Preload("Project").First(&sprint, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errSprintNotFound
	}
	if err != nil {
		return nil, err
	}
	if sprint.Project == nil || sprint.Project.OrganizationID != session.OrganizationID {
		return nil, errSprintNotFound
	}
	return &sprint, nil
}

// findSessionUser maps the identity-provider user to the local projection.
// The user must have been synced at least once.
func findSessionUser(db *gorm.DB, session Session) (*models.User, error) {
	var user models.User
	err := db.Where(&models.User{ExternalID: session.UserID}).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// gateError turns a sprint gate refusal into the message the board shows.
func gateError(err error) error {
	switch {
	case errors.Is(err, board.ErrSprintNotStarted):
		return response.NewConflict("Start the sprint to update board").WithCause(err)
	case errors.Is(err, board.ErrSprintEnded):
		return response.NewConflict("Cannot update board after sprint end").WithCause(err)
	}
	return err
}
