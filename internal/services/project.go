package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=200"`
	Key         string  `json:"key" binding:"required,alphanum,max=20"`
	Description *string `json:"description"`
}

// List returns the projects of the session's organization, by name.
func (s *ProjectService) List(session Session) ([]models.Project, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := s.db.Where("organization_id = ?", session.OrganizationID).
		Order("name ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// GetByID returns a project with its sprints in creation order.
func (s *ProjectService) GetByID(session Session, id uuid.UUID) (*models.Project, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	project, err := findProjectInOrg(s.db, session, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Where("project_id = ?", project.ID).Order("created_at ASC").Find(&project.Sprints).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// Create adds a project to the session's organization. Keys are stored
// upper-case and are unique per organization.
func (s *ProjectService) Create(session Session, req *CreateProjectRequest) (*models.Project, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if !session.IsOrgAdmin() {
		return nil, errAdminRequired
	}

	project := models.Project{
		Name:           strings.TrimSpace(req.Name),
		Key:            strings.ToUpper(strings.TrimSpace(req.Key)),
		Description:    req.Description,
		OrganizationID: session.OrganizationID,
	}

	if err := s.db.Create(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("Project key already exists").WithCause(err)
		}
		return nil, err
	}

	LogInfo("Projects", "Create", "Project "+project.Key+" created", ScopeOf(session), map[string]interface{}{
		"project_id": project.ID,
	})
	return &project, nil
}

// Delete removes a project with its sprints and issues.
func (s *ProjectService) Delete(session Session, id uuid.UUID) error {
	if err := session.Validate(); err != nil {
		return err
	}
	if !session.IsOrgAdmin() {
		return errAdminRequired
	}

	var key string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := findProjectInOrg(tx, session, id)
		if err != nil {
			return err
		}
		key = project.Key

		// Explicit deletes keep the cascade when the driver does not enforce foreign keys.
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Issue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Sprint{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		return err
	}

	LogInfo("Projects", "Delete", "Project "+key+" deleted", ScopeOf(session), map[string]interface{}{
		"project_id": id,
	})
	return nil
}
