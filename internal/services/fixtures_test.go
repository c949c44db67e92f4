package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// boardFixture is one organization with a synced user, a project and a sprint.
type boardFixture struct {
	db      *gorm.DB
	session Session
	user    *models.User
	project *models.Project
	sprint  *models.Sprint
	queue   *recordingQueue
	issues  *IssueService
}

func newBoardFixture(t *testing.T, sprintStatus models.SprintStatus) *boardFixture {
	t.Helper()

	db := newTestDB(t)
	f := &boardFixture{
		db:      db,
		session: Session{UserID: "user_alice", OrganizationID: "org_acme", OrgRole: "org:admin"},
		queue:   &recordingQueue{},
	}

	f.user = f.syncUser(t, f.session, "alice@acme.test")

	f.project = &models.Project{Name: "Motors", Key: "MOT", OrganizationID: f.session.OrganizationID}
	require.NoError(t, db.Create(f.project).Error)

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	f.sprint = &models.Sprint{
		Name:      "Sprint 1",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 14),
		Status:    sprintStatus,
		ProjectID: f.project.ID,
	}
	require.NoError(t, db.Create(f.sprint).Error)

	f.issues = NewIssueService(db, f.queue)
	f.issues.now = func() time.Time { return start.AddDate(0, 0, 3) }
	return f
}

func (f *boardFixture) syncUser(t *testing.T, s Session, email string) *models.User {
	t.Helper()
	user, err := NewAuthService(f.db).SyncUser(s, &SyncUserRequest{Email: email})
	require.NoError(t, err)
	return user
}

func (f *boardFixture) create(t *testing.T, title string, status models.IssueStatus) *models.Issue {
	t.Helper()
	issue, err := f.issues.Create(f.session, f.project.ID, &CreateIssueRequest{
		Title:    title,
		Status:   status,
		Priority: models.PriorityMedium,
		SprintID: &f.sprint.ID,
	})
	require.NoError(t, err)
	return issue
}

func (f *boardFixture) reload(t *testing.T, id uuid.UUID) models.Issue {
	t.Helper()
	var issue models.Issue
	require.NoError(t, f.db.First(&issue, "id = ?", id).Error)
	return issue
}

// column returns titles and orders of a partition, lowest order first.
func (f *boardFixture) column(t *testing.T, status models.IssueStatus) ([]string, []int) {
	t.Helper()
	issues, err := loadColumn(f.db, f.project.ID, &f.sprint.ID, status)
	require.NoError(t, err)

	var titles []string
	var orders []int
	for _, i := range issues {
		titles = append(titles, i.Title)
		orders = append(orders, i.Order)
	}
	return titles, orders
}

func (f *boardFixture) setSprintStatus(t *testing.T, status models.SprintStatus) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Sprint{}).Where("id = ?", f.sprint.ID).Update("status", status).Error)
}
