package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfloor/board/backend/internal/config"
	"github.com/shopfloor/board/backend/internal/middleware"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/internal/services"
	"github.com/shopfloor/board/backend/internal/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-handler-testing")
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	admin  string
	member string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := models.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	sprints := services.NewSprintService(db, services.NewHolidayService(), "NONE")
	auth := NewAuthHandler(db)
	projects := NewProjectHandler(db)
	sprintHandler := NewSprintHandler(sprints)
	issues := NewIssueHandler(services.NewIssueService(db, nil))

	r := gin.New()
	api := r.Group("/api", middleware.SessionRequired())
	api.POST("/auth/sync", auth.Sync)
	api.GET("/auth/me", auth.Me)
	api.GET("/projects/:id", projects.GetByID)
	api.POST("/projects/:id/sprints", sprintHandler.Create)
	api.PATCH("/sprints/:id/status", sprintHandler.UpdateStatus)
	api.GET("/sprints/:id/summary", sprintHandler.Summary)
	api.POST("/projects/:id/issues", issues.Create)
	api.GET("/sprints/:id/issues", issues.ListForSprint)
	api.PUT("/issues/order", issues.UpdateOrder)
	api.POST("/issues/:id/move", issues.Move)
	api.GET("/issues/:id/track", issues.Track)
	api.DELETE("/issues/:id", issues.Delete)
	api.POST("/projects", middleware.AdminRequired(), projects.Create)

	admin, err := utils.GenerateToken("user_admin", "org_acme", utils.RoleOrgAdmin, 1)
	require.NoError(t, err)
	member, err := utils.GenerateToken("user_member", "org_acme", utils.RoleOrgMember, 1)
	require.NoError(t, err)

	return &testServer{router: r, admin: admin, member: member}
}

func (s *testServer) do(t *testing.T, token, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestBoardFlow(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, s.admin, "POST", "/api/auth/sync", gin.H{"email": "admin@acme.test"})
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(t, s.member, "POST", "/api/projects", gin.H{"name": "Motors", "key": "mot"})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "admin access required", env.Message)

	code, env = s.do(t, s.admin, "POST", "/api/projects", gin.H{"name": "Motors", "key": "mot"})
	require.Equal(t, http.StatusCreated, code)
	project := decode[models.Project](t, env)
	require.Equal(t, "MOT", project.Key)

	now := time.Now().UTC()
	code, env = s.do(t, s.admin, "POST", "/api/projects/"+project.ID.String()+"/sprints", gin.H{
		"name":       "Sprint 1",
		"start_date": now.Add(-24 * time.Hour),
		"end_date":   now.Add(13 * 24 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, code)
	sprint := decode[models.Sprint](t, env)

	newIssue := func(title string) models.Issue {
		code, env := s.do(t, s.admin, "POST", "/api/projects/"+project.ID.String()+"/issues", gin.H{
			"title":     title,
			"status":    "TODO",
			"priority":  "HIGH",
			"sprint_id": sprint.ID,
		})
		require.Equal(t, http.StatusCreated, code, env.Message)
		return decode[models.Issue](t, env)
	}
	a := newIssue("stator")
	b := newIssue("rotor")
	require.Equal(t, 1, b.Order)

	// The board is frozen until the sprint starts.
	code, env = s.do(t, s.admin, "POST", "/api/issues/"+a.ID.String()+"/move", gin.H{"status": "PURCHASE", "index": 0})
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "Start the sprint to update board", env.Message)

	code, env = s.do(t, s.admin, "PATCH", "/api/sprints/"+sprint.ID.String()+"/status", gin.H{"status": "ACTIVE"})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, s.admin, "POST", "/api/issues/"+a.ID.String()+"/move", gin.H{"status": "PURCHASE", "index": 0})
	require.Equal(t, http.StatusOK, code, env.Message)
	moved := decode[models.Issue](t, env)
	require.Equal(t, models.StatusPurchase, moved.Status)
	require.Equal(t, models.Track{models.StatusPurchase}, moved.Track)

	code, env = s.do(t, s.member, "PUT", "/api/issues/order", []gin.H{
		{"id": b.ID, "status": "STORE", "order": 0, "track": []string{"STORE"}},
	})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = s.do(t, s.admin, "GET", "/api/sprints/"+sprint.ID.String()+"/issues", nil)
	require.Equal(t, http.StatusOK, code)
	board := decode[[]models.Issue](t, env)
	require.Len(t, board, 2)
	require.Equal(t, "stator", board[0].Title)
	require.Equal(t, "rotor", board[1].Title)

	code, env = s.do(t, s.admin, "GET", "/api/sprints/"+sprint.ID.String()+"/summary", nil)
	require.Equal(t, http.StatusOK, code)
	summary := decode[services.SprintSummary](t, env)
	require.Equal(t, int64(2), summary.Total)
	require.True(t, summary.CanComplete)

	code, env = s.do(t, s.admin, "GET", "/api/issues/"+b.ID.String()+"/track", nil)
	require.Equal(t, http.StatusOK, code)
	track := decode[services.IssueTrackResponse](t, env)
	require.Len(t, track.Entries, 1)
	require.True(t, track.Entries[0].Current)

	code, _ = s.do(t, s.member, "DELETE", "/api/issues/"+b.ID.String(), nil)
	require.Equal(t, http.StatusOK, code, "any member of the organization may delete")
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, s.admin, "GET", "/api/projects/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "invalid project id", env.Message)

	code, _ = s.do(t, s.admin, "POST", "/api/auth/sync", gin.H{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, s.admin, "GET", "/api/auth/me", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "User not found", env.Message)

	code, env = s.do(t, s.admin, "PUT", "/api/issues/order", []gin.H{
		{"id": uuid.New(), "status": "TODO", "order": 0},
	})
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Issue not found", env.Message)

	code, _ = s.do(t, s.admin, "PUT", "/api/issues/order", []gin.H{})
	require.Equal(t, http.StatusOK, code, "an empty batch is a no-op")
}
