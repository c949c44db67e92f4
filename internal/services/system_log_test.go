package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/stretchr/testify/require"
)

func useSystemLogger(t *testing.T) *SystemLogService {
	t.Helper()
	db := newTestDB(t)
	InitSystemLogger(db)
	t.Cleanup(func() { InitSystemLogger(nil) })
	return NewSystemLogService(db)
}

func TestSystemLog_ScopedToOrganization(t *testing.T) {
	svc := useSystemLogger(t)

	LogInfo("Issues", "Create", "Issue a created", LogScope{OrganizationID: "org_a", UserID: "user_1"}, map[string]interface{}{"order": 0})
	LogWarning("Issues", "Delete", "Issue b deleted", LogScope{OrganizationID: "org_b"}, nil)

	resp, err := svc.List(Session{UserID: "user_1", OrganizationID: "org_a"}, &SystemLogListRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), resp.Total)
	require.Equal(t, "Issue a created", resp.Items[0].Message)
	require.JSONEq(t, `{"order":0}`, string(resp.Items[0].Extra))

	_, err = svc.List(Session{}, &SystemLogListRequest{})
	require.Error(t, err)
}

func TestRecordTransition(t *testing.T) {
	svc := useSystemLogger(t)

	task := &TransitionTask{
		IssueID:        uuid.New(),
		OrganizationID: "org_a",
		UserID:         "user_1",
		From:           models.StatusTodo,
		To:             models.StatusStore,
	}
	require.NoError(t, RecordTransition(context.Background(), task))

	resp, err := svc.List(Session{UserID: "user_1", OrganizationID: "org_a"}, &SystemLogListRequest{Module: "Board"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Contains(t, resp.Items[0].Message, "TODO → STORE")
}

func TestSystemLog_Cleanup(t *testing.T) {
	svc := useSystemLogger(t)

	old := &models.SystemLog{Level: "info", Module: "Issues", Action: "Create", OrganizationID: "org_a", CreatedAt: time.Now().AddDate(0, 0, -40)}
	require.NoError(t, svc.db.Create(old).Error)
	LogInfo("Issues", "Create", "fresh", LogScope{OrganizationID: "org_a"}, nil)

	deleted, err := svc.CleanupOldLogs(30)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	n, err := svc.CleanupOldLogs(0)
	require.NoError(t, err)
	require.Zero(t, n, "retention 0 disables cleanup")

	require.Equal(t, 30, svc.GetRetentionDays())
}
