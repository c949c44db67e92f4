package services

import (
	"testing"
	"time"

	"github.com/shopfloor/board/backend/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSprintWatcher_CheckOverdue(t *testing.T) {
	f := newBoardFixture(t, models.SprintActive)
	InitSystemLogger(f.db)
	t.Cleanup(func() { InitSystemLogger(nil) })

	w := NewSprintWatcher(f.db, NewSprintService(f.db, nil, ""))
	w.now = func() time.Time { return f.sprint.EndDate.Add(2 * time.Hour) }

	n, err := w.CheckOverdue()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = w.CheckOverdue()
	require.NoError(t, err)
	require.Zero(t, n, "the slot is already taken")

	other := NewSprintWatcher(f.db, NewSprintService(f.db, nil, ""))
	other.now = w.now
	n, err = other.CheckOverdue()
	require.NoError(t, err)
	require.Zero(t, n, "another instance must not repeat the slot")

	var sprint models.Sprint
	require.NoError(t, f.db.First(&sprint, "id = ?", f.sprint.ID).Error)
	require.Equal(t, models.SprintActive, sprint.Status, "the watcher never completes sprints")

	resp, err := NewSystemLogService(f.db).List(f.session, &SystemLogListRequest{Module: "Sprints", Action: "Overdue"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "warning", resp.Items[0].Level)
}

func TestSprintWatcher_Disabled(t *testing.T) {
	f := newBoardFixture(t, models.SprintActive)
	require.NoError(t, NewSystemConfigService(f.db).Set("sprint_watch_enabled", "false"))

	w := NewSprintWatcher(f.db, NewSprintService(f.db, nil, ""))
	w.now = func() time.Time { return f.sprint.EndDate.Add(time.Hour) }

	n, err := w.CheckOverdue()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSprintWatcher_StartRejectsBadSchedule(t *testing.T) {
	w := NewSprintWatcher(newTestDB(t), nil)
	require.Error(t, w.Start("not a schedule"))
}
