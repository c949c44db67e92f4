package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	lockSprintWatch = "sprint_watch"
	lockLogCleanup  = "log_cleanup"
	logCleanupSpec  = "30 3 * * *"
)

// SprintWatcher runs the periodic board jobs: it reports ACTIVE sprints that
// are past their end date and applies the activity log retention. Each slot
// runs on one instance only, guarded by a scheduler lock row.
type SprintWatcher struct {
	db       *gorm.DB
	sprints  *SprintService
	logs     *SystemLogService
	configs  *SystemConfigService
	instance string
	now      func() time.Time

	cronScheduler *cron.Cron
}

func NewSprintWatcher(db *gorm.DB, sprints *SprintService) *SprintWatcher {
	host, _ := os.Hostname()
	return &SprintWatcher{
		db:       db,
		sprints:  sprints,
		logs:     NewSystemLogService(db),
		configs:  NewSystemConfigService(db),
		instance: host + "-" + uuid.NewString()[:8],
		now:      time.Now,
	}
}

// Start schedules the overdue check at watchSpec and the daily log cleanup.
func (w *SprintWatcher) Start(watchSpec string) error {
	w.cronScheduler = cron.New()

	if _, err := w.cronScheduler.AddFunc(watchSpec, func() {
		if _, err := w.CheckOverdue(); err != nil {
			logger.Error().Err(err).Msg("[SprintWatcher] overdue check failed")
		}
	}); err != nil {
		return fmt.Errorf("sprint watch schedule %q: %w", watchSpec, err)
	}

	if _, err := w.cronScheduler.AddFunc(logCleanupSpec, func() {
		if w.acquire(lockLogCleanup, w.now().UTC().Format("2006-01-02"), 24*time.Hour) {
			w.logs.RunCleanup()
		}
	}); err != nil {
		return err
	}

	w.cronScheduler.Start()
	logger.Info().Str("schedule", watchSpec).Msg("[SprintWatcher] started")
	return nil
}

func (w *SprintWatcher) Stop() {
	if w.cronScheduler != nil {
		<-w.cronScheduler.Stop().Done()
	}
}

// CheckOverdue logs one warning per overdue sprint and returns how many it
// reported. Sprint state is never changed; completing a sprint stays manual.
func (w *SprintWatcher) CheckOverdue() (int, error) {
	if !w.configs.GetBool("sprint_watch_enabled", true) {
		return 0, nil
	}

	now := w.now()
	if !w.acquire(lockSprintWatch, now.UTC().Format("2006-01-02T15"), time.Hour) {
		return 0, nil
	}

	sprints, err := w.sprints.OverdueSprints(now)
	if err != nil {
		return 0, err
	}

	for _, sprint := range sprints {
		scope := LogScope{}
		key := ""
		if sprint.Project != nil {
			scope.OrganizationID = sprint.Project.OrganizationID
			key = sprint.Project.Key
		}
		LogWarning("Sprints", "Overdue",
			fmt.Sprintf("Sprint %s in %s ended %s and is still active", sprint.Name, key, sprint.EndDate.Format("2006-01-02")),
			scope, map[string]interface{}{
				"sprint_id": sprint.ID,
				"end_date":  sprint.EndDate,
			})
	}
	if len(sprints) > 0 {
		logger.Warn().Int("count", len(sprints)).Msg("[SprintWatcher] overdue sprints")
	}
	return len(sprints), nil
}

// acquire claims the (name, key) slot. It returns false when another instance
// already holds it.
func (w *SprintWatcher) acquire(name, key string, ttl time.Duration) bool {
	now := w.now()
	w.db.Where("expires_at < ?", now).Delete(&models.SchedulerLock{})

	lock := models.SchedulerLock{
		LockName:  name,
		LockKey:   key,
		LockedBy:  w.instance,
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := w.db.Create(&lock).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Warn().Err(err).Str("lock", name).Msg("[SprintWatcher] failed to acquire lock")
		}
		return false
	}
	return true
}
