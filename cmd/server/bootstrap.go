package main

import (
	"github.com/shopfloor/board/backend/internal/config"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/internal/services"
	"github.com/shopfloor/board/backend/internal/utils"
	"github.com/shopfloor/board/backend/pkg/logger"
)

// appServices holds all initialized services needed by the application.
type appServices struct {
	cfg           *config.Config
	holidays      *services.HolidayService
	sprintService *services.SprintService
	issueService  *services.IssueService
	sprintWatcher *services.SprintWatcher
	taskQueue     services.TaskQueue
	worker        *services.Worker
}

// openStore connects, migrates and seeds the database.
func openStore(cfg *config.Config) {
	if err := models.InitDB(&cfg.Database, cfg.Server.Mode); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(models.GetDB(), cfg.Log.RetentionDays); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	openStore(cfg)
	db := models.GetDB()

	// Initialize system logger
	services.InitSystemLogger(db)

	holidays := services.NewHolidayService()
	country := cfg.Board.HolidayCountry
	if !holidays.IsSupported(country) {
		logger.Warn().Str("country", country).Msg("Unsupported holiday country, counting weekdays only")
		country = "NONE"
	}

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(services.RecordTransition)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		worker.SetProcessor(services.RecordTransition)
		if err := worker.Start(); err != nil {
			logger.Error().Err(err).Msg("Failed to start activity worker")
			worker = nil
		}
	}

	sprintService := services.NewSprintService(db, holidays, country)
	sprintWatcher := services.NewSprintWatcher(db, sprintService)
	if err := sprintWatcher.Start(cfg.Board.SprintWatchCron); err != nil {
		logger.Error().Err(err).Msg("Failed to start sprint watcher")
	}

	return &appServices{
		cfg:           cfg,
		holidays:      holidays,
		sprintService: sprintService,
		issueService:  services.NewIssueService(db, taskQueue),
		sprintWatcher: sprintWatcher,
		taskQueue:     taskQueue,
		worker:        worker,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.sprintWatcher.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
