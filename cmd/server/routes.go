package main

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfloor/board/backend/internal/handlers"
	"github.com/shopfloor/board/backend/internal/middleware"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/internal/services"
	"github.com/shopfloor/board/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Board writes are rate limited per session user
	limiter := middleware.NewRateLimiter(svc.cfg.Board.MutationRateLimit, svc.cfg.Board.MutationRateBurst)

	// Health check
	healthHandler := handlers.NewHealthHandler(models.GetDB())
	r.GET("/health", healthHandler.CheckHealth)

	authHandler := handlers.NewAuthHandler(models.GetDB())
	projectHandler := handlers.NewProjectHandler(models.GetDB())
	sprintHandler := handlers.NewSprintHandler(svc.sprintService)
	issueHandler := handlers.NewIssueHandler(svc.issueService)
	calendarHandler := handlers.NewCalendarHandler(svc.holidays, svc.sprintService.Country())
	systemLogHandler := handlers.NewSystemLogHandler(models.GetDB())
	systemConfigHandler := handlers.NewSystemConfigHandler(models.GetDB(), svc.cfg.Board.OperatorOrg)

	// Board events authenticate inside the handler; EventSource cannot send headers
	sseHandler := handlers.NewSSEHandler(services.GetSSEHub())
	r.GET("/api/events/board", sseHandler.StreamBoardEvents)

	api := r.Group("/api")
	api.Use(middleware.SessionRequired(), limiter.Mutations(), middleware.AuditLog())
	{
		// Auth
		api.POST("/auth/sync", authHandler.Sync)
		api.GET("/auth/me", authHandler.Me)

		// Projects (read for all members)
		api.GET("/projects", projectHandler.List)
		api.GET("/projects/:id", projectHandler.GetByID)

		// Sprints
		api.GET("/projects/:id/sprints", sprintHandler.List)
		api.POST("/projects/:id/sprints", sprintHandler.Create)
		api.PATCH("/sprints/:id/status", sprintHandler.UpdateStatus)
		api.GET("/sprints/:id/summary", sprintHandler.Summary)

		// Issues
		api.POST("/projects/:id/issues", issueHandler.Create)
		api.GET("/sprints/:id/issues", issueHandler.ListForSprint)
		api.GET("/issues/mine", issueHandler.ListMine)
		api.PUT("/issues/order", issueHandler.UpdateOrder)
		api.POST("/issues/:id/move", issueHandler.Move)
		api.GET("/issues/:id/track", issueHandler.Track)
		api.PUT("/issues/:id", issueHandler.Update)
		api.DELETE("/issues/:id", issueHandler.Delete)

		// Calendars
		api.GET("/calendar/countries", calendarHandler.Countries)
	}

	// Admin only routes
	admin := api.Group("")
	admin.Use(middleware.AdminRequired())
	{
		admin.POST("/projects", projectHandler.Create)
		admin.DELETE("/projects/:id", projectHandler.Delete)
		admin.GET("/activity", systemLogHandler.List)
		admin.GET("/settings", systemConfigHandler.GetBoardSettings)
		admin.PUT("/settings", systemConfigHandler.UpdateBoardSettings)
	}
}
