package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studysync/studysync-api/internal/middleware"
	"github.com/studysync/studysync-api/internal/service"
)

// Handlers groups every HTTP handler for route registration.
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Group        *GroupHandler
	Schedule     *ScheduleHandler
	Availability *AvailabilityHandler
	Chat         *ChatHandler
	Checklist    *ChecklistHandler
	Export       *ExportHandler
	Metrics      *MetricsHandler
}

// RegisterRoutes mounts all API routes under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, authService *service.AuthService, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	{
		protected.POST("/auth/logout", h.Auth.Logout)
		protected.POST("/auth/change-password", h.Auth.ChangePassword)
		protected.GET("/auth/me", h.Auth.Me)

		protected.GET("/users", h.User.List)
		protected.GET("/users/:id", h.User.Get)
		protected.PUT("/users/me", h.User.UpdateProfile)
		protected.DELETE("/users/me", h.User.Deactivate)

		protected.POST("/groups", h.Group.Create)
		protected.GET("/groups", h.Group.List)
		protected.GET("/groups/:id", h.Group.Get)
		protected.PUT("/groups/:id", h.Group.Update)
		protected.DELETE("/groups/:id", h.Group.Delete)
		protected.POST("/groups/:id/join", h.Group.Join)
		protected.POST("/groups/:id/leave", h.Group.Leave)
		protected.GET("/groups/:id/members", h.Group.Members)

		protected.GET("/schedule", h.Schedule.Get)
		protected.PUT("/schedule", h.Schedule.Submit)
		protected.DELETE("/schedule", h.Schedule.Delete)
		protected.POST("/schedule/import", h.Schedule.Import)

		protected.POST("/groups/:id/optimal-times", h.Availability.OptimalTimes)

		protected.POST("/groups/:id/messages", h.Chat.Post)
		protected.GET("/groups/:id/messages", h.Chat.History)

		protected.POST("/checklists", h.Checklist.Create)
		protected.GET("/checklists", h.Checklist.List)
		protected.DELETE("/checklists/:id", h.Checklist.Delete)
		protected.POST("/checklists/:id/items", h.Checklist.AddItem)
		protected.GET("/checklists/:id/items", h.Checklist.Items)
		protected.PATCH("/checklists/:id/items/:itemId", h.Checklist.ToggleItem)
		protected.DELETE("/checklists/:id/items/:itemId", h.Checklist.DeleteItem)

		protected.POST("/groups/:id/exports", h.Export.Create)
		protected.GET("/groups/:id/exports", h.Export.List)
		protected.GET("/exports/jobs/:id", h.Export.Status)

		protected.GET("/metrics/summary", h.Metrics.Snapshot)
	}

	// Download auth rides on the signed token, not the JWT, so briefs can be
	// fetched from contexts without an Authorization header.
	api.GET("/exports/download/:token", h.Export.Download)
}
