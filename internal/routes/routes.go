package routes

import (
	"github.com/arnold/goalgraph-api/internal/handlers"
	"github.com/arnold/goalgraph-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(app *fiber.App, h *handlers.API) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)

	protected := api.Group("/", middleware.Protected(h.JWTSecret))

	protected.Get("/me", h.GetMe)

	goals := protected.Group("/goals")
	goals.Get("/", h.GetGoalTree)
	goals.Post("/", h.CreateGoal)
	goals.Get("/:id", h.GetGoal)
	goals.Put("/:id", h.UpdateGoal)
	goals.Delete("/:id", h.DeleteGoal)
	goals.Get("/:id/hierarchy", h.GetGoalHierarchy)

	// Parent/child links
	goals.Post("/:id/children", h.AddChild)
	goals.Delete("/:id/children/:childId", h.RemoveChild)

	// Weekly check-ins
	goals.Get("/:id/check-ins", h.ListCheckIns)
	goals.Post("/:id/check-ins", h.RecordCheckIn)
	goals.Get("/:id/chart", h.GetProgressChart)
	protected.Post("/check-ins/bulk", h.BulkCheckIn)

	// Outline import
	protected.Post("/outlines/parse", h.ParseOutline)
	protected.Post("/outlines/import", h.ImportOutline)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", h.GetNotifications)
	notifications.Put("/:id/read", h.MarkNotificationRead)
	notifications.Post("/read-all", h.MarkAllRead)

	// Device token for push notifications
	protected.Post("/device-token", h.RegisterDeviceToken)

	// WebSocket for real-time goal updates
	if h.Hub != nil {
		app.Get("/ws/goals/:id", h.Hub.Upgrade(h.JWTSecret), websocket.New(h.Hub.HandleWebSocket))
	}
}
