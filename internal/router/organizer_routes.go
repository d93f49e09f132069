package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventify/internal/handler"
	"github.com/iliyamo/eventify/internal/middleware"
	"github.com/iliyamo/eventify/internal/model"
)

// RegisterOrganizer registers event management endpoints under
// /organizer.  Super admins may act on any event.
func RegisterOrganizer(e *echo.Echo, h *handler.EventHandler, jwtSecret string) {
	g := e.Group(
		"/organizer",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOrganizer, model.RoleSuperAdmin),
	)
	g.POST("/events", h.CreateEvent)
	g.PATCH("/events/:id/publish", h.PublishEvent)
	g.GET("/events/:id/bookings", h.EventBookings)
}
