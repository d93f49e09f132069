package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventify/internal/handler"
	"github.com/iliyamo/eventify/internal/middleware"
	"github.com/iliyamo/eventify/internal/model"
)

// RegisterTicket registers purchaser endpoints under /ticket.  All
// routes require a valid JWT and the USER role.  The limiter, when
// given, guards the booking endpoint only.
func RegisterTicket(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/ticket",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser),
	)
	if limiter != nil {
		g.POST("/book-ticket", h.BookTicket, limiter)
	} else {
		g.POST("/book-ticket", h.BookTicket)
	}
	g.POST("/cancel-booking/:bookingId", h.CancelBooking)
	g.GET("/my-bookings", h.MyBookings)
	g.GET("/bookings/:bookingId", h.GetBooking)
	g.POST("/simulate-payment/:bookingId", h.SimulatePayment)
}

// RegisterSuperAdmin registers the administrative booking endpoints.
// Organizers may update the status of bookings for their own events;
// the ownership check happens in the service.
func RegisterSuperAdmin(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/super-admin/ticket", middleware.JWTAuth(jwtSecret))
	g.PATCH("/update-booking-status/:bookingId", h.UpdateBookingStatus,
		middleware.RequireRole(model.RoleSuperAdmin, model.RoleOrganizer))
	g.POST("/cancel-booking/:bookingId", h.CancelBooking,
		middleware.RequireRole(model.RoleSuperAdmin))
	g.GET("/bookings/:bookingId", h.GetBooking,
		middleware.RequireRole(model.RoleSuperAdmin, model.RoleOrganizer))
}
