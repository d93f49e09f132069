package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                             // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp" // Prometheus scrape handler

	"github.com/iliyamo/eventify/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not require authentication:
// liveness, readiness and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers unauthenticated browse endpoints.  The
// optional cache middleware is applied to the event detail only; the
// remaining stock it reports may lag by at most the cache TTL.
func RegisterPublic(e *echo.Echo, h *handler.EventHandler, cache echo.MiddlewareFunc) {
	if cache == nil {
		e.GET("/events/:id", h.GetEvent)
		return
	}
	e.GET("/events/:id", h.GetEvent, cache)
}
