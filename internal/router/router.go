// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation-ledger/internal/handler"
)

// RegisterRoutes registers routes that sit outside the versioned API.
func RegisterRoutes(e *echo.Echo, h *handler.Handler) {
	// liveness probe for load balancers; never rate limited or cached
	e.GET("/healthz", h.Health)
}

// RegisterV1 mounts the ledger API under /v1. The middleware (rate limit,
// cache invalidation, response cache) applies to every /v1 route, in the
// order given.
func RegisterV1(e *echo.Echo, h *handler.Handler, mw ...echo.MiddlewareFunc) *echo.Group {
	g := e.Group("/v1", mw...)

	g.POST("/clients", h.CreateClient)
	g.GET("/clients", h.ListClients)

	g.POST("/rooms", h.CreateRoom)
	g.GET("/rooms", h.ListRooms)

	g.GET("/shifts", h.ListShifts)
	g.GET("/availability", h.Availability)

	registerReservations(g, h)
	registerReports(g, h)
	return g
}
