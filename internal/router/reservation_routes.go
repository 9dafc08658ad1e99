package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation-ledger/internal/handler"
)

// registerReservations wires the reservation lifecycle. Reservations are
// never deleted: DELETE cancels and keeps the row.
func registerReservations(g *echo.Group, h *handler.Handler) {
	g.POST("/reservations", h.CreateReservation)
	g.GET("/reservations/:folio", h.GetReservation)
	g.PATCH("/reservations/:folio", h.RenameReservation)
	g.DELETE("/reservations/:folio", h.CancelReservation)
}

func registerReports(g *echo.Group, h *handler.Handler) {
	g.GET("/reports/daily", h.DailyReport)
	g.GET("/reports/range", h.RangeReport)
}
