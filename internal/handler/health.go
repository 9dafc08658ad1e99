package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// Health is the liveness probe. Besides "ok" it reports the calendar the
// booking rules currently run against, which is handy when a date is
// rejected as too soon.
func (h *Handler) Health(c echo.Context) error {
	p := h.Ledger.Policy()
	return c.JSON(http.StatusOK, echo.Map{
		"status":           "ok",
		"today":            model.FormatDate(p.Today()),
		"earliest_booking": model.FormatDate(p.Earliest()),
		"lead_days":        p.LeadDays(),
	})
}
