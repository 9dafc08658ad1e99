package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation-ledger/internal/datepolicy"
	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// Availability handles GET /v1/availability?date=DD-MM-YYYY and lists the
// free (room, shift) pairs of that date.
func (h *Handler) Availability(c echo.Context) error {
	date, err := dateParam("date", c.QueryParam("date"))
	if err != nil {
		return h.fail(c, err)
	}
	slots, err := h.Ledger.AvailableSlots(c.Request().Context(), date)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]slotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotView{RoomID: s.RoomID, RoomName: s.RoomName, Capacity: s.Capacity, Shift: newShiftView(s.Shift)})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": model.FormatDate(date), "slots": out})
}

// dateParam parses a DD-MM-YYYY query value and names the offending
// parameter in validation errors.
func dateParam(name, raw string) (t time.Time, err error) {
	t, err = datepolicy.ParseDate(raw)
	if ve, ok := model.AsValidation(err); ok {
		return t, model.Invalid(ve.Kind, name, ve.Message)
	}
	return t, err
}
