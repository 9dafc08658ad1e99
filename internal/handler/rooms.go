package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// CreateRoom handles POST /v1/rooms with {"name", "capacity"}.
func (h *Handler) CreateRoom(c echo.Context) error {
	var body struct {
		Name     string `json:"name"`
		Capacity int    `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	room, err := h.Ledger.RegisterRoom(c.Request().Context(), body.Name, body.Capacity)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, newRoomView(room))
}

func (h *Handler) ListRooms(c echo.Context) error {
	rooms, err := h.Ledger.Rooms(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]roomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, newRoomView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

// ListShifts handles GET /v1/shifts: the fixed shift catalogue.
func (h *Handler) ListShifts(c echo.Context) error {
	out := make([]shiftView, 0, 3)
	for _, s := range model.Shifts() {
		out = append(out, newShiftView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"shifts": out})
}
