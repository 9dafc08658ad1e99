package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
	"github.com/iliyamo/room-reservation-ledger/internal/service"
)

// shiftParam accepts a shift as its name ("Evening") or code (3 or "3").
type shiftParam string

func (s *shiftParam) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = shiftParam(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = shiftParam(n.String())
	return nil
}

type createReservationRequest struct {
	ClientID           int64      `json:"client_id"`
	RoomID             int64      `json:"room_id"`
	Date               string     `json:"date"`
	Shift              shiftParam `json:"shift"`
	EventName          string     `json:"event_name"`
	AcceptSubstitution *bool      `json:"accept_substitution"`
}

// CreateReservation handles POST /v1/reservations.
//
// The date goes through every booking rule. When it falls on a Sunday the
// caller must decide on the proposed Monday: without accept_substitution
// the request is answered with 409 and proposed_date, false rejects the
// date (400 substitution_declined) and true books the Monday.
func (h *Handler) CreateReservation(c echo.Context) error {
	var body createReservationRequest
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	if body.ClientID <= 0 {
		return h.fail(c, model.Invalid(model.KindInvalidID, "client_id", "client_id must be a positive integer"))
	}
	if body.RoomID <= 0 {
		return h.fail(c, model.Invalid(model.KindInvalidID, "room_id", "room_id must be a positive integer"))
	}
	shift, err := model.ParseShift(string(body.Shift))
	if err != nil {
		return h.fail(c, err)
	}

	cand, err := h.Ledger.Policy().ParseBookingDate(body.Date)
	if err != nil {
		return h.fail(c, err)
	}
	if cand.NeedsDecision() && body.AcceptSubstitution == nil {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":         "Sundays cannot be booked; confirm the proposed Monday with accept_substitution",
			"code":          string(model.KindSundayRequiresSub),
			"field":         "date",
			"proposed_date": model.FormatDate(cand.Substitute),
		})
	}
	accept := body.AcceptSubstitution != nil && *body.AcceptSubstitution
	date, err := cand.Resolve(accept)
	if err != nil {
		return h.fail(c, err)
	}

	res, err := h.Ledger.CreateReservation(c.Request().Context(), service.CreateReservationInput{
		ClientID:  body.ClientID,
		RoomID:    body.RoomID,
		Date:      date,
		Shift:     shift,
		EventName: body.EventName,
	})
	if err != nil {
		return h.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderLocation, "/v1/reservations/"+strconv.FormatInt(res.Folio, 10))
	return c.JSON(http.StatusCreated, newReservationView(res))
}

// GetReservation handles GET /v1/reservations/:folio. Cancelled
// reservations are returned too, with active=false.
func (h *Handler) GetReservation(c echo.Context) error {
	folio, err := folioParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.Ledger.Reservation(c.Request().Context(), folio)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newReservationView(res))
}

// RenameReservation handles PATCH /v1/reservations/:folio with
// {"event_name"}.
func (h *Handler) RenameReservation(c echo.Context) error {
	folio, err := folioParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	var body struct {
		EventName *string `json:"event_name"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	if body.EventName == nil || strings.TrimSpace(*body.EventName) == "" {
		return h.fail(c, model.Invalid(model.KindInvalidEventName, "event_name", "event_name is required"))
	}
	res, err := h.Ledger.RenameEvent(c.Request().Context(), folio, *body.EventName)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newReservationView(res))
}

// CancelReservation handles DELETE /v1/reservations/:folio. The row is kept
// with active=false and returned.
func (h *Handler) CancelReservation(c echo.Context) error {
	folio, err := folioParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.Ledger.CancelReservation(c.Request().Context(), folio)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newReservationView(res))
}
