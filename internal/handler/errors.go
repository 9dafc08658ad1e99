package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// Error codes returned in the "code" field besides the validation kinds.
const (
	codeInvalidBody          = "invalid_body"
	codeClientNotFound       = "client_not_found"
	codeRoomNotFound         = "room_not_found"
	codeReservationNotFound  = "reservation_not_found"
	codeNotFound             = "not_found"
	codeRoomNameTaken        = "room_name_taken"
	codeSlotTaken            = "slot_taken"
	codeConflict             = "conflict"
	codeCancellationTooLate  = "cancellation_too_late"
	codeReservationCancelled = "reservation_cancelled"
	codeInvalidRange         = "invalid_range"
	codeInvalidFormat        = "invalid_format"
	codeStorageUnavailable   = "storage_unavailable"
	codeInternal             = "internal_error"
)

// errorStatus maps a ledger error to an HTTP status and code.
func errorStatus(err error) (int, string) {
	if ve, ok := model.AsValidation(err); ok {
		if ve.Kind == model.KindSundayRequiresSub {
			return http.StatusConflict, string(ve.Kind)
		}
		return http.StatusBadRequest, string(ve.Kind)
	}
	switch {
	case errors.Is(err, model.ErrClientNotFound):
		return http.StatusNotFound, codeClientNotFound
	case errors.Is(err, model.ErrRoomNotFound):
		return http.StatusNotFound, codeRoomNotFound
	case errors.Is(err, model.ErrReservationNotFound):
		return http.StatusNotFound, codeReservationNotFound
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, model.ErrRoomNameTaken):
		return http.StatusConflict, codeRoomNameTaken
	case errors.Is(err, model.ErrSlotTaken):
		return http.StatusConflict, codeSlotTaken
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, codeConflict
	case errors.Is(err, model.ErrReservationCancelled):
		return http.StatusConflict, codeReservationCancelled
	case errors.Is(err, model.ErrCancellationTooLate):
		return http.StatusUnprocessableEntity, codeCancellationTooLate
	case errors.Is(err, model.ErrInvalidRange):
		return http.StatusBadRequest, codeInvalidRange
	case model.IsStorage(err):
		return http.StatusServiceUnavailable, codeStorageUnavailable
	}
	return http.StatusInternalServerError, codeInternal
}

// fail writes err as JSON. Only server-side failures are logged; the rest
// are caller mistakes.
func (h *Handler) fail(c echo.Context, err error) error {
	status, code := errorStatus(err)
	body := echo.Map{"error": err.Error(), "code": code}
	if ve, ok := model.AsValidation(err); ok && ve.Field != "" {
		body["field"] = ve.Field
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			body["error"] = "internal error"
		} else {
			body["error"] = "storage unavailable"
		}
	}
	return c.JSON(status, body)
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "code": codeInvalidBody})
}
