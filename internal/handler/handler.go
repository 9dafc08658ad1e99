// Package handler exposes the ledger over HTTP. Handlers parse raw request
// values, run dates through the date policy and translate ledger errors into
// JSON responses of the form {"error": message, "code": snake_case_code}.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
	"github.com/iliyamo/room-reservation-ledger/internal/service"
)

// Handler bundles the ledger and the logger every endpoint needs.
type Handler struct {
	Ledger *service.Ledger
	Logger *zap.Logger
}

// New constructs a Handler. A nil logger is replaced by a no-op one.
func New(ledger *service.Ledger, logger *zap.Logger) *Handler {
	if ledger == nil {
		panic("nil ledger passed to handler.New")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Ledger: ledger, Logger: logger}
}

// folioParam reads the :folio path parameter.
func folioParam(c echo.Context) (int64, error) {
	folio, err := strconv.ParseInt(c.Param("folio"), 10, 64)
	if err != nil || folio <= 0 {
		return 0, model.Invalid(model.KindInvalidID, "folio", "folio must be a positive integer")
	}
	return folio, nil
}
