package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation-ledger/internal/export"
	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// DailyReport handles GET /v1/reports/daily?date=&format=json|csv|xlsx.
func (h *Handler) DailyReport(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": codeInvalidFormat})
	}
	date, err := dateParam("date", c.QueryParam("date"))
	if err != nil {
		return h.fail(c, err)
	}
	rows, err := h.Ledger.ReportForDate(c.Request().Context(), date)
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, format, date, date, rows)
}

// RangeReport handles GET /v1/reports/range?start=&end=&format=.
func (h *Handler) RangeReport(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": codeInvalidFormat})
	}
	start, err := dateParam("start", c.QueryParam("start"))
	if err != nil {
		return h.fail(c, err)
	}
	end, err := dateParam("end", c.QueryParam("end"))
	if err != nil {
		return h.fail(c, err)
	}
	rows, err := h.Ledger.ReportForRange(c.Request().Context(), start, end)
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, format, start, end, rows)
}

func (h *Handler) render(c echo.Context, format export.Format, from, to time.Time, rows []model.ReportRow) error {
	title := export.Title(from, to)
	switch format {
	case export.FormatCSV:
		c.Response().Header().Set(echo.HeaderContentType, format.ContentType())
		c.Response().Header().Set(echo.HeaderContentDisposition, attachment(from, to, "csv"))
		c.Response().WriteHeader(http.StatusOK)
		return export.WriteCSV(c.Response(), rows)
	case export.FormatXLSX:
		data, err := export.XLSX(title, rows)
		if err != nil {
			return h.fail(c, err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, attachment(from, to, "xlsx"))
		return c.Blob(http.StatusOK, format.ContentType(), data)
	}
	return c.JSON(http.StatusOK, export.NewReport(title, from, to, rows))
}

func attachment(from, to time.Time, ext string) string {
	name := "reservations_" + model.FormatDate(from)
	if !from.Equal(to) {
		name += "_" + model.FormatDate(to)
	}
	return `attachment; filename="` + name + "." + ext + `"`
}
