// Package export renders report rows as CSV, JSON or an XLSX workbook. Each
// writer consumes the same flat record produced by Record.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts json, csv or xlsx (case-insensitive). An empty string
// means JSON.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", raw)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json; charset=utf-8"
}

// Header is the column order shared by every format.
var Header = []string{"Folio", "Date", "Client", "Room ID", "Room", "Capacity", "Shift", "Event"}

// Record flattens a report row in Header order.
func Record(r model.ReportRow) []string {
	return []string{
		strconv.FormatInt(r.Folio, 10),
		model.FormatDate(r.Date),
		r.ClientName,
		strconv.FormatInt(r.RoomID, 10),
		r.RoomName,
		strconv.Itoa(r.RoomCapacity),
		r.Shift.String(),
		r.EventName,
	}
}

// WriteCSV writes a header line followed by one line per row.
func WriteCSV(w io.Writer, rows []model.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(Record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row is the JSON shape of a report row.
type Row struct {
	Folio        int64  `json:"folio"`
	Date         string `json:"date"`
	ClientName   string `json:"client"`
	RoomID       int64  `json:"room_id"`
	RoomName     string `json:"room"`
	RoomCapacity int    `json:"capacity"`
	Shift        string `json:"shift"`
	EventName    string `json:"event_name"`
}

// Report is the JSON document served for a report.
type Report struct {
	Title string `json:"title"`
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
	Rows  []Row  `json:"rows"`
}

// NewReport builds the JSON document for rows dated within [from, to].
func NewReport(title string, from, to time.Time, rows []model.ReportRow) Report {
	out := Report{
		Title: title,
		From:  model.FormatDate(from),
		To:    model.FormatDate(to),
		Count: len(rows),
		Rows:  make([]Row, 0, len(rows)),
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, Row{
			Folio:        r.Folio,
			Date:         model.FormatDate(r.Date),
			ClientName:   r.ClientName,
			RoomID:       r.RoomID,
			RoomName:     r.RoomName,
			RoomCapacity: r.RoomCapacity,
			Shift:        r.Shift.String(),
			EventName:    r.EventName,
		})
	}
	return out
}

// WriteJSON encodes rep with two-space indentation.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// Title names a report covering [from, to].
func Title(from, to time.Time) string {
	if from.Equal(to) {
		return "Reservations " + model.FormatDate(from)
	}
	return "Reservations " + model.FormatDate(from) + " to " + model.FormatDate(to)
}
