package service

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// ReportForDate returns the active reservations on date, by folio. An empty
// result is not an error.
func (l *Ledger) ReportForDate(ctx context.Context, date time.Time) ([]model.ReportRow, error) {
	date = model.Day(date)
	rows, err := l.store.ReportRows(ctx, date, date)
	if err != nil {
		return nil, storageErr("report for date", err)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Folio < rows[j].Folio })
	return nonNil(rows), nil
}

// ReportForRange returns the active reservations with start <= date <= end,
// ordered by (date, folio).
func (l *Ledger) ReportForRange(ctx context.Context, start, end time.Time) ([]model.ReportRow, error) {
	start, end = model.Day(start), model.Day(end)
	if start.After(end) {
		return nil, model.ErrInvalidRange
	}
	rows, err := l.store.ReportRows(ctx, start, end)
	if err != nil {
		return nil, storageErr("report for range", err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Folio < rows[j].Folio
	})
	return nonNil(rows), nil
}

func nonNil(rows []model.ReportRow) []model.ReportRow {
	if rows == nil {
		return []model.ReportRow{}
	}
	return rows
}
