package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// ReportRepo runs the read-only joins behind the reporting projection.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo constructs a ReportRepo with the given DB handle.
func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Rows returns active reservations dated within [start, end] joined with
// their client and room, ordered by date then folio.
func (r *ReportRepo) Rows(ctx context.Context, start, end time.Time) ([]model.ReportRow, error) {
	const q = `SELECT r.folio, r.reserved_on, c.first_name, c.last_name,
                      rm.id, rm.name, rm.capacity, r.shift_id, r.event_name
               FROM reservations r
               JOIN clients c ON c.id = r.client_id
               JOIN rooms rm ON rm.id = r.room_id
               WHERE r.active = 1 AND r.reserved_on BETWEEN ? AND ?
               ORDER BY r.reserved_on, r.folio`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, sqlDate(start), sqlDate(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReportRow
	for rows.Next() {
		var (
			row model.ReportRow
			c   model.Client
		)
		if err := rows.Scan(&row.Folio, &row.Date, &c.FirstName, &c.LastName,
			&row.RoomID, &row.RoomName, &row.RoomCapacity, &row.Shift, &row.EventName); err != nil {
			return nil, err
		}
		row.Date = model.Day(row.Date)
		row.ClientName = c.DisplayName()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
