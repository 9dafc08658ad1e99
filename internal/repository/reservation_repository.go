package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// ReservationRepo reads and writes the reservations table. The unique key
// over (room_id, reserved_on, shift_id, active_slot) is what finally keeps
// two active reservations out of one slot; SlotTaken is only the early,
// friendlier check.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `folio, client_id, room_id, reserved_on, shift_id, event_name, active, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }, res *model.Reservation) error {
	if err := row.Scan(&res.Folio, &res.ClientID, &res.RoomID, &res.Date, &res.Shift,
		&res.EventName, &res.Active, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return err
	}
	res.Date = model.Day(res.Date)
	return nil
}

// Create inserts res as active, then reads the row back so Folio and the
// timestamps reflect what the database assigned.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	q := conn(ctx, r.db)
	const qInsert = `INSERT INTO reservations (client_id, room_id, reserved_on, shift_id, event_name, active)
                     VALUES (?, ?, ?, ?, ?, 1)`
	result, err := q.ExecContext(ctx, qInsert,
		res.ClientID, res.RoomID, sqlDate(res.Date), uint8(res.Shift), res.EventName)
	if err != nil {
		if isDuplicateKey(err) {
			return model.ErrSlotTaken
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	const qSelect = `SELECT ` + reservationColumns + ` FROM reservations WHERE folio = ?`
	return scanReservation(q.QueryRowContext(ctx, qSelect, id), res)
}

// GetByFolio loads one reservation. Inside a transaction the row is locked
// until commit so cancel and rename see a stable state.
func (r *ReservationRepo) GetByFolio(ctx context.Context, folio int64) (model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE folio = ?`
	if _, ok := txFromContext(ctx); ok {
		q += ` FOR UPDATE`
	}
	var res model.Reservation
	if err := scanReservation(conn(ctx, r.db).QueryRowContext(ctx, q, folio), &res); err != nil {
		return model.Reservation{}, notFound(err, model.ErrReservationNotFound)
	}
	return res, nil
}

// SetActive flips the active flag. Re-activating a reservation whose slot
// has since been taken fails with model.ErrSlotTaken.
func (r *ReservationRepo) SetActive(ctx context.Context, folio int64, active bool) error {
	const q = `UPDATE reservations SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE folio = ?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, active, folio)
	if err != nil {
		if isDuplicateKey(err) {
			return model.ErrSlotTaken
		}
		return err
	}
	return r.requireRow(ctx, res, folio)
}

// Rename replaces the event name.
func (r *ReservationRepo) Rename(ctx context.Context, folio int64, eventName string) error {
	const q = `UPDATE reservations SET event_name = ?, updated_at = CURRENT_TIMESTAMP WHERE folio = ?`
	res, err := conn(ctx, r.db).ExecContext(ctx, q, eventName, folio)
	if err != nil {
		return err
	}
	return r.requireRow(ctx, res, folio)
}

// requireRow turns "0 rows affected" into model.ErrReservationNotFound.
// MySQL reports 0 for an UPDATE that changes nothing, so an existence check
// disambiguates before giving up.
func (r *ReservationRepo) requireRow(ctx context.Context, res sql.Result, folio int64) error {
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	const q = `SELECT 1 FROM reservations WHERE folio = ?`
	var one int
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, folio).Scan(&one); err != nil {
		return notFound(err, model.ErrReservationNotFound)
	}
	return nil
}

// SlotTaken reports whether an active reservation holds slot. Inside a
// transaction the index range is locked so a concurrent admission for the
// same slot waits for this one to finish.
func (r *ReservationRepo) SlotTaken(ctx context.Context, slot model.SlotKey) (bool, error) {
	q := `SELECT COUNT(*) FROM reservations
          WHERE room_id = ? AND reserved_on = ? AND shift_id = ? AND active_slot = 1`
	if _, ok := txFromContext(ctx); ok {
		q += ` FOR UPDATE`
	}
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx, q, slot.RoomID, sqlDate(slot.Date), uint8(slot.Shift)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ActiveSlotsOn lists the (room, shift) pairs booked on date.
func (r *ReservationRepo) ActiveSlotsOn(ctx context.Context, date time.Time) ([]model.SlotKey, error) {
	const q = `SELECT room_id, shift_id FROM reservations
               WHERE reserved_on = ? AND active = 1
               ORDER BY room_id, shift_id`
	day := model.Day(date)
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, sqlDate(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SlotKey
	for rows.Next() {
		k := model.SlotKey{Date: day}
		if err := rows.Scan(&k.RoomID, &k.Shift); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
