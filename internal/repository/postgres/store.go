// Package postgres is the PostgreSQL implementation of the Entity Store,
// built on pgx. The schema enforces the single-active-reservation rule with
// a partial unique index (WHERE active); folios come from an identity column
// that starts at 1001.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

const maxTxAttempts = 3

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx replays fn when Postgres reports a deadlock or serialization
// failure on the outermost transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = withTx(ctx, s.pool, fn)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (s *Store) CreateClient(ctx context.Context, c *model.Client) error {
	const query = `
INSERT INTO clients (first_name, last_name)
VALUES ($1, $2)
RETURNING id, created_at`
	if err := s.queryRow(ctx, query, c.FirstName, c.LastName).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, id int64) (model.Client, error) {
	const query = `SELECT id, first_name, last_name, created_at FROM clients WHERE id = $1`
	var c model.Client
	err := s.queryRow(ctx, query, id).Scan(&c.ID, &c.FirstName, &c.LastName, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Client{}, model.ErrClientNotFound
		}
		return model.Client{}, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]model.Client, error) {
	const query = `
SELECT id, first_name, last_name, created_at
FROM clients
ORDER BY last_name, first_name, id`
	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

func (s *Store) CreateRoom(ctx context.Context, r *model.Room) error {
	const query = `
INSERT INTO rooms (name, capacity)
VALUES ($1, $2)
RETURNING id, created_at`
	if err := s.queryRow(ctx, query, r.Name, r.Capacity).Scan(&r.ID, &r.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return model.ErrRoomNameTaken
		}
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id int64) (model.Room, error) {
	const query = `SELECT id, name, capacity, created_at FROM rooms WHERE id = $1`
	var r model.Room
	err := s.queryRow(ctx, query, id).Scan(&r.ID, &r.Name, &r.Capacity, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Room{}, model.ErrRoomNotFound
		}
		return model.Room{}, fmt.Errorf("get room: %w", err)
	}
	return r, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]model.Room, error) {
	const query = `SELECT id, name, capacity, created_at FROM rooms ORDER BY name, id`
	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var r model.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Capacity, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return out, nil
}

const reservationColumns = `folio, client_id, room_id, reserved_on, shift_id, event_name, active, created_at, updated_at`

func scanReservation(row pgx.Row, r *model.Reservation) error {
	var shift int16
	if err := row.Scan(&r.Folio, &r.ClientID, &r.RoomID, &r.Date, &shift,
		&r.EventName, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return err
	}
	r.Shift = model.Shift(shift)
	r.Date = model.Day(r.Date)
	return nil
}

func (s *Store) InsertReservation(ctx context.Context, r *model.Reservation) error {
	query := `
INSERT INTO reservations (client_id, room_id, reserved_on, shift_id, event_name, active)
VALUES ($1, $2, $3, $4, $5, TRUE)
RETURNING ` + reservationColumns
	err := scanReservation(s.queryRow(ctx, query,
		r.ClientID, r.RoomID, model.Day(r.Date), int16(r.Shift), r.EventName), r)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSlotTaken
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (s *Store) GetReservation(ctx context.Context, folio int64) (model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE folio = $1`
	if txFromContext(ctx) != nil {
		query += ` FOR UPDATE`
	}
	var r model.Reservation
	if err := scanReservation(s.queryRow(ctx, query, folio), &r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Reservation{}, model.ErrReservationNotFound
		}
		return model.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (s *Store) SetReservationActive(ctx context.Context, folio int64, active bool) error {
	const query = `UPDATE reservations SET active = $1, updated_at = NOW() WHERE folio = $2`
	tag, err := s.exec(ctx, query, active, folio)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSlotTaken
		}
		return fmt.Errorf("set reservation active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReservationNotFound
	}
	return nil
}

func (s *Store) RenameReservation(ctx context.Context, folio int64, eventName string) error {
	const query = `UPDATE reservations SET event_name = $1, updated_at = NOW() WHERE folio = $2`
	tag, err := s.exec(ctx, query, eventName, folio)
	if err != nil {
		return fmt.Errorf("rename reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReservationNotFound
	}
	return nil
}

// SlotTaken locks the matching active row, if any, for the rest of the
// transaction. An empty slot cannot be locked; two admissions racing for it
// are separated by the partial unique index instead.
func (s *Store) SlotTaken(ctx context.Context, slot model.SlotKey) (bool, error) {
	query := `
SELECT folio FROM reservations
WHERE room_id = $1 AND reserved_on = $2 AND shift_id = $3 AND active`
	if txFromContext(ctx) != nil {
		query += ` FOR UPDATE`
	}
	var folio int64
	err := s.queryRow(ctx, query, slot.RoomID, model.Day(slot.Date), int16(slot.Shift)).Scan(&folio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("slot taken: %w", err)
	}
	return true, nil
}

func (s *Store) ActiveSlotsOn(ctx context.Context, date time.Time) ([]model.SlotKey, error) {
	const query = `
SELECT room_id, shift_id FROM reservations
WHERE reserved_on = $1 AND active
ORDER BY room_id, shift_id`
	day := model.Day(date)
	rows, err := s.query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("active slots: %w", err)
	}
	defer rows.Close()

	var out []model.SlotKey
	for rows.Next() {
		var shift int16
		k := model.SlotKey{Date: day}
		if err := rows.Scan(&k.RoomID, &shift); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		k.Shift = model.Shift(shift)
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("active slots: %w", err)
	}
	return out, nil
}

func (s *Store) ReportRows(ctx context.Context, start, end time.Time) ([]model.ReportRow, error) {
	const query = `
SELECT r.folio, r.reserved_on, c.first_name, c.last_name,
       rm.id, rm.name, rm.capacity, r.shift_id, r.event_name
FROM reservations r
JOIN clients c ON c.id = r.client_id
JOIN rooms rm ON rm.id = r.room_id
WHERE r.active AND r.reserved_on BETWEEN $1 AND $2
ORDER BY r.reserved_on, r.folio`
	rows, err := s.query(ctx, query, model.Day(start), model.Day(end))
	if err != nil {
		return nil, fmt.Errorf("report rows: %w", err)
	}
	defer rows.Close()

	var out []model.ReportRow
	for rows.Next() {
		var (
			row   model.ReportRow
			c     model.Client
			shift int16
		)
		if err := rows.Scan(&row.Folio, &row.Date, &c.FirstName, &c.LastName,
			&row.RoomID, &row.RoomName, &row.RoomCapacity, &shift, &row.EventName); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		row.Date = model.Day(row.Date)
		row.Shift = model.Shift(shift)
		row.ClientName = c.DisplayName()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report rows: %w", err)
	}
	return out, nil
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, query, args...)
	}
	return s.pool.QueryRow(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, query, args...)
	}
	return s.pool.Query(ctx, query, args...)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, query, args...)
	}
	return s.pool.Exec(ctx, query, args...)
}
