package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// RoomRepo reads and writes the rooms table.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create inserts rm. A name that collides with an existing room (the default
// collation compares case-insensitively) yields model.ErrRoomNameTaken.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	q := conn(ctx, r.db)
	const qInsert = `INSERT INTO rooms (name, capacity) VALUES (?, ?)`
	res, err := q.ExecContext(ctx, qInsert, rm.Name, rm.Capacity)
	if err != nil {
		if isDuplicateKey(err) {
			return model.ErrRoomNameTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = id

	const qSelect = `SELECT created_at FROM rooms WHERE id = ?`
	return q.QueryRowContext(ctx, qSelect, rm.ID).Scan(&rm.CreatedAt)
}

// GetByID returns model.ErrRoomNotFound when no row matches.
func (r *RoomRepo) GetByID(ctx context.Context, id int64) (model.Room, error) {
	const q = `SELECT id, name, capacity, created_at FROM rooms WHERE id = ?`
	var rm model.Room
	err := conn(ctx, r.db).QueryRowContext(ctx, q, id).Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.CreatedAt)
	if err != nil {
		return model.Room{}, notFound(err, model.ErrRoomNotFound)
	}
	return rm, nil
}

// List returns every room ordered by name.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	const q = `SELECT id, name, capacity, created_at FROM rooms ORDER BY name, id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var rm model.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
