package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// ClientRepo reads and writes the clients table.
type ClientRepo struct {
	db *sql.DB
}

// NewClientRepo constructs a ClientRepo with the given DB handle.
func NewClientRepo(db *sql.DB) *ClientRepo {
	return &ClientRepo{db: db}
}

// Create inserts c and fills in its ID and CreatedAt.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	q := conn(ctx, r.db)
	const qInsert = `INSERT INTO clients (first_name, last_name) VALUES (?, ?)`
	res, err := q.ExecContext(ctx, qInsert, c.FirstName, c.LastName)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id

	const qSelect = `SELECT created_at FROM clients WHERE id = ?`
	return q.QueryRowContext(ctx, qSelect, c.ID).Scan(&c.CreatedAt)
}

// GetByID returns model.ErrClientNotFound when no row matches.
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (model.Client, error) {
	const q = `SELECT id, first_name, last_name, created_at FROM clients WHERE id = ?`
	var c model.Client
	err := conn(ctx, r.db).QueryRowContext(ctx, q, id).Scan(&c.ID, &c.FirstName, &c.LastName, &c.CreatedAt)
	if err != nil {
		return model.Client{}, notFound(err, model.ErrClientNotFound)
	}
	return c, nil
}

// List returns every client ordered by last name, then first name.
func (r *ClientRepo) List(ctx context.Context) ([]model.Client, error) {
	const q = `SELECT id, first_name, last_name, created_at
               FROM clients
               ORDER BY last_name, first_name, id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
