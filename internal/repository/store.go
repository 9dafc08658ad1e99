package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

type txKey struct{}

// queryer is the subset of *sql.DB and *sql.Tx the repos use.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func txFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) queryer {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db
}

// Store is the MySQL Entity Store.
type Store struct {
	db           *sql.DB
	clients      *ClientRepo
	rooms        *RoomRepo
	reservations *ReservationRepo
	reports      *ReportRepo
}

// NewStore wires every repo to db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		clients:      NewClientRepo(db),
		rooms:        NewRoomRepo(db),
		reservations: NewReservationRepo(db),
		reports:      NewReportRepo(db),
	}
}

// maxTxAttempts bounds how often WithTx replays fn after a deadlock or lock
// wait timeout.
const maxTxAttempts = 3

// WithTx runs fn in a REPEATABLE READ transaction and commits when fn
// returns nil. Calls nested inside fn join the outer transaction. When
// MySQL aborts the transaction as a deadlock victim, fn is replayed.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (s *Store) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) CreateClient(ctx context.Context, c *model.Client) error {
	return s.clients.Create(ctx, c)
}

func (s *Store) GetClient(ctx context.Context, id int64) (model.Client, error) {
	return s.clients.GetByID(ctx, id)
}

func (s *Store) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.clients.List(ctx)
}

func (s *Store) CreateRoom(ctx context.Context, r *model.Room) error {
	return s.rooms.Create(ctx, r)
}

func (s *Store) GetRoom(ctx context.Context, id int64) (model.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *Store) ListRooms(ctx context.Context) ([]model.Room, error) {
	return s.rooms.List(ctx)
}

func (s *Store) InsertReservation(ctx context.Context, r *model.Reservation) error {
	return s.reservations.Create(ctx, r)
}

func (s *Store) GetReservation(ctx context.Context, folio int64) (model.Reservation, error) {
	return s.reservations.GetByFolio(ctx, folio)
}

func (s *Store) SetReservationActive(ctx context.Context, folio int64, active bool) error {
	return s.reservations.SetActive(ctx, folio, active)
}

func (s *Store) RenameReservation(ctx context.Context, folio int64, eventName string) error {
	return s.reservations.Rename(ctx, folio, eventName)
}

func (s *Store) SlotTaken(ctx context.Context, slot model.SlotKey) (bool, error) {
	return s.reservations.SlotTaken(ctx, slot)
}

func (s *Store) ActiveSlotsOn(ctx context.Context, date time.Time) ([]model.SlotKey, error) {
	return s.reservations.ActiveSlotsOn(ctx, date)
}

func (s *Store) ReportRows(ctx context.Context, start, end time.Time) ([]model.ReportRow, error) {
	return s.reports.Rows(ctx, start, end)
}

// sqlDate renders a reservation date for a DATE column.
func sqlDate(t time.Time) string {
	return model.Day(t).Format("2006-01-02")
}
