package service

import (
	"context"
	"time"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// Store is the Entity Store contract the ledger is written against. The
// MySQL and Postgres repositories implement it, as does the in-memory store
// used by tests.
//
// Implementations translate their own failures into the model taxonomy:
// missing rows become the matching Err...NotFound sentinel, a duplicate room
// name becomes model.ErrRoomNameTaken and a violation of the active-slot
// unique index becomes model.ErrSlotTaken. Anything else is returned as is
// and wrapped into a model.StorageError by the ledger.
type Store interface {
	// WithTx runs fn inside one transaction carried by the context passed to
	// fn. A nested call joins the outer transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateClient(ctx context.Context, c *model.Client) error
	GetClient(ctx context.Context, id int64) (model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)

	CreateRoom(ctx context.Context, r *model.Room) error
	GetRoom(ctx context.Context, id int64) (model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)

	// InsertReservation stores r as active and sets its Folio.
	InsertReservation(ctx context.Context, r *model.Reservation) error
	// GetReservation locks the row when ctx carries a transaction.
	GetReservation(ctx context.Context, folio int64) (model.Reservation, error)
	SetReservationActive(ctx context.Context, folio int64, active bool) error
	RenameReservation(ctx context.Context, folio int64, eventName string) error

	// SlotTaken reports whether an active reservation occupies slot.
	SlotTaken(ctx context.Context, slot model.SlotKey) (bool, error)
	// ActiveSlotsOn lists the (room, shift) pairs occupied on date.
	ActiveSlotsOn(ctx context.Context, date time.Time) ([]model.SlotKey, error)
	// ReportRows joins active reservations dated within [start, end] with
	// their client and room, ordered by (date, folio).
	ReportRows(ctx context.Context, start, end time.Time) ([]model.ReportRow, error)
}
