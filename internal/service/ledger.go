// Package service holds the booking core: the admission engine that is the
// sole writer of reservations, the availability index and the reporting
// projection. All of it reads the Entity Store live; nothing is cached here.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation-ledger/internal/datepolicy"
	"github.com/iliyamo/room-reservation-ledger/internal/model"
	"github.com/iliyamo/room-reservation-ledger/internal/queue"
)

// EventPublisher receives an event after each committed reservation write.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Ledger is the room-booking ledger.
type Ledger struct {
	store     Store
	policy    *datepolicy.Policy
	publisher EventPublisher
	logger    *zap.Logger
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for write audit lines.
func WithLogger(l *zap.Logger) Option {
	return func(s *Ledger) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPublisher sets the destination of reservation events.
func WithPublisher(p EventPublisher) Option {
	return func(s *Ledger) {
		if p != nil {
			s.publisher = p
		}
	}
}

// NewLedger wires a ledger over store. policy decides what "today" is and
// which dates can be booked or cancelled.
func NewLedger(store Store, policy *datepolicy.Policy, opts ...Option) *Ledger {
	if store == nil || policy == nil {
		panic("nil store or policy passed to NewLedger")
	}
	l := &Ledger{
		store:     store,
		policy:    policy,
		publisher: queue.NopPublisher{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Policy exposes the date policy so callers can parse raw dates with the
// same rules and clock the ledger enforces.
func (l *Ledger) Policy() *datepolicy.Policy { return l.policy }

// RegisterClient validates and stores a new client.
func (l *Ledger) RegisterClient(ctx context.Context, firstName, lastName string) (model.Client, error) {
	c, err := model.NewClient(firstName, lastName)
	if err != nil {
		return model.Client{}, err
	}
	if err := l.store.CreateClient(ctx, &c); err != nil {
		return model.Client{}, storageErr("create client", err)
	}
	l.logger.Info("client registered", zap.Int64("client_id", c.ID))
	return c, nil
}

// RegisterRoom validates and stores a new room. Names are unique.
func (l *Ledger) RegisterRoom(ctx context.Context, name string, capacity int) (model.Room, error) {
	r, err := model.NewRoom(name, capacity)
	if err != nil {
		return model.Room{}, err
	}
	if err := l.store.CreateRoom(ctx, &r); err != nil {
		return model.Room{}, storageErr("create room", err)
	}
	l.logger.Info("room registered", zap.Int64("room_id", r.ID), zap.String("name", r.Name))
	return r, nil
}

// Clients lists clients ordered by (last name, first name).
func (l *Ledger) Clients(ctx context.Context) ([]model.Client, error) {
	cs, err := l.store.ListClients(ctx)
	if err != nil {
		return nil, storageErr("list clients", err)
	}
	return cs, nil
}

// Rooms lists rooms ordered by name.
func (l *Ledger) Rooms(ctx context.Context) ([]model.Room, error) {
	rs, err := l.store.ListRooms(ctx)
	if err != nil {
		return nil, storageErr("list rooms", err)
	}
	return rs, nil
}

// Reservation returns the reservation with the given folio, active or not.
func (l *Ledger) Reservation(ctx context.Context, folio int64) (model.Reservation, error) {
	if folio <= 0 {
		return model.Reservation{}, model.ErrReservationNotFound
	}
	r, err := l.store.GetReservation(ctx, folio)
	if err != nil {
		return model.Reservation{}, storageErr("get reservation", err)
	}
	return r, nil
}

// CreateReservationInput is a booking request with already-typed values.
// Date must be the resolved date coming out of the date policy.
type CreateReservationInput struct {
	ClientID  int64
	RoomID    int64
	Date      time.Time
	Shift     model.Shift
	EventName string
}

// CreateReservation admits a booking. Every rule is re-checked here, and the
// slot probe runs in the same transaction as the insert; the store's unique
// index backs it up against a second writer. No partial state is written on
// failure.
func (l *Ledger) CreateReservation(ctx context.Context, in CreateReservationInput) (model.Reservation, error) {
	name, err := model.CleanEventName(in.EventName)
	if err != nil {
		return model.Reservation{}, err
	}
	if !in.Shift.Valid() {
		return model.Reservation{}, model.Invalid(model.KindInvalidShift, "shift", "shift must be Morning, Afternoon or Evening")
	}
	if in.ClientID <= 0 {
		return model.Reservation{}, model.ErrClientNotFound
	}
	if in.RoomID <= 0 {
		return model.Reservation{}, model.ErrRoomNotFound
	}
	date := model.Day(in.Date)
	if err := l.policy.CheckBookingDate(date); err != nil {
		return model.Reservation{}, err
	}

	res := model.Reservation{
		ClientID:  in.ClientID,
		RoomID:    in.RoomID,
		Date:      date,
		Shift:     in.Shift,
		EventName: name,
		Active:    true,
	}
	err = l.store.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := l.store.GetClient(txCtx, in.ClientID); err != nil {
			return err
		}
		if _, err := l.store.GetRoom(txCtx, in.RoomID); err != nil {
			return err
		}
		taken, err := l.store.SlotTaken(txCtx, res.Slot())
		if err != nil {
			return err
		}
		if taken {
			return model.ErrSlotTaken
		}
		return l.store.InsertReservation(txCtx, &res)
	})
	if err != nil {
		return model.Reservation{}, storageErr("create reservation", err)
	}

	l.logger.Info("reservation created",
		zap.Int64("folio", res.Folio),
		zap.Int64("client_id", res.ClientID),
		zap.Int64("room_id", res.RoomID),
		zap.String("date", model.FormatDate(res.Date)),
		zap.String("shift", res.Shift.String()),
	)
	l.publish(ctx, queue.EventReservationCreated, res)
	return res, nil
}

// CancelReservation soft-deletes an active reservation. The same lead time
// that guards creation protects the reservation's own date: inside it the
// reservation can no longer be cancelled. The folio stays allocated.
func (l *Ledger) CancelReservation(ctx context.Context, folio int64) (model.Reservation, error) {
	if folio <= 0 {
		return model.Reservation{}, model.ErrReservationNotFound
	}
	var res model.Reservation
	err := l.store.WithTx(ctx, func(txCtx context.Context) error {
		r, err := l.store.GetReservation(txCtx, folio)
		if err != nil {
			return err
		}
		if !r.Active {
			return model.ErrReservationCancelled
		}
		if l.policy.DaysUntil(r.Date) < l.policy.LeadDays() {
			return model.ErrCancellationTooLate
		}
		if err := l.store.SetReservationActive(txCtx, folio, false); err != nil {
			return err
		}
		r.Active = false
		res = r
		return nil
	})
	if err != nil {
		return model.Reservation{}, storageErr("cancel reservation", err)
	}

	l.logger.Info("reservation cancelled", zap.Int64("folio", folio))
	l.publish(ctx, queue.EventReservationCancelled, res)
	return res, nil
}

// RenameEvent overwrites the event name of an active reservation. It never
// touches the slot, so availability is unaffected.
func (l *Ledger) RenameEvent(ctx context.Context, folio int64, newName string) (model.Reservation, error) {
	name, err := model.CleanEventName(newName)
	if err != nil {
		return model.Reservation{}, err
	}
	if folio <= 0 {
		return model.Reservation{}, model.ErrReservationNotFound
	}
	var res model.Reservation
	err = l.store.WithTx(ctx, func(txCtx context.Context) error {
		r, err := l.store.GetReservation(txCtx, folio)
		if err != nil {
			return err
		}
		if !r.Active {
			return model.ErrReservationCancelled
		}
		if err := l.store.RenameReservation(txCtx, folio, name); err != nil {
			return err
		}
		r.EventName = name
		res = r
		return nil
	})
	if err != nil {
		return model.Reservation{}, storageErr("rename reservation", err)
	}

	l.logger.Info("reservation renamed", zap.Int64("folio", folio))
	l.publish(ctx, queue.EventReservationRenamed, res)
	return res, nil
}

func (l *Ledger) publish(ctx context.Context, typ queue.EventType, r model.Reservation) {
	ev := queue.NewReservationEvent(typ, l.policy.Now())
	ev.Folio = r.Folio
	ev.ClientID = r.ClientID
	ev.RoomID = r.RoomID
	ev.Date = model.FormatDate(r.Date)
	ev.Shift = r.Shift.String()
	ev.EventName = r.EventName
	if err := l.publisher.Publish(ctx, ev); err != nil {
		l.logger.Warn("reservation event not published",
			zap.String("type", string(typ)), zap.Int64("folio", r.Folio), zap.Error(err))
	}
}

// storageErr passes taxonomy errors through and wraps anything else.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := model.AsValidation(err); ok {
		return err
	}
	switch {
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrConflict),
		errors.Is(err, model.ErrCancellationTooLate),
		errors.Is(err, model.ErrReservationCancelled),
		errors.Is(err, model.ErrInvalidRange),
		model.IsStorage(err):
		return err
	}
	return &model.StorageError{Op: op, Err: err}
}
