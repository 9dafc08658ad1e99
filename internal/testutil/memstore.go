// Package testutil provides test doubles shared by package tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// FirstFolio is the folio assigned to the first reservation, matching the
// AUTO_INCREMENT / IDENTITY start of the SQL schemas.
const FirstFolio int64 = 1001

type txKey struct{}

// MemStore is an in-memory Entity Store. It mirrors the SQL schemas: unique
// room names (case-insensitive), a unique index over (room, date, shift)
// restricted to active reservations, and folios that are never reused.
// WithTx is all-or-nothing: a failing fn leaves the store as it found it.
type MemStore struct {
	mu           sync.Mutex
	clients      map[int64]model.Client
	rooms        map[int64]model.Room
	reservations map[int64]model.Reservation
	nextClient   int64
	nextRoom     int64
	nextFolio    int64

	fail map[string]error
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		clients:      map[int64]model.Client{},
		rooms:        map[int64]model.Room{},
		reservations: map[int64]model.Reservation{},
		nextClient:   1,
		nextRoom:     1,
		nextFolio:    FirstFolio,
		fail:         map[string]error{},
	}
}

// FailOn makes every later call of the named method (e.g. "InsertReservation")
// return err. A nil err clears the fault.
func (s *MemStore) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, method)
		return
	}
	s.fail[method] = err
}

// Reservations returns a copy of every stored reservation, cancelled ones
// included, ordered by folio.
func (s *MemStore) Reservations() []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Folio < out[j].Folio })
	return out
}

func (s *MemStore) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemStore) fault(method string) error {
	return s.fail[method]
}

func (s *MemStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("WithTx"); err != nil {
		return err
	}

	clients := copyMap(s.clients)
	rooms := copyMap(s.rooms)
	reservations := copyMap(s.reservations)

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		// Sequences are not rolled back, like AUTO_INCREMENT and IDENTITY.
		s.clients, s.rooms, s.reservations = clients, rooms, reservations
		return err
	}
	return nil
}

func (s *MemStore) CreateClient(ctx context.Context, c *model.Client) error {
	defer s.lock(ctx)()
	if err := s.fault("CreateClient"); err != nil {
		return err
	}
	c.ID = s.nextClient
	c.CreatedAt = time.Now().UTC()
	s.nextClient++
	s.clients[c.ID] = *c
	return nil
}

func (s *MemStore) GetClient(ctx context.Context, id int64) (model.Client, error) {
	defer s.lock(ctx)()
	if err := s.fault("GetClient"); err != nil {
		return model.Client{}, err
	}
	c, ok := s.clients[id]
	if !ok {
		return model.Client{}, model.ErrClientNotFound
	}
	return c, nil
}

func (s *MemStore) ListClients(ctx context.Context) ([]model.Client, error) {
	defer s.lock(ctx)()
	if err := s.fault("ListClients"); err != nil {
		return nil, err
	}
	out := make([]model.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) CreateRoom(ctx context.Context, r *model.Room) error {
	defer s.lock(ctx)()
	if err := s.fault("CreateRoom"); err != nil {
		return err
	}
	for _, existing := range s.rooms {
		if strings.EqualFold(existing.Name, r.Name) {
			return model.ErrRoomNameTaken
		}
	}
	r.ID = s.nextRoom
	r.CreatedAt = time.Now().UTC()
	s.nextRoom++
	s.rooms[r.ID] = *r
	return nil
}

func (s *MemStore) GetRoom(ctx context.Context, id int64) (model.Room, error) {
	defer s.lock(ctx)()
	if err := s.fault("GetRoom"); err != nil {
		return model.Room{}, err
	}
	r, ok := s.rooms[id]
	if !ok {
		return model.Room{}, model.ErrRoomNotFound
	}
	return r, nil
}

func (s *MemStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	defer s.lock(ctx)()
	if err := s.fault("ListRooms"); err != nil {
		return nil, err
	}
	out := make([]model.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) InsertReservation(ctx context.Context, r *model.Reservation) error {
	defer s.lock(ctx)()
	if err := s.fault("InsertReservation"); err != nil {
		return err
	}
	if _, ok := s.clients[r.ClientID]; !ok {
		return model.ErrClientNotFound
	}
	if _, ok := s.rooms[r.RoomID]; !ok {
		return model.ErrRoomNotFound
	}
	if s.slotTaken(r.Slot()) {
		return model.ErrSlotTaken
	}
	now := time.Now().UTC()
	r.Folio = s.nextFolio
	r.Date = model.Day(r.Date)
	r.Active = true
	r.CreatedAt, r.UpdatedAt = now, now
	s.nextFolio++
	s.reservations[r.Folio] = *r
	return nil
}

func (s *MemStore) GetReservation(ctx context.Context, folio int64) (model.Reservation, error) {
	defer s.lock(ctx)()
	if err := s.fault("GetReservation"); err != nil {
		return model.Reservation{}, err
	}
	r, ok := s.reservations[folio]
	if !ok {
		return model.Reservation{}, model.ErrReservationNotFound
	}
	return r, nil
}

func (s *MemStore) SetReservationActive(ctx context.Context, folio int64, active bool) error {
	defer s.lock(ctx)()
	if err := s.fault("SetReservationActive"); err != nil {
		return err
	}
	r, ok := s.reservations[folio]
	if !ok {
		return model.ErrReservationNotFound
	}
	if active && !r.Active && s.slotTaken(r.Slot()) {
		return model.ErrSlotTaken
	}
	r.Active = active
	r.UpdatedAt = time.Now().UTC()
	s.reservations[folio] = r
	return nil
}

func (s *MemStore) RenameReservation(ctx context.Context, folio int64, eventName string) error {
	defer s.lock(ctx)()
	if err := s.fault("RenameReservation"); err != nil {
		return err
	}
	r, ok := s.reservations[folio]
	if !ok {
		return model.ErrReservationNotFound
	}
	r.EventName = eventName
	r.UpdatedAt = time.Now().UTC()
	s.reservations[folio] = r
	return nil
}

func (s *MemStore) SlotTaken(ctx context.Context, slot model.SlotKey) (bool, error) {
	defer s.lock(ctx)()
	if err := s.fault("SlotTaken"); err != nil {
		return false, err
	}
	return s.slotTaken(slot), nil
}

func (s *MemStore) ActiveSlotsOn(ctx context.Context, date time.Time) ([]model.SlotKey, error) {
	defer s.lock(ctx)()
	if err := s.fault("ActiveSlotsOn"); err != nil {
		return nil, err
	}
	date = model.Day(date)
	var out []model.SlotKey
	for _, r := range s.reservations {
		if r.Active && r.Date.Equal(date) {
			out = append(out, r.Slot())
		}
	}
	return out, nil
}

func (s *MemStore) ReportRows(ctx context.Context, start, end time.Time) ([]model.ReportRow, error) {
	defer s.lock(ctx)()
	if err := s.fault("ReportRows"); err != nil {
		return nil, err
	}
	start, end = model.Day(start), model.Day(end)
	var out []model.ReportRow
	for _, r := range s.reservations {
		if !r.Active || r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		c := s.clients[r.ClientID]
		room := s.rooms[r.RoomID]
		out = append(out, model.ReportRow{
			Folio:        r.Folio,
			Date:         r.Date,
			ClientName:   c.DisplayName(),
			RoomID:       room.ID,
			RoomName:     room.Name,
			RoomCapacity: room.Capacity,
			Shift:        r.Shift,
			EventName:    r.EventName,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Folio < out[j].Folio
	})
	return out, nil
}

func (s *MemStore) slotTaken(slot model.SlotKey) bool {
	day := model.Day(slot.Date)
	for _, r := range s.reservations {
		if r.Active && r.RoomID == slot.RoomID && r.Shift == slot.Shift && r.Date.Equal(day) {
			return true
		}
	}
	return false
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
