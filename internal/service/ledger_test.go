package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation-ledger/internal/datepolicy"
	"github.com/iliyamo/room-reservation-ledger/internal/model"
	"github.com/iliyamo/room-reservation-ledger/internal/queue"
	"github.com/iliyamo/room-reservation-ledger/internal/testutil"
)

var _ Store = (*testutil.MemStore)(nil)

// Tuesday 13-10-2026.
var start = time.Date(2026, 10, 13, 9, 0, 0, 0, time.UTC)

type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	ledger *Ledger
	store  *testutil.MemStore
	clock  *movableClock
	pub    *recordingPublisher
	today  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &movableClock{now: start}
	store := testutil.NewMemStore()
	pub := &recordingPublisher{}
	policy := datepolicy.New(clk, datepolicy.WithLocation(time.UTC))
	return &fixture{
		ledger: NewLedger(store, policy, WithLogger(zap.NewNop()), WithPublisher(pub)),
		store:  store,
		clock:  clk,
		pub:    pub,
		today:  model.Day(start),
	}
}

func (f *fixture) day(offset int) time.Time {
	return f.today.AddDate(0, 0, offset)
}

func (f *fixture) seed(t *testing.T) (model.Client, model.Room) {
	t.Helper()
	ctx := context.Background()
	room, err := f.ledger.RegisterRoom(ctx, "Hall A", 10)
	require.NoError(t, err)
	client, err := f.ledger.RegisterClient(ctx, "Jane", "Doe")
	require.NoError(t, err)
	return client, room
}

func requireKind(t *testing.T, err error, kind model.ValidationKind) {
	t.Helper()
	ve, ok := model.AsValidation(err)
	require.True(t, ok, "expected validation error %s, got %v", kind, err)
	assert.Equal(t, kind, ve.Kind)
}

func TestLedger_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.ledger.RegisterRoom(ctx, "Hall A", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), room.ID)
	jane, err := f.ledger.RegisterClient(ctx, "Jane", "Doe")
	require.NoError(t, err)
	assert.Equal(t, int64(1), jane.ID)
	john, err := f.ledger.RegisterClient(ctx, "John", "Roe")
	require.NoError(t, err)

	in := CreateReservationInput{ClientID: jane.ID, RoomID: room.ID, Date: f.day(3), Shift: model.ShiftMorning, EventName: "Kickoff"}
	first, err := f.ledger.CreateReservation(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), first.Folio)
	assert.True(t, first.Active)

	in.ClientID = john.ID
	_, err = f.ledger.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, model.ErrSlotTaken)
	assert.ErrorIs(t, err, model.ErrConflict)

	cancelled, err := f.ledger.CancelReservation(ctx, first.Folio)
	require.NoError(t, err)
	assert.False(t, cancelled.Active)

	third, err := f.ledger.CreateReservation(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1002), third.Folio)

	all := f.store.Reservations()
	require.Len(t, all, 2)
	assert.False(t, all[0].Active)
	assert.True(t, all[1].Active)
}

func TestLedger_CreateReservation_LeadTimeBoundary(t *testing.T) {
	f := newFixture(t)
	client, room := f.seed(t)
	ctx := context.Background()

	_, err := f.ledger.CreateReservation(ctx, CreateReservationInput{
		ClientID: client.ID, RoomID: room.ID, Date: f.day(1), Shift: model.ShiftMorning, EventName: "Too early",
	})
	requireKind(t, err, model.KindTooSoon)

	_, err = f.ledger.CreateReservation(ctx, CreateReservationInput{
		ClientID: client.ID, RoomID: room.ID, Date: f.day(0), Shift: model.ShiftMorning, EventName: "Today",
	})
	requireKind(t, err, model.KindTooSoon)

	res, err := f.ledger.CreateReservation(ctx, CreateReservationInput{
		ClientID: client.ID, RoomID: room.ID, Date: f.day(2), Shift: model.ShiftMorning, EventName: "Just in time",
	})
	require.NoError(t, err)
	assert.Equal(t, f.day(2), res.Date)
}

func TestLedger_CreateReservation_SundaySubstitution(t *testing.T) {
	f := newFixture(t)
	client, room := f.seed(t)
	ctx := context.Background()

	cand, err := f.ledger.Policy().ParseBookingDate("18-10-2026")
	require.NoError(t, err)
	require.True(t, cand.NeedsDecision())

	_, err = cand.Resolve(false)
	requireKind(t, err, model.KindSubstitutionDenied)
	assert.Empty(t, f.store.Reservations())

	_, err = f.ledger.CreateReservation(ctx, CreateReservationInput{
		ClientID: client.ID, RoomID: room.ID, Date: cand.Date, Shift: model.ShiftEvening, EventName: "Sunday gala",
	})
	requireKind(t, err, model.KindSundayRequiresSub)
	assert.Empty(t, f.store.Reservations())

	monday, err := cand.Resolve(true)
	require.NoError(t, err)
	res, err := f.ledger.CreateReservation(ctx, CreateReservationInput{
		ClientID: client.ID, RoomID: room.ID, Date: monday, Shift: model.ShiftEvening, EventName: "Sunday gala",
	})
	require.NoError(t, err)
	assert.Equal(t, cand.Date.AddDate(0, 0, 1), res.Date)
	assert.Equal(t, time.Monday, res.Date.Weekday())
}

func TestLedger_CreateReservation_Validation(t *testing.T) {
	f := newFixture(t)
	client, room := f.seed(t)
	ctx := context.Background()
	base := CreateReservationInput{ClientID: client.ID, RoomID: room.ID, Date: f.day(4), Shift: model.ShiftAfternoon, EventName: "Workshop"}

	in := base
	in.EventName = "  "
	_, err := f.ledger.CreateReservation(ctx, in)
	requireKind(t, err, model.KindInvalidEventName)

	in = base
	in.EventName = "ab"
	_, err = f.ledger.CreateReservation(ctx, in)
	requireKind(t, err, model.KindInvalidEventName)

	in = base
	in.Shift = model.Shift(9)
	_, err = f.ledger.CreateReservation(ctx, in)
	requireKind(t, err, model.KindInvalidShift)

	in = base
	in.ClientID = 42
	_, err = f.ledger.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, model.ErrClientNotFound)

	in = base
	in.RoomID = 42
	_, err = f.ledger.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, model.ErrRoomNotFound)

	assert.Empty(t, f.store.Reservations())

	in = base
	in.EventName = "  Workshop  "
	res, err := f.ledger.CreateReservation(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Workshop", res.EventName)
}

func TestLedger_CreateReservation_SameSlotOtherShiftOrRoom(t *testing.T) {
	f := newFixture(t)
	client, room := f.seed(t)
	ctx := context.Background()
	other, err := f.ledger.RegisterRoom(ctx, "Hall B", 4)
	require.NoError(t, err)

	in := CreateReservationInput{ClientID: client.ID, RoomID: room.ID, Date: f.day(6), Shift: model.ShiftMorning, EventName: "Standup"}
	_, err = f.ledger.CreateReservation(ctx, in)
	require.NoError(t, err)

	in.Shift = model.ShiftAfternoon
	_, err = f.ledger.CreateReservation(ctx, in)
	require.NoError(t, err)

	in.Shift = model.ShiftMorning
	in.RoomID = other.ID
	_, err = f.ledger.CreateReservation(ctx, in)
	require.NoError(t, err)

	in.RoomID = room.ID
	in.Date = f.day(7)
	_, err = f.ledger.CreateReservation(ctx, in)
	require.NoError(t, err)
}

func TestLedger_CreateReservation_StorageFault(t *testing.T) {
	f := newFixture(t)
	client, room := f.seed(t)
	boom := errors.New("connection reset")
	f.store.FailOn("InsertReservation", boom)

	_, err := f.ledger.CreateReservation(context.Background(), CreateReservationInput{
		ClientID: client.ID, RoomID: room.ID, Date: f.day(3), Shift: model.ShiftMorning, EventName: "Kickoff",
	})
	var se *model.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create reservation", se.Op)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.store.Reservations())
	assert.Empty(t, f.pub.events)
}

func TestLedger_CancelReservation(t *testing.T) {
	f := newFixture(t)
	client, room := f.seed(t)
	ctx := context.Background()

	res, err := f.ledger.CreateReservation(ctx, CreateReservationInput{
		ClientID: client.ID, RoomID: room.ID, Date: f.day(4), Shift: model.ShiftMorning, EventName: "Retro",
	})
	require.NoError(t, err)

	t.Run("inside protection window", func(t *testing.T) {
		f.clock.advance(3 * 24 * time.Hour)
		defer f.clock.advance(-3 * 24 * time.Hour)
		_, err := f.ledger.CancelReservation(ctx, res.Folio)
		assert.ErrorIs(t, err, model.ErrCancellationTooLate)
		got, err := f.ledger.Reservation(ctx, res.Folio)
		require.NoError(t, err)
		assert.True(t, got.Active)
	})

	t.Run("on the boundary", func(t *testing.T) {
		f.clock.advance(2 * 24 * time.Hour)
		defer f.clock.advance(-2 * 24 * time.Hour)
		got, err := f.ledger.CancelReservation(ctx, res.Folio)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})

	t.Run("twice", func(t *testing.T) {
		_, err := f.ledger.CancelReservation(ctx, res.Folio)
		assert.ErrorIs(t, err, model.ErrReservationCancelled)
	})

	t.Run("unknown folio", func(t *testing.T) {
		_, err := f.ledger.CancelReservation(ctx, 9999)
		assert.ErrorIs(t, err, model.ErrReservationNotFound)
		_, err = f.ledger.CancelReservation(ctx, 0)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestLedger_RenameEvent(t *testing.T) {
	f := newFixture(t)
	client, room := f.seed(t)
	ctx := context.Background()
	date := f.day(3)

	res, err := f.ledger.CreateReservation(ctx, CreateReservationInput{
		ClientID: client.ID, RoomID: room.ID, Date: date, Shift: model.ShiftMorning, EventName: "Kickoff",
	})
	require.NoError(t, err)

	before, err := f.ledger.AvailableSlots(ctx, date)
	require.NoError(t, err)

	renamed, err := f.ledger.RenameEvent(ctx, res.Folio, " Kickoff v2 ")
	require.NoError(t, err)
	assert.Equal(t, "Kickoff v2", renamed.EventName)

	after, err := f.ledger.AvailableSlots(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, err := f.ledger.Reservation(ctx, res.Folio)
	require.NoError(t, err)
	assert.Equal(t, "Kickoff v2", got.EventName)

	_, err = f.ledger.RenameEvent(ctx, res.Folio, "no")
	requireKind(t, err, model.KindInvalidEventName)

	_, err = f.ledger.RenameEvent(ctx, 4242, "Something")
	assert.ErrorIs(t, err, model.ErrReservationNotFound)

	_, err = f.ledger.CancelReservation(ctx, res.Folio)
	require.NoError(t, err)
	_, err = f.ledger.RenameEvent(ctx, res.Folio, "After cancel")
	assert.ErrorIs(t, err, model.ErrReservationCancelled)
}

func TestLedger_Events(t *testing.T) {
	f := newFixture(t)
	client, room := f.seed(t)
	ctx := context.Background()

	res, err := f.ledger.CreateReservation(ctx, CreateReservationInput{
		ClientID: client.ID, RoomID: room.ID, Date: f.day(3), Shift: model.ShiftEvening, EventName: "Kickoff",
	})
	require.NoError(t, err)
	_, err = f.ledger.RenameEvent(ctx, res.Folio, "Launch")
	require.NoError(t, err)

	f.pub.err = errors.New("broker down")
	_, err = f.ledger.CancelReservation(ctx, res.Folio)
	require.NoError(t, err, "publish failures must not fail the write")

	require.Len(t, f.pub.events, 3)
	assert.Equal(t, queue.EventReservationCreated, f.pub.events[0].Type)
	assert.Equal(t, queue.EventReservationRenamed, f.pub.events[1].Type)
	assert.Equal(t, "Launch", f.pub.events[1].EventName)
	assert.Equal(t, queue.EventReservationCancelled, f.pub.events[2].Type)
	for _, ev := range f.pub.events {
		assert.Equal(t, res.Folio, ev.Folio)
		assert.Equal(t, "Evening", ev.Shift)
		assert.Equal(t, model.FormatDate(f.day(3)), ev.Date)
	}
}

func TestLedger_Registration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.RegisterRoom(ctx, "Hall A", 10)
	require.NoError(t, err)
	_, err = f.ledger.RegisterRoom(ctx, "hall a", 20)
	assert.ErrorIs(t, err, model.ErrRoomNameTaken)
	_, err = f.ledger.RegisterRoom(ctx, "Hall B", -1)
	requireKind(t, err, model.KindInvalidCapacity)
	_, err = f.ledger.RegisterRoom(ctx, "Hall #3", 5)
	requireKind(t, err, model.KindInvalidName)
	_, err = f.ledger.RegisterRoom(ctx, "Atrium", 50)
	require.NoError(t, err)

	rooms, err := f.ledger.Rooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Atrium", rooms[0].Name)
	assert.Equal(t, "Hall A", rooms[1].Name)

	for _, n := range [][2]string{{"Zoe", "Adams"}, {"Adam", "Smith"}, {"Aaron", "Adams"}} {
		_, err := f.ledger.RegisterClient(ctx, n[0], n[1])
		require.NoError(t, err)
	}
	_, err = f.ledger.RegisterClient(ctx, "J4ne", "Doe")
	requireKind(t, err, model.KindInvalidName)

	clients, err := f.ledger.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 3)
	assert.Equal(t, "Adams, Aaron", clients[0].DisplayName())
	assert.Equal(t, "Adams, Zoe", clients[1].DisplayName())
	assert.Equal(t, "Smith, Adam", clients[2].DisplayName())

	f.store.FailOn("ListRooms", errors.New("timeout"))
	_, err = f.ledger.Rooms(ctx)
	assert.True(t, model.IsStorage(err))
}

// TestLedger_ActiveSlotUniqueness drives random create/cancel sequences and
// checks that no two active reservations ever share a slot.
func TestLedger_ActiveSlotUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var clients, rooms []int64
	for _, n := range []string{"Ana", "Bea", "Cid"} {
		c, err := f.ledger.RegisterClient(ctx, n, "Test")
		require.NoError(t, err)
		clients = append(clients, c.ID)
	}
	for _, n := range []string{"North", "South"} {
		r, err := f.ledger.RegisterRoom(ctx, n, 8)
		require.NoError(t, err)
		rooms = append(rooms, r.ID)
	}

	rng := rand.New(rand.NewSource(7))
	var folios []int64
	for i := 0; i < 400; i++ {
		if len(folios) > 0 && rng.Intn(3) == 0 {
			folio := folios[rng.Intn(len(folios))]
			_, err := f.ledger.CancelReservation(ctx, folio)
			if err != nil {
				assert.ErrorIs(t, err, model.ErrReservationCancelled)
			}
		} else {
			day := f.day(2 + rng.Intn(3))
			if day.Weekday() == time.Sunday {
				day = day.AddDate(0, 0, 1)
			}
			res, err := f.ledger.CreateReservation(ctx, CreateReservationInput{
				ClientID:  clients[rng.Intn(len(clients))],
				RoomID:    rooms[rng.Intn(len(rooms))],
				Date:      day,
				Shift:     model.Shifts()[rng.Intn(3)],
				EventName: "Random event",
			})
			if err != nil {
				require.ErrorIs(t, err, model.ErrSlotTaken)
			} else {
				folios = append(folios, res.Folio)
			}
		}

		seen := map[model.SlotKey]int64{}
		for _, r := range f.store.Reservations() {
			if !r.Active {
				continue
			}
			if prev, dup := seen[r.Slot()]; dup {
				t.Fatalf("folios %d and %d share slot %+v", prev, r.Folio, r.Slot())
			}
			seen[r.Slot()] = r.Folio
		}
	}

	for i := 1; i < len(folios); i++ {
		assert.Greater(t, folios[i], folios[i-1], "folios are strictly increasing")
	}
}
