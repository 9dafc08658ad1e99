package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

func TestLedger_AvailableSlots(t *testing.T) {
	f := newFixture(t)
	client, hallA := f.seed(t)
	ctx := context.Background()
	atrium, err := f.ledger.RegisterRoom(ctx, "Atrium", 30)
	require.NoError(t, err)
	date := f.day(3)

	slots, err := f.ledger.AvailableSlots(ctx, date)
	require.NoError(t, err)
	require.Len(t, slots, 6)
	assert.Equal(t, model.Slot{RoomID: atrium.ID, RoomName: "Atrium", Capacity: 30, Shift: model.ShiftMorning}, slots[0])
	assert.Equal(t, hallA.ID, slots[5].RoomID)
	assert.Equal(t, model.ShiftEvening, slots[5].Shift)

	res, err := f.ledger.CreateReservation(ctx, CreateReservationInput{
		ClientID: client.ID, RoomID: hallA.ID, Date: date, Shift: model.ShiftMorning, EventName: "Kickoff",
	})
	require.NoError(t, err)

	slots, err = f.ledger.AvailableSlots(ctx, date)
	require.NoError(t, err)
	assert.Len(t, slots, 5)
	assert.NotContains(t, slots, model.Slot{RoomID: hallA.ID, RoomName: "Hall A", Capacity: 10, Shift: model.ShiftMorning})

	free, err := f.ledger.IsAvailable(ctx, res.Slot())
	require.NoError(t, err)
	assert.False(t, free)

	other, err := f.ledger.AvailableSlots(ctx, f.day(4))
	require.NoError(t, err)
	assert.Len(t, other, 6)

	_, err = f.ledger.CancelReservation(ctx, res.Folio)
	require.NoError(t, err)

	slots, err = f.ledger.AvailableSlots(ctx, date)
	require.NoError(t, err)
	assert.Len(t, slots, 6)
	assert.Contains(t, slots, model.Slot{RoomID: hallA.ID, RoomName: "Hall A", Capacity: 10, Shift: model.ShiftMorning})

	free, err = f.ledger.IsAvailable(ctx, res.Slot())
	require.NoError(t, err)
	assert.True(t, free)
}

func TestLedger_AvailableSlots_NoRooms(t *testing.T) {
	f := newFixture(t)
	slots, err := f.ledger.AvailableSlots(context.Background(), f.day(3))
	require.NoError(t, err)
	assert.Empty(t, slots)
}
