package service

import (
	"context"
	"time"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// AvailableSlots lists, for every room and every shift, the pairs with no
// active reservation on date. It is recomputed from the store on each call.
// Rooms come in name order and shifts in code order within a room.
func (l *Ledger) AvailableSlots(ctx context.Context, date time.Time) ([]model.Slot, error) {
	date = model.Day(date)
	var (
		rooms []model.Room
		taken []model.SlotKey
	)
	err := l.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		if rooms, err = l.store.ListRooms(txCtx); err != nil {
			return err
		}
		taken, err = l.store.ActiveSlotsOn(txCtx, date)
		return err
	})
	if err != nil {
		return nil, storageErr("available slots", err)
	}

	type pair struct {
		room  int64
		shift model.Shift
	}
	busy := make(map[pair]struct{}, len(taken))
	for _, k := range taken {
		busy[pair{k.RoomID, k.Shift}] = struct{}{}
	}
	out := make([]model.Slot, 0, len(rooms)*len(model.Shifts()))
	for _, r := range rooms {
		for _, sh := range model.Shifts() {
			if _, ok := busy[pair{r.ID, sh}]; ok {
				continue
			}
			out = append(out, model.Slot{RoomID: r.ID, RoomName: r.Name, Capacity: r.Capacity, Shift: sh})
		}
	}
	return out, nil
}

// IsAvailable reports whether the (room, date, shift) slot is free right now.
func (l *Ledger) IsAvailable(ctx context.Context, slot model.SlotKey) (bool, error) {
	slot.Date = model.Day(slot.Date)
	taken, err := l.store.SlotTaken(ctx, slot)
	if err != nil {
		return false, storageErr("slot taken", err)
	}
	return !taken, nil
}
