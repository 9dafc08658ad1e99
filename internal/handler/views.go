package handler

import (
	"time"

	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

type clientView struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func newClientView(c model.Client) clientView {
	return clientView{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		DisplayName: c.DisplayName(),
		CreatedAt:   c.CreatedAt,
	}
}

type roomView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

func newRoomView(r model.Room) roomView {
	return roomView{ID: r.ID, Name: r.Name, Capacity: r.Capacity, CreatedAt: r.CreatedAt}
}

type shiftView struct {
	Code uint8  `json:"code"`
	Name string `json:"name"`
}

func newShiftView(s model.Shift) shiftView {
	return shiftView{Code: uint8(s), Name: s.String()}
}

type reservationView struct {
	Folio     int64     `json:"folio"`
	ClientID  int64     `json:"client_id"`
	RoomID    int64     `json:"room_id"`
	Date      string    `json:"date"`
	Shift     shiftView `json:"shift"`
	EventName string    `json:"event_name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newReservationView(r model.Reservation) reservationView {
	return reservationView{
		Folio:     r.Folio,
		ClientID:  r.ClientID,
		RoomID:    r.RoomID,
		Date:      model.FormatDate(r.Date),
		Shift:     newShiftView(r.Shift),
		EventName: r.EventName,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type slotView struct {
	RoomID   int64     `json:"room_id"`
	RoomName string    `json:"room_name"`
	Capacity int       `json:"capacity"`
	Shift    shiftView `json:"shift"`
}
