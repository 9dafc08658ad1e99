package model

import "time"

// DateLayout is the external calendar representation: DD-MM-YYYY.
const DateLayout = "02-01-2006"

// Reservation is a row of the `reservations` table. Date carries day
// granularity only (midnight UTC). Active flips to false on cancellation and
// never back; cancelled rows are kept for history.
type Reservation struct {
	Folio     int64     // reservations.folio
	ClientID  int64     // reservations.client_id
	RoomID    int64     // reservations.room_id
	Date      time.Time // reservations.reserved_on
	Shift     Shift     // reservations.shift_id
	EventName string    // reservations.event_name
	Active    bool      // reservations.active
	CreatedAt time.Time // reservations.created_at
	UpdatedAt time.Time // reservations.updated_at
}

// Slot returns the (room, date, shift) triple the reservation occupies.
func (r Reservation) Slot() SlotKey {
	return SlotKey{RoomID: r.RoomID, Date: r.Date, Shift: r.Shift}
}

// SlotKey identifies the unit of contention for booking.
type SlotKey struct {
	RoomID int64
	Date   time.Time
	Shift  Shift
}

// Slot is an available (room, shift) pair on a given date, denormalised
// with the room details a caller needs to present a choice.
type Slot struct {
	RoomID   int64
	RoomName string
	Capacity int
	Shift    Shift
}

// ReportRow is one line of a reservations report: an active reservation
// joined with its client and room.
type ReportRow struct {
	Folio        int64
	Date         time.Time
	ClientName   string
	RoomID       int64
	RoomName     string
	RoomCapacity int
	Shift        Shift
	EventName    string
}

// Day truncates t to its calendar date and returns that date at midnight
// UTC, the canonical form used for every reservation date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a reservation date in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
