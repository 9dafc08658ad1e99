package model

import (
	"strconv"
	"strings"
)

// Shift is one of the three fixed daily blocks a room can be booked for.
// The numeric value is the stable code stored in shifts.id.
type Shift uint8

const (
	ShiftMorning   Shift = 1
	ShiftAfternoon Shift = 2
	ShiftEvening   Shift = 3
)

// Shifts returns every shift in code order.
func Shifts() []Shift {
	return []Shift{ShiftMorning, ShiftAfternoon, ShiftEvening}
}

// Valid reports whether s is one of the three known codes.
func (s Shift) Valid() bool {
	return s >= ShiftMorning && s <= ShiftEvening
}

func (s Shift) String() string {
	switch s {
	case ShiftMorning:
		return "Morning"
	case ShiftAfternoon:
		return "Afternoon"
	case ShiftEvening:
		return "Evening"
	}
	return "Shift(" + strconv.Itoa(int(s)) + ")"
}

// ParseShift accepts a shift name in any letter case or its numeric code.
func ParseShift(raw string) (Shift, error) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		if sh := Shift(n); n > 0 && n < 256 && sh.Valid() {
			return sh, nil
		}
		return 0, Invalid(KindInvalidShift, "shift", "unknown shift code "+s)
	}
	for _, sh := range Shifts() {
		if strings.EqualFold(s, sh.String()) {
			return sh, nil
		}
	}
	return 0, Invalid(KindInvalidShift, "shift", "shift must be Morning, Afternoon or Evening")
}

// MarshalText renders the shift name so JSON payloads read naturally.
func (s Shift) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the same inputs as ParseShift.
func (s *Shift) UnmarshalText(b []byte) error {
	sh, err := ParseShift(string(b))
	if err != nil {
		return err
	}
	*s = sh
	return nil
}
