package model

import "time"

// Room is a row of the `rooms` table. Name is unique (case-insensitively)
// and Capacity is always positive.
type Room struct {
	ID        int64     // rooms.id
	Name      string    // rooms.name
	Capacity  int       // rooms.capacity
	CreatedAt time.Time // rooms.created_at
}

// NewRoom trims and validates a room registration.
func NewRoom(name string, capacity int) (Room, error) {
	n, err := CleanName("name", name)
	if err != nil {
		return Room{}, err
	}
	if capacity <= 0 {
		return Room{}, Invalid(KindInvalidCapacity, "capacity", "capacity must be greater than zero")
	}
	return Room{Name: n, Capacity: capacity}, nil
}
