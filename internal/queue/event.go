// Package queue carries reservation lifecycle events over RabbitMQ: the
// ledger publishes one event per committed write and the audit consumer
// appends them to a log file.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// DefaultQueueName is the durable queue events are routed to.
const DefaultQueueName = "reservation.events"

// EventType identifies what happened to a reservation.
type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationRenamed   EventType = "reservation.renamed"
)

// ReservationEvent is published after a reservation write commits. It holds
// enough information for downstream consumers to log or notify without
// querying the primary database.
type ReservationEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Folio      int64     `json:"folio"`
	ClientID   int64     `json:"client_id"`
	RoomID     int64     `json:"room_id"`
	Date       string    `json:"date"`
	Shift      string    `json:"shift"`
	EventName  string    `json:"event_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewReservationEvent stamps a fresh event id and the occurrence time.
func NewReservationEvent(typ EventType, at time.Time) ReservationEvent {
	return ReservationEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: at.UTC(),
	}
}
