// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/event-reservation/internal/model"
)

// Queue names double as the routing key on the default exchange.
const (
	ReservationCreatedQueue   = "reservation.created"
	ReservationCancelledQueue = "reservation.cancelled"
)

// ReservationEvent is published after a reservation is admitted or
// cancelled. It carries enough for downstream consumers to log or notify
// without querying the primary database.
type ReservationEvent struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservationId"`
	UserID        uint64 `json:"userId"`
	EventID       uint64 `json:"eventId"`
	PriceCents    int64  `json:"priceCents"`
	OccurredAt    string `json:"occurredAt"`
}

// NewReservationEvent builds the payload for res. kind is one of the queue
// names above.
func NewReservationEvent(id, kind string, res model.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		ID:            id,
		Type:          kind,
		ReservationID: res.ID,
		UserID:        res.UserID,
		EventID:       res.EventID,
		PriceCents:    res.PriceCents,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
