package model

import "time"

// Reservation records a user's place at an event.
//
// Fields:
//
//	PriceCents – snapshot of the event price at admission; later price
//	             changes on the event never touch it.
//	Cancelled  – set by cancellation; the row is kept and stops counting
//	             against capacity.
//	Lifecycle  – at most one ACTIVE reservation exists per (UserID, EventID).
type Reservation struct {
	ID         uint64    `json:"id" db:"id"`
	UserID     uint64    `json:"userId" db:"user_id"`
	EventID    uint64    `json:"eventId" db:"event_id"`
	PriceCents int64     `json:"priceCents" db:"price_cents"`
	Cancelled  bool      `json:"isCancelled" db:"is_cancelled"`
	Lifecycle  Lifecycle `json:"lifecycle" db:"lifecycle"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// HoldsSeat reports whether the reservation counts against capacity.
func (r Reservation) HoldsSeat() bool {
	return r.Lifecycle == LifecycleActive && !r.Cancelled
}

// ReservationDetail is a reservation with user and event summaries attached.
type ReservationDetail struct {
	Reservation
	User  *UserSummary  `json:"user,omitempty"`
	Event *EventSummary `json:"event,omitempty"`
}
