package model

import "time"

// EventStatus is the scheduling state of an event. Only OPEN events accept
// reservations.
type EventStatus string

const (
	EventOpen      EventStatus = "OPEN"
	EventOngoing   EventStatus = "ONGOING"
	EventCancelled EventStatus = "CANCELLED"
	EventDone      EventStatus = "DONE"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventOpen, EventOngoing, EventCancelled, EventDone:
		return true
	}
	return false
}

// Event mirrors the `events` table.
//
// Invariants enforced by the catalog service before persistence:
// StartDate <= EndDate, MaxCapacity > 0, PriceCents >= 0.
type Event struct {
	ID          uint64      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Description string      `json:"description" db:"description"`
	StartDate   time.Time   `json:"startDate" db:"start_date"`
	EndDate     time.Time   `json:"endDate" db:"end_date"`
	Venue       string      `json:"venue" db:"venue"`
	Country     string      `json:"country" db:"country"`
	City        string      `json:"city" db:"city"`
	Status      EventStatus `json:"status" db:"status"`
	MaxCapacity int         `json:"maxCapacity" db:"max_capacity"`
	PriceCents  int64       `json:"priceCents" db:"price_cents"`
	Lifecycle   Lifecycle   `json:"-" db:"lifecycle"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
}

// EventWithCount is an event together with its number of held seats
// (active, non-cancelled reservations).
type EventWithCount struct {
	Event
	ReservationCount int `json:"reservationCount"`
}

// EventFilter narrows event listings. Empty fields are ignored.
type EventFilter struct {
	Status  EventStatus
	Country string
	City    string
}

// EventSummary is embedded in reservation and review responses.
type EventSummary struct {
	ID        uint64      `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	StartDate time.Time   `json:"startDate" db:"start_date"`
	EndDate   time.Time   `json:"endDate" db:"end_date"`
	Venue     string      `json:"venue" db:"venue"`
	City      string      `json:"city" db:"city"`
	Country   string      `json:"country" db:"country"`
	Status    EventStatus `json:"status" db:"status"`
}
