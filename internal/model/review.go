package model

import "time"

// Review is a rating (0–5) with text left by a user for an event.
type Review struct {
	ID        uint64    `json:"id" db:"id"`
	UserID    uint64    `json:"userId" db:"user_id"`
	EventID   uint64    `json:"eventId" db:"event_id"`
	Rating    int       `json:"rating" db:"rating"`
	Text      string    `json:"reviewText" db:"review_text"`
	Lifecycle Lifecycle `json:"lifecycle" db:"lifecycle"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ReviewDetail is a review with user and event summaries attached.
type ReviewDetail struct {
	Review
	User  *UserSummary  `json:"user,omitempty"`
	Event *EventSummary `json:"event,omitempty"`
}
