package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/event-reservation/internal/apperror"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/repository"
)

// EventService is the catalog: event CRUD with validation, filtered
// listings and the public OPEN-first listing.
type EventService struct {
	events EventStore
}

func NewEventService(events EventStore) *EventService {
	return &EventService{events: events}
}

// EventInput is used for both create and partial update. Dates are ISO-8601
// strings; nil fields are left unchanged on update.
type EventInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Venue       *string `json:"venue"`
	Country     *string `json:"country"`
	City        *string `json:"city"`
	Status      *string `json:"status"`
	MaxCapacity *int    `json:"maxCapacity"`
	PriceCents  *int64  `json:"priceCents"`
}

// Create validates in and stores a new event. Status defaults to OPEN.
func (s *EventService) Create(ctx context.Context, in EventInput) (model.Event, error) {
	missing := []struct {
		field  string
		absent bool
	}{
		{"name", in.Name == nil},
		{"startDate", in.StartDate == nil},
		{"endDate", in.EndDate == nil},
		{"venue", in.Venue == nil},
		{"country", in.Country == nil},
		{"city", in.City == nil},
		{"maxCapacity", in.MaxCapacity == nil},
		{"priceCents", in.PriceCents == nil},
	}
	for _, m := range missing {
		if m.absent {
			return model.Event{}, apperror.Validation(m.field + " is required")
		}
	}

	e := model.Event{Status: model.EventOpen}
	if err := apply(&e, in); err != nil {
		return model.Event{}, err
	}
	if e.StartDate.After(e.EndDate) {
		return model.Event{}, apperror.Validation("startDate must not be after endDate")
	}
	if err := s.events.Create(ctx, &e); err != nil {
		return model.Event{}, apperror.Internal("could not create event", err)
	}
	return e, nil
}

// apply copies every supplied field of in onto e, validating each against
// its own constraint.
func apply(e *model.Event, in EventInput) error {
	var err error
	if in.Name != nil {
		if e.Name, err = required("name", *in.Name); err != nil {
			return err
		}
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.StartDate != nil {
		if e.StartDate, err = parseDate("startDate", *in.StartDate); err != nil {
			return err
		}
	}
	if in.EndDate != nil {
		if e.EndDate, err = parseDate("endDate", *in.EndDate); err != nil {
			return err
		}
	}
	if in.Venue != nil {
		if e.Venue, err = required("venue", *in.Venue); err != nil {
			return err
		}
	}
	if in.Country != nil {
		if e.Country, err = required("country", *in.Country); err != nil {
			return err
		}
	}
	if in.City != nil {
		if e.City, err = required("city", *in.City); err != nil {
			return err
		}
	}
	if in.Status != nil {
		st := model.EventStatus(strings.ToUpper(strings.TrimSpace(*in.Status)))
		if !st.Valid() {
			return apperror.Validation("status must be one of OPEN, ONGOING, CANCELLED, DONE")
		}
		e.Status = st
	}
	if in.MaxCapacity != nil {
		if *in.MaxCapacity <= 0 {
			return apperror.Validation("maxCapacity must be greater than 0")
		}
		e.MaxCapacity = *in.MaxCapacity
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return apperror.Validation("priceCents must not be negative")
		}
		e.PriceCents = *in.PriceCents
	}
	return nil
}

// Get returns an active event with its held-seat count.
func (s *EventService) Get(ctx context.Context, id uint64) (model.EventWithCount, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return model.EventWithCount{}, orNotFound(err, apperror.ErrEventNotFound, "could not load event")
	}
	out, err := s.withCounts(ctx, []model.Event{e})
	if err != nil {
		return model.EventWithCount{}, err
	}
	return out[0], nil
}

// List returns active events matching f ordered by start date.
func (s *EventService) List(ctx context.Context, f model.EventFilter) ([]model.EventWithCount, error) {
	if f.Status != "" {
		f.Status = model.EventStatus(strings.ToUpper(string(f.Status)))
		if !f.Status.Valid() {
			return nil, apperror.Validation("status must be one of OPEN, ONGOING, CANCELLED, DONE")
		}
	}
	events, err := s.events.List(ctx, f)
	if err != nil {
		return nil, apperror.Internal("could not list events", err)
	}
	return s.withCounts(ctx, events)
}

// ListPublicSorted lists active events with OPEN ones first. Within a
// status the start-date order is kept.
func (s *EventService) ListPublicSorted(ctx context.Context, country, city string) ([]model.EventWithCount, error) {
	events, err := s.List(ctx, model.EventFilter{Country: country, City: city})
	if err != nil {
		return nil, err
	}
	SortOpenFirst(events)
	return events, nil
}

// SortOpenFirst stable-sorts OPEN events before all others, then groups the
// remaining statuses by name.
func SortOpenFirst(events []model.EventWithCount) {
	rank := func(s model.EventStatus) string {
		if s == model.EventOpen {
			return ""
		}
		return string(s)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return rank(events[i].Status) < rank(events[j].Status)
	})
}

func (s *EventService) withCounts(ctx context.Context, events []model.Event) ([]model.EventWithCount, error) {
	ids := make([]uint64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	counts, err := s.events.CountHeldSeats(ctx, ids)
	if err != nil {
		return nil, apperror.Internal("could not count reservations", err)
	}
	out := make([]model.EventWithCount, len(events))
	for i, e := range events {
		out[i] = model.EventWithCount{Event: e, ReservationCount: counts[e.ID]}
	}
	return out, nil
}

// Update applies a partial update. The start/end order is checked only
// when both dates are supplied.
func (s *EventService) Update(ctx context.Context, id uint64, in EventInput) (model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return model.Event{}, orNotFound(err, apperror.ErrEventNotFound, "could not load event")
	}
	if err := apply(&e, in); err != nil {
		return model.Event{}, err
	}
	if in.StartDate != nil && in.EndDate != nil && e.StartDate.After(e.EndDate) {
		return model.Event{}, apperror.Validation("startDate must not be after endDate")
	}
	if err := s.events.Update(ctx, &e); err != nil {
		if errors.Is(err, repository.ErrCapacityBelowHeld) {
			return model.Event{}, apperror.ErrCapacityBelowHeld
		}
		return model.Event{}, orNotFound(err, apperror.ErrEventNotFound, "could not update event")
	}
	e.UpdatedAt = time.Now().UTC()
	return e, nil
}

// Delete soft-deletes an event. Deleting an already deleted event is
// EVENT_NOT_FOUND.
func (s *EventService) Delete(ctx context.Context, id uint64) error {
	if err := s.events.SoftDelete(ctx, id); err != nil {
		return orNotFound(err, apperror.ErrEventNotFound, "could not delete event")
	}
	return nil
}
