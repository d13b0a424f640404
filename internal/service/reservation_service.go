package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/event-reservation/internal/apperror"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/queue"
	"github.com/iliyamo/event-reservation/internal/repository"
	"github.com/iliyamo/event-reservation/internal/utils"
)

const publishTimeout = 5 * time.Second

// ReservationService is the reservation core. Admission and cancellation
// run inside one store transaction holding the event (or reservation) row
// lock, so concurrent requests for the same event are decided one at a
// time while other events proceed in parallel.
type ReservationService struct {
	store     ReservationStore
	publisher EventPublisher
	now       func() time.Time
}

func NewReservationService(store ReservationStore, publisher EventPublisher) *ReservationService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &ReservationService{store: store, publisher: publisher, now: time.Now}
}

// Create admits userID to eventID. Checks run in order: ids present, user
// active, event active and OPEN, no existing reservation, a free seat. The
// price is snapshotted from the locked event row.
func (s *ReservationService) Create(ctx context.Context, userID, eventID uint64) (model.Reservation, error) {
	if userID == 0 || eventID == 0 {
		return model.Reservation{}, apperror.Validation("userId and eventId are required")
	}

	var res model.Reservation
	err := s.store.InTx(ctx, func(tx repository.AdmissionTx) error {
		ok, err := tx.ActiveUserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ErrUserNotFound
		}

		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.ErrEventNotAvailable.WithKind(apperror.KindNotFound)
			}
			return err
		}
		if ev.Status != model.EventOpen {
			return apperror.ErrEventNotAvailable
		}

		dup, err := tx.HasActiveReservation(ctx, userID, eventID)
		if err != nil {
			return err
		}
		if dup {
			return apperror.ErrDuplicateReservation
		}

		held, err := tx.CountHeldSeats(ctx, eventID)
		if err != nil {
			return err
		}
		if held >= ev.MaxCapacity {
			return apperror.ErrCapacityExceeded
		}

		res = model.Reservation{UserID: userID, EventID: eventID, PriceCents: ev.PriceCents}
		if err := tx.InsertReservation(ctx, &res); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperror.ErrDuplicateReservation
			}
			return err
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, passOrInternal("could not create reservation", err)
	}

	s.publish(ctx, queue.ReservationCreatedQueue, res)
	return res, nil
}

// Cancel sets the cancelled flag on an active reservation whose event has
// not started yet. The row is kept.
func (s *ReservationService) Cancel(ctx context.Context, id uint64) (model.Reservation, error) {
	var res model.Reservation
	err := s.store.InTx(ctx, func(tx repository.AdmissionTx) error {
		r, err := tx.LockReservation(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.ErrReservationNotFound
			}
			return err
		}
		if r.Cancelled {
			return apperror.ErrReservationNotFound
		}

		start, err := tx.EventStart(ctx, r.EventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.ErrEventNotFound
			}
			return err
		}
		if !start.After(s.now()) {
			return apperror.ErrEventAlreadyStarted
		}

		if err := tx.MarkCancelled(ctx, id); err != nil {
			return err
		}
		r.Cancelled = true
		res = r
		return nil
	})
	if err != nil {
		return model.Reservation{}, passOrInternal("could not cancel reservation", err)
	}

	s.publish(ctx, queue.ReservationCancelledQueue, res)
	return res, nil
}

// publish sends the domain event in the background. Failures are logged and
// never reach the caller.
func (s *ReservationService) publish(ctx context.Context, queueName string, res model.Reservation) {
	ev := queue.NewReservationEvent(uuid.NewString(), queueName, res, s.now())
	go func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(pctx, queueName, ev); err != nil {
			log.Warn().Err(err).
				Str("queue", queueName).
				Uint64("reservation_id", res.ID).
				Msg("reservation event not published")
		}
	}()
}

// Get returns an active reservation with user and event summaries.
func (s *ReservationService) Get(ctx context.Context, id uint64) (model.ReservationDetail, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.ReservationDetail{}, orNotFound(err, apperror.ErrReservationNotFound, "could not load reservation")
	}
	return r, nil
}

// ListByUser lists a user's reservations; cancelled ones only on request.
func (s *ReservationService) ListByUser(ctx context.Context, userID uint64, includeCancelled bool) ([]model.ReservationDetail, error) {
	list, err := s.store.ListByUser(ctx, userID, includeCancelled)
	if err != nil {
		return nil, apperror.Internal("could not list reservations", err)
	}
	return list, nil
}

// ListByEvent lists an event's reservations; cancelled ones only on request.
func (s *ReservationService) ListByEvent(ctx context.Context, eventID uint64, includeCancelled bool) ([]model.ReservationDetail, error) {
	list, err := s.store.ListByEvent(ctx, eventID, includeCancelled)
	if err != nil {
		return nil, apperror.Internal("could not list reservations", err)
	}
	return list, nil
}

// Ticket renders a PNG QR code for a reservation that still holds a seat.
func (s *ReservationService) Ticket(r model.ReservationDetail) ([]byte, error) {
	if !r.HoldsSeat() {
		return nil, apperror.ErrReservationNotFound
	}
	png, err := utils.RenderTicket(utils.TicketPayload(r.ID, r.EventID, r.UserID), 256)
	if err != nil {
		return nil, apperror.Internal("could not render ticket", err)
	}
	return png, nil
}
