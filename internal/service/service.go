// Package service holds the application logic: credentials, users, the
// event catalog, reservation admission and reviews. Services depend on the
// store interfaces below and return *apperror.Error values for every
// failure a client can act on.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/event-reservation/internal/apperror"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	SoftDelete(ctx context.Context, id uint64) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	Rotate(ctx context.Context, oldHash, newHash string, exp, now time.Time) (uint64, error)
	DeleteForUser(ctx context.Context, tokenHash string, userID uint64) (bool, error)
	DeleteAllForUser(ctx context.Context, userID uint64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	List(ctx context.Context, f model.EventFilter) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	SoftDelete(ctx context.Context, id uint64) error
	CountHeldSeats(ctx context.Context, eventIDs []uint64) (map[uint64]int, error)
}

type ReservationStore interface {
	InTx(ctx context.Context, fn func(repository.AdmissionTx) error) error
	GetByID(ctx context.Context, id uint64) (model.ReservationDetail, error)
	ListByUser(ctx context.Context, userID uint64, includeCancelled bool) ([]model.ReservationDetail, error)
	ListByEvent(ctx context.Context, eventID uint64, includeCancelled bool) ([]model.ReservationDetail, error)
}

type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
	GetByID(ctx context.Context, id uint64) (model.Review, error)
	ExistsActive(ctx context.Context, userID, eventID uint64) (bool, error)
	SoftDelete(ctx context.Context, id uint64) error
	ListByEvent(ctx context.Context, eventID uint64) ([]model.ReviewDetail, error)
}

// passOrInternal returns application errors unchanged and wraps anything
// else as INTERNAL with msg as the client-facing text.
func passOrInternal(msg string, err error) error {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperror.Internal(msg, err)
}

// orNotFound maps repository.ErrNotFound to nf.
func orNotFound(err error, nf *apperror.Error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nf
	}
	return passOrInternal(msg, err)
}
