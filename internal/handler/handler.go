// Package handler holds the echo handlers. Handlers bind and validate the
// request shape, check record ownership against the authorization policy
// and translate service errors into HTTP responses.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/apperror"
	"github.com/iliyamo/event-reservation/internal/authz"
	"github.com/iliyamo/event-reservation/internal/logger"
	"github.com/iliyamo/event-reservation/internal/middleware"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/service"
	"github.com/iliyamo/event-reservation/internal/utils"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
	Refresh(ctx context.Context, raw string) (utils.AccessToken, error)
	Rotate(ctx context.Context, raw string) (service.TokenPair, error)
	Logout(ctx context.Context, callerID uint64, raw string) error
}

type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id uint64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Update(ctx context.Context, caller authz.Subject, id uint64, in service.UpdateUserInput) (model.User, error)
	Delete(ctx context.Context, caller authz.Subject, id uint64) error
}

type EventService interface {
	Create(ctx context.Context, in service.EventInput) (model.Event, error)
	Get(ctx context.Context, id uint64) (model.EventWithCount, error)
	List(ctx context.Context, f model.EventFilter) ([]model.EventWithCount, error)
	ListPublicSorted(ctx context.Context, country, city string) ([]model.EventWithCount, error)
	Update(ctx context.Context, id uint64, in service.EventInput) (model.Event, error)
	Delete(ctx context.Context, id uint64) error
}

type ReservationService interface {
	Create(ctx context.Context, userID, eventID uint64) (model.Reservation, error)
	Cancel(ctx context.Context, id uint64) (model.Reservation, error)
	Get(ctx context.Context, id uint64) (model.ReservationDetail, error)
	ListByUser(ctx context.Context, userID uint64, includeCancelled bool) ([]model.ReservationDetail, error)
	ListByEvent(ctx context.Context, eventID uint64, includeCancelled bool) ([]model.ReservationDetail, error)
	Ticket(r model.ReservationDetail) ([]byte, error)
}

type ReviewService interface {
	Create(ctx context.Context, in service.CreateReviewInput) (model.ReviewDetail, error)
	Get(ctx context.Context, id uint64) (model.Review, error)
	Delete(ctx context.Context, id uint64) error
	ListByEvent(ctx context.Context, eventID uint64) ([]model.ReviewDetail, error)
}

var (
	errInvalidBody = apperror.Validation("invalid request body")
	errForbidden   = apperror.Forbidden("you may not access this resource")
)

func statusOf(k apperror.Kind) int {
	switch k {
	case apperror.KindValidation, apperror.KindBusinessRule:
		return http.StatusBadRequest
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"error", "code"}. Anything that is not an
// *apperror.Error is reported as a generic internal error; internal errors
// are logged with their cause.
func fail(c echo.Context, err error) error {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		ae = apperror.Internal("internal server error", err)
	}
	if ae.Kind == apperror.KindInternal {
		logger.FromContext(c.Request().Context()).Error().
			Err(err).
			Str("code", ae.Code).
			Str("path", c.Path()).
			Msg(ae.Message)
	}
	return c.JSON(statusOf(ae.Kind), echo.Map{"error": ae.Message, "code": ae.Code})
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation(name + " must be a positive integer")
	}
	return id, nil
}

func queryBool(c echo.Context, name string) (bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperror.Validation(name + " must be true or false")
	}
	return b, nil
}

// caller returns the authenticated subject. Routes that call it are
// mounted behind JWTAuth, so a missing subject is a wiring error reported
// as unauthorized.
func caller(c echo.Context) (authz.Subject, error) {
	s, ok := middleware.CurrentSubject(c)
	if !ok {
		return authz.Subject{}, apperror.ErrUnauthorized
	}
	return s, nil
}

// ownerOrManager fails with FORBIDDEN unless the caller owns the record or
// may manage anyone's records of res.
func ownerOrManager(c echo.Context, p authz.Policy, res authz.Resource, ownerID uint64) (authz.Subject, error) {
	s, err := caller(c)
	if err != nil {
		return s, err
	}
	if !authz.CanActOn(p, s.Role, s.ID, ownerID, res) {
		return s, errForbidden
	}
	return s, nil
}

func usersResponse(users []model.User) []model.UserResponse {
	out := make([]model.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.Response()
	}
	return out
}
