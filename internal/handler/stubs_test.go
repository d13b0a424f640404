package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-reservation/internal/authz"
	"github.com/iliyamo/event-reservation/internal/middleware"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/service"
	"github.com/iliyamo/event-reservation/internal/utils"
)

const testSecret = "handler-secret"

func token(t *testing.T, id uint64, role model.Role) string {
	t.Helper()
	at, err := utils.NewAccessToken(testSecret, id, "caller@example.com", string(role), time.Minute, time.Now())
	require.NoError(t, err)
	return at.Token
}

// call sends method path with an optional JSON body and bearer token.
func call(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func authed() echo.MiddlewareFunc { return middleware.JWTAuth(testSecret) }

func gate(res authz.Resource, act authz.Action) echo.MiddlewareFunc {
	return middleware.Authorize(authz.DefaultPolicy(), res, act)
}

type stubAuth struct {
	login   func(email, password string) (service.LoginResult, error)
	refresh func(raw string) (utils.AccessToken, error)
	rotate  func(raw string) (service.TokenPair, error)
	logout  func(callerID uint64, raw string) error
}

func (s *stubAuth) Login(_ context.Context, email, password string) (service.LoginResult, error) {
	return s.login(email, password)
}

func (s *stubAuth) Refresh(_ context.Context, raw string) (utils.AccessToken, error) {
	return s.refresh(raw)
}

func (s *stubAuth) Rotate(_ context.Context, raw string) (service.TokenPair, error) {
	return s.rotate(raw)
}

func (s *stubAuth) Logout(_ context.Context, callerID uint64, raw string) error {
	return s.logout(callerID, raw)
}

type stubUsers struct {
	users   map[uint64]model.User
	deleted []uint64
	lastIn  service.UpdateUserInput
	err     error
}

func (s *stubUsers) Register(_ context.Context, in service.RegisterInput) (model.User, error) {
	if s.err != nil {
		return model.User{}, s.err
	}
	return model.User{ID: 10, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, Role: model.RoleClient}, nil
}

func (s *stubUsers) List(context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubUsers) Get(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, errUserNotFound
	}
	return u, nil
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, errUserNotFound
}

func (s *stubUsers) Update(_ context.Context, _ authz.Subject, id uint64, in service.UpdateUserInput) (model.User, error) {
	s.lastIn = in
	u, ok := s.users[id]
	if !ok {
		return model.User{}, errUserNotFound
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	return u, nil
}

func (s *stubUsers) Delete(_ context.Context, _ authz.Subject, id uint64) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type stubEvents struct {
	events  []model.EventWithCount
	filter  model.EventFilter
	created service.EventInput
	err     error
}

func (s *stubEvents) Create(_ context.Context, in service.EventInput) (model.Event, error) {
	s.created = in
	if s.err != nil {
		return model.Event{}, s.err
	}
	return model.Event{ID: 1, Name: *in.Name, Status: model.EventOpen}, nil
}

func (s *stubEvents) Get(_ context.Context, id uint64) (model.EventWithCount, error) {
	for _, e := range s.events {
		if e.ID == id {
			return e, nil
		}
	}
	return model.EventWithCount{}, errEventNotFound
}

func (s *stubEvents) List(_ context.Context, f model.EventFilter) ([]model.EventWithCount, error) {
	s.filter = f
	return s.events, s.err
}

func (s *stubEvents) ListPublicSorted(_ context.Context, country, city string) ([]model.EventWithCount, error) {
	s.filter = model.EventFilter{Country: country, City: city}
	return s.events, nil
}

func (s *stubEvents) Update(_ context.Context, id uint64, _ service.EventInput) (model.Event, error) {
	if s.err != nil {
		return model.Event{}, s.err
	}
	return model.Event{ID: id}, nil
}

func (s *stubEvents) Delete(context.Context, uint64) error { return s.err }

type stubReservations struct {
	byID      map[uint64]model.ReservationDetail
	createErr error
	created   [2]uint64
	cancelled []uint64
	include   bool
}

func (s *stubReservations) Create(_ context.Context, userID, eventID uint64) (model.Reservation, error) {
	s.created = [2]uint64{userID, eventID}
	if s.createErr != nil {
		return model.Reservation{}, s.createErr
	}
	return model.Reservation{ID: 99, UserID: userID, EventID: eventID, PriceCents: 1000}, nil
}

func (s *stubReservations) Cancel(_ context.Context, id uint64) (model.Reservation, error) {
	s.cancelled = append(s.cancelled, id)
	r := s.byID[id].Reservation
	r.Cancelled = true
	return r, nil
}

func (s *stubReservations) Get(_ context.Context, id uint64) (model.ReservationDetail, error) {
	r, ok := s.byID[id]
	if !ok {
		return model.ReservationDetail{}, errReservationNotFound
	}
	return r, nil
}

func (s *stubReservations) ListByUser(_ context.Context, userID uint64, includeCancelled bool) ([]model.ReservationDetail, error) {
	s.include = includeCancelled
	var out []model.ReservationDetail
	for _, r := range s.byID {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubReservations) ListByEvent(_ context.Context, _ uint64, includeCancelled bool) ([]model.ReservationDetail, error) {
	s.include = includeCancelled
	return []model.ReservationDetail{}, nil
}

func (s *stubReservations) Ticket(r model.ReservationDetail) ([]byte, error) {
	if !r.HoldsSeat() {
		return nil, errReservationNotFound
	}
	return []byte("\x89PNG"), nil
}

type stubReviews struct {
	byID    map[uint64]model.Review
	in      service.CreateReviewInput
	deleted []uint64
}

func (s *stubReviews) Create(_ context.Context, in service.CreateReviewInput) (model.ReviewDetail, error) {
	s.in = in
	return model.ReviewDetail{Review: model.Review{ID: 5, UserID: in.UserID, EventID: in.EventID}}, nil
}

func (s *stubReviews) Get(_ context.Context, id uint64) (model.Review, error) {
	rv, ok := s.byID[id]
	if !ok {
		return model.Review{}, errReviewNotFound
	}
	return rv, nil
}

func (s *stubReviews) Delete(_ context.Context, id uint64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubReviews) ListByEvent(context.Context, uint64) ([]model.ReviewDetail, error) {
	return []model.ReviewDetail{}, nil
}
