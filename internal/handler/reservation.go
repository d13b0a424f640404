package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/authz"
)

// ReservationHandler serves /reservations. Clients act on their own
// reservations; callers allowed to manage any reservation act on all.
type ReservationHandler struct {
	Reservations ReservationService
	Policy       authz.Policy
}

func NewReservationHandler(r ReservationService, p authz.Policy) *ReservationHandler {
	return &ReservationHandler{Reservations: r, Policy: p}
}

// createReservationReq: userId defaults to the caller.
type createReservationReq struct {
	UserID  uint64 `json:"userId"`
	EventID uint64 `json:"eventId"`
}

func (h *ReservationHandler) Create(c echo.Context) error {
	s, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, errInvalidBody)
	}
	if req.UserID == 0 {
		req.UserID = s.ID
	}
	if !authz.CanActOn(h.Policy, s.Role, s.ID, req.UserID, authz.ResourceReservation) {
		return fail(c, errForbidden)
	}
	res, err := h.Reservations.Create(c.Request().Context(), req.UserID, req.EventID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	r, err := h.Reservations.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if _, err := ownerOrManager(c, h.Policy, authz.ResourceReservation, r.UserID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Cancel: PUT /reservations/:id/cancel
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	r, err := h.Reservations.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if _, err := ownerOrManager(c, h.Policy, authz.ResourceReservation, r.UserID); err != nil {
		return fail(c, err)
	}
	res, err := h.Reservations.Cancel(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Ticket returns the reservation's QR code as a PNG.
func (h *ReservationHandler) Ticket(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	r, err := h.Reservations.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if _, err := ownerOrManager(c, h.Policy, authz.ResourceReservation, r.UserID); err != nil {
		return fail(c, err)
	}
	png, err := h.Reservations.Ticket(r)
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`inline; filename="ticket-`+strconv.FormatUint(r.ID, 10)+`.png"`)
	return c.Blob(http.StatusOK, "image/png", png)
}

// ListByUser: GET /reservations/user/:userId?includeCancelled=true
func (h *ReservationHandler) ListByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return fail(c, err)
	}
	if _, err := ownerOrManager(c, h.Policy, authz.ResourceReservation, userID); err != nil {
		return fail(c, err)
	}
	include, err := queryBool(c, "includeCancelled")
	if err != nil {
		return fail(c, err)
	}
	list, err := h.Reservations.ListByUser(c.Request().Context(), userID, include)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// ListByEvent: GET /reservations/event/:eventId?includeCancelled=true.
// The route is mounted behind the manage-any gate.
func (h *ReservationHandler) ListByEvent(c echo.Context) error {
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return fail(c, err)
	}
	include, err := queryBool(c, "includeCancelled")
	if err != nil {
		return fail(c, err)
	}
	list, err := h.Reservations.ListByEvent(c.Request().Context(), eventID, include)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
