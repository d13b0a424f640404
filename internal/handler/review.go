package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/authz"
	"github.com/iliyamo/event-reservation/internal/service"
)

// ReviewHandler serves /reviews.
type ReviewHandler struct {
	Reviews ReviewService
	Policy  authz.Policy
}

func NewReviewHandler(r ReviewService, p authz.Policy) *ReviewHandler {
	return &ReviewHandler{Reviews: r, Policy: p}
}

// Create: POST /reviews. userId defaults to the caller; writing a review in
// someone else's name needs the manage-any grant.
func (h *ReviewHandler) Create(c echo.Context) error {
	s, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	var in service.CreateReviewInput
	if err := c.Bind(&in); err != nil {
		return fail(c, errInvalidBody)
	}
	if in.UserID == 0 {
		in.UserID = s.ID
	}
	if !authz.CanActOn(h.Policy, s.Role, s.ID, in.UserID, authz.ResourceReview) {
		return fail(c, errForbidden)
	}
	rv, err := h.Reviews.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, rv)
}

// Delete soft-deletes a review of the caller, or any review for managers.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	rv, err := h.Reviews.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if _, err := ownerOrManager(c, h.Policy, authz.ResourceReview, rv.UserID); err != nil {
		return fail(c, err)
	}
	if err := h.Reviews.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListByEvent: GET /reviews/event/:eventId
func (h *ReviewHandler) ListByEvent(c echo.Context) error {
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return fail(c, err)
	}
	list, err := h.Reviews.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
