package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/service"
)

// EventHandler serves /events.
type EventHandler struct {
	Events EventService
}

func NewEventHandler(e EventService) *EventHandler {
	return &EventHandler{Events: e}
}

// List supports ?status=&country=&city= filters.
func (h *EventHandler) List(c echo.Context) error {
	f := model.EventFilter{
		Status:  model.EventStatus(strings.TrimSpace(c.QueryParam("status"))),
		Country: strings.TrimSpace(c.QueryParam("country")),
		City:    strings.TrimSpace(c.QueryParam("city")),
	}
	events, err := h.Events.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

// PublicSorted: GET /events/public/sorted, OPEN events first.
func (h *EventHandler) PublicSorted(c echo.Context) error {
	events, err := h.Events.ListPublicSorted(c.Request().Context(),
		strings.TrimSpace(c.QueryParam("country")),
		strings.TrimSpace(c.QueryParam("city")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ev, err := h.Events.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *EventHandler) Create(c echo.Context) error {
	var in service.EventInput
	if err := c.Bind(&in); err != nil {
		return fail(c, errInvalidBody)
	}
	ev, err := h.Events.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

func (h *EventHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var in service.EventInput
	if err := c.Bind(&in); err != nil {
		return fail(c, errInvalidBody)
	}
	ev, err := h.Events.Update(c.Request().Context(), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *EventHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Events.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
