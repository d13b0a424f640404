package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-reservation/internal/authz"
	"github.com/iliyamo/event-reservation/internal/service"
)

// UserHandler serves /users. Registration is public; the other routes are
// limited to the user itself or a caller allowed to manage any user.
type UserHandler struct {
	Users  UserService
	Policy authz.Policy
}

func NewUserHandler(u UserService, p authz.Policy) *UserHandler {
	return &UserHandler{Users: u, Policy: p}
}

type findByEmailReq struct {
	Email string `json:"email"`
}

func (h *UserHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return fail(c, errInvalidBody)
	}
	u, err := h.Users.Register(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, u.Response())
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, usersResponse(users))
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if _, err := ownerOrManager(c, h.Policy, authz.ResourceUser, id); err != nil {
		return fail(c, err)
	}
	u, err := h.Users.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u.Response())
}

// FindByEmail: POST /users/find-by-email
func (h *UserHandler) FindByEmail(c echo.Context) error {
	var req findByEmailReq
	if err := c.Bind(&req); err != nil {
		return fail(c, errInvalidBody)
	}
	u, err := h.Users.FindByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u.Response())
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	s, err := ownerOrManager(c, h.Policy, authz.ResourceUser, id)
	if err != nil {
		return fail(c, err)
	}
	var in service.UpdateUserInput
	if err := c.Bind(&in); err != nil {
		return fail(c, errInvalidBody)
	}
	u, err := h.Users.Update(c.Request().Context(), s, id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u.Response())
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	s, err := ownerOrManager(c, h.Policy, authz.ResourceUser, id)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Users.Delete(c.Request().Context(), s, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
