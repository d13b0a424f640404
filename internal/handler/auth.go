package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// AuthHandler serves /auth.
type AuthHandler struct {
	Auth AuthService
}

func NewAuthHandler(a AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type accessResp struct {
	AccessToken     string    `json:"accessToken"`
	AccessExpiresAt time.Time `json:"accessTokenExpiresAt"`
}

// Login: POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, errInvalidBody)
	}
	res, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// RefreshToken exchanges a refresh token for a new access token.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return fail(c, errInvalidBody)
	}
	at, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, accessResp{AccessToken: at.Token, AccessExpiresAt: at.Exp})
}

// Rotate replaces the refresh token and returns a new pair.
func (h *AuthHandler) Rotate(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return fail(c, errInvalidBody)
	}
	pair, err := h.Auth.Rotate(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Logout revokes the caller's refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	s, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return fail(c, errInvalidBody)
	}
	if err := h.Auth.Logout(c.Request().Context(), s.ID, req.RefreshToken); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the claims of the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	s, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": s.ID, "email": s.Email, "role": s.Role})
}
