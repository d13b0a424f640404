package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/event-reservation/internal/apperror"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/repository"
	"github.com/iliyamo/event-reservation/internal/utils"
)

// AuthConfig holds token settings.
type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthService issues, refreshes and revokes credentials. Access tokens are
// signed JWTs; refresh tokens are opaque and only valid while their stored
// row exists and has not expired.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	cfg    AuthConfig
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, cfg AuthConfig) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg, now: time.Now}
}

// TokenPair is an access token plus a refresh token.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// LoginResult is returned by Login.
type LoginResult struct {
	User model.UserResponse `json:"user"`
	TokenPair
}

// Login checks the password of an active user and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return LoginResult{}, apperror.Validation("email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.VerifyPassword("", password)
			return LoginResult{}, apperror.ErrInvalidCredentials
		}
		return LoginResult{}, apperror.Internal("login failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, apperror.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u.Response(), TokenPair: pair}, nil
}

// IssueAccessToken signs a short-lived token carrying id, email and role.
func (s *AuthService) IssueAccessToken(u model.User) (utils.AccessToken, error) {
	at, err := utils.NewAccessToken(s.cfg.Secret, u.ID, u.Email, string(u.Role), s.cfg.AccessTTL, s.now())
	if err != nil {
		return utils.AccessToken{}, apperror.Internal("could not issue token", err)
	}
	return at, nil
}

func (s *AuthService) issuePair(ctx context.Context, u model.User) (TokenPair, error) {
	at, err := s.IssueAccessToken(u)
	if err != nil {
		return TokenPair{}, err
	}
	rt, err := utils.NewRefreshToken(s.cfg.RefreshTTL, s.now())
	if err != nil {
		return TokenPair{}, apperror.Internal("could not issue token", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return TokenPair{}, apperror.Internal("could not store token", err)
	}
	return TokenPair{AccessToken: at.Token, AccessExpiresAt: at.Exp, RefreshToken: rt.Raw, RefreshExpiresAt: rt.Exp}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself stays valid.
func (s *AuthService) Refresh(ctx context.Context, raw string) (utils.AccessToken, error) {
	if raw == "" {
		return utils.AccessToken{}, apperror.ErrInvalidOrExpiredRefreshToken
	}
	userID, err := s.tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(raw), s.now())
	if err != nil {
		return utils.AccessToken{}, orNotFound(err, apperror.ErrInvalidOrExpiredRefreshToken, "refresh failed")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return utils.AccessToken{}, orNotFound(err, apperror.ErrInvalidOrExpiredRefreshToken, "refresh failed")
	}
	return s.IssueAccessToken(u)
}

// Rotate deletes the presented refresh token and returns a fresh pair.
func (s *AuthService) Rotate(ctx context.Context, raw string) (TokenPair, error) {
	if raw == "" {
		return TokenPair{}, apperror.ErrInvalidOrExpiredRefreshToken
	}
	now := s.now()
	rt, err := utils.NewRefreshToken(s.cfg.RefreshTTL, now)
	if err != nil {
		return TokenPair{}, apperror.Internal("could not issue token", err)
	}
	userID, err := s.tokens.Rotate(ctx, utils.HashRefreshRaw(raw), utils.HashRefreshRaw(rt.Raw), rt.Exp, now)
	if err != nil {
		return TokenPair{}, orNotFound(err, apperror.ErrInvalidOrExpiredRefreshToken, "rotate failed")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, orNotFound(err, apperror.ErrInvalidOrExpiredRefreshToken, "rotate failed")
	}
	at, err := s.IssueAccessToken(u)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: at.Token, AccessExpiresAt: at.Exp, RefreshToken: rt.Raw, RefreshExpiresAt: rt.Exp}, nil
}

// Logout revokes raw if it belongs to callerID. An unknown or foreign token
// is ignored so logout never reveals which tokens exist.
func (s *AuthService) Logout(ctx context.Context, callerID uint64, raw string) error {
	if raw == "" {
		return apperror.Validation("refreshToken is required")
	}
	if _, err := s.tokens.DeleteForUser(ctx, utils.HashRefreshRaw(raw), callerID); err != nil {
		return apperror.Internal("logout failed", err)
	}
	return nil
}

// PurgeExpired removes expired refresh tokens and returns how many.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}
