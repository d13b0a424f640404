package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/event-reservation/internal/apperror"
	"github.com/iliyamo/event-reservation/internal/authz"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/repository"
	"github.com/iliyamo/event-reservation/internal/utils"
)

type UserService struct {
	users      UserStore
	tokens     TokenStore
	policy     authz.Policy
	bcryptCost int
}

func NewUserService(users UserStore, tokens TokenStore, policy authz.Policy, bcryptCost int) *UserService {
	return &UserService{users: users, tokens: tokens, policy: policy, bcryptCost: bcryptCost}
}

type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Birthday  string `json:"birthday"`
}

// UpdateUserInput carries a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	FirstName *string     `json:"firstName"`
	LastName  *string     `json:"lastName"`
	Email     *string     `json:"email"`
	Password  *string     `json:"password"`
	Birthday  *string     `json:"birthday"`
	Role      *model.Role `json:"role"`
}

// Register creates a CLIENT account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	var (
		u   = model.User{Role: model.RoleClient}
		err error
	)
	if u.FirstName, err = required("firstName", in.FirstName); err != nil {
		return model.User{}, err
	}
	if u.LastName, err = required("lastName", in.LastName); err != nil {
		return model.User{}, err
	}
	if u.Email, err = s.checkEmail(in.Email); err != nil {
		return model.User{}, err
	}
	if u.Birthday, err = parseDate("birthday", in.Birthday); err != nil {
		return model.User{}, err
	}
	if u.PasswordHash, err = s.hash(in.Password); err != nil {
		return model.User{}, err
	}

	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, apperror.ErrEmailTaken
		}
		return model.User{}, apperror.Internal("could not create user", err)
	}
	return u, nil
}

func (s *UserService) checkEmail(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if !validEmail(v) {
		return "", apperror.Validation("email must be a valid address")
	}
	return v, nil
}

func (s *UserService) hash(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", apperror.Validation("password must be at least 6 characters")
	}
	h, err := utils.HashPassword(password, s.bcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", apperror.Validation("password must be at most 72 bytes")
	}
	if err != nil {
		return "", apperror.Internal("could not hash password", err)
	}
	return h, nil
}

// List returns every active user.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperror.Internal("could not list users", err)
	}
	return users, nil
}

// Get returns an active user.
func (s *UserService) Get(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, orNotFound(err, apperror.ErrUserNotFound, "could not load user")
	}
	return u, nil
}

// FindByEmail returns the active user with the given email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (model.User, error) {
	if strings.TrimSpace(email) == "" {
		return model.User{}, apperror.Validation("email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return model.User{}, orNotFound(err, apperror.ErrUserNotFound, "could not load user")
	}
	return u, nil
}

// mayModify rejects a caller acting on another administrator's account
// unless the caller may assign roles.
func (s *UserService) mayModify(caller authz.Subject, target model.User) error {
	if caller.ID == target.ID {
		return nil
	}
	if s.policy.Allows(target.Role, authz.ResourceUser, authz.ActionManageAny) &&
		!s.policy.Allows(caller.Role, authz.ResourceUser, authz.ActionAssignRole) {
		return apperror.ErrPrivilegedTarget
	}
	return nil
}

// Update applies a partial update. Only callers allowed to assign roles
// may change the role or touch another administrator.
func (s *UserService) Update(ctx context.Context, caller authz.Subject, id uint64, in UpdateUserInput) (model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if err := s.mayModify(caller, u); err != nil {
		return model.User{}, err
	}

	if in.FirstName != nil {
		if u.FirstName, err = required("firstName", *in.FirstName); err != nil {
			return model.User{}, err
		}
	}
	if in.LastName != nil {
		if u.LastName, err = required("lastName", *in.LastName); err != nil {
			return model.User{}, err
		}
	}
	if in.Email != nil {
		if u.Email, err = s.checkEmail(*in.Email); err != nil {
			return model.User{}, err
		}
	}
	if in.Birthday != nil {
		if u.Birthday, err = parseDate("birthday", *in.Birthday); err != nil {
			return model.User{}, err
		}
	}
	if in.Password != nil {
		if u.PasswordHash, err = s.hash(*in.Password); err != nil {
			return model.User{}, err
		}
	}
	if in.Role != nil && *in.Role != u.Role {
		if !in.Role.Valid() {
			return model.User{}, apperror.Validation("role must be one of CLIENT, ADMIN, SUPER_ADMIN")
		}
		if !s.policy.Allows(caller.Role, authz.ResourceUser, authz.ActionAssignRole) {
			return model.User{}, apperror.ErrRoleForbidden
		}
		u.Role = *in.Role
	}

	if err := s.users.Update(ctx, &u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return model.User{}, apperror.ErrEmailTaken
		case errors.Is(err, repository.ErrNotFound):
			return model.User{}, apperror.ErrUserNotFound
		}
		return model.User{}, apperror.Internal("could not update user", err)
	}
	return u, nil
}

// Delete soft-deletes a user and revokes all of its refresh tokens.
func (s *UserService) Delete(ctx context.Context, caller authz.Subject, id uint64) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.mayModify(caller, u); err != nil {
		return err
	}
	if err := s.users.SoftDelete(ctx, id); err != nil {
		return orNotFound(err, apperror.ErrUserNotFound, "could not delete user")
	}
	if err := s.tokens.DeleteAllForUser(ctx, id); err != nil {
		return apperror.Internal("could not revoke tokens", err)
	}
	return nil
}
