package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-reservation/internal/model"
)

const userColumns = "id, first_name, last_name, email, password_hash, role, birthday, lifecycle, created_at, updated_at"

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u and fills in its ID. The email is normalized first.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password_hash, role, birthday) VALUES (?,?,?,?,?,?)",
		u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, u.Birthday)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.Lifecycle = model.LifecycleActive
	return nil
}

// GetByEmail fetches an active user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE email=? AND lifecycle='ACTIVE' LIMIT 1",
		normalizeEmail(email))
	return u, notFound(err)
}

// GetByID fetches an active user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE id=? AND lifecycle='ACTIVE' LIMIT 1", id)
	return u, notFound(err)
}

// List returns all active users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := r.DB.SelectContext(ctx, &users,
		"SELECT "+userColumns+" FROM users WHERE lifecycle='ACTIVE' ORDER BY id")
	return users, err
}

// Update writes every mutable column of an active user.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET first_name=?, last_name=?, email=?, password_hash=?, role=?, birthday=?
		 WHERE id=? AND lifecycle='ACTIVE'`,
		u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, u.Birthday, u.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return requireAffected(res)
}

// SoftDelete marks an active user as deleted.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET lifecycle='DELETED' WHERE id=? AND lifecycle='ACTIVE'", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
