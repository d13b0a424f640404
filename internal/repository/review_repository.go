package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-reservation/internal/model"
)

const reviewColumns = "id, user_id, event_id, rating, review_text, lifecycle, created_at, updated_at"

type ReviewRepo struct{ DB *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// Create inserts rv and reloads it.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (user_id, event_id, rating, review_text) VALUES (?,?,?,?)",
		rv.UserID, rv.EventID, rv.Rating, rv.Text)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return r.DB.GetContext(ctx, rv, "SELECT "+reviewColumns+" FROM reviews WHERE id=?", uint64(id))
}

// GetByID returns an active review.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	var rv model.Review
	err := r.DB.GetContext(ctx, &rv,
		"SELECT "+reviewColumns+" FROM reviews WHERE id=? AND lifecycle='ACTIVE'", id)
	return rv, notFound(err)
}

// ExistsActive reports whether the user already has an active review for
// the event.
func (r *ReviewRepo) ExistsActive(ctx context.Context, userID, eventID uint64) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM reviews WHERE user_id=? AND event_id=? AND lifecycle='ACTIVE'",
		userID, eventID)
	return n > 0, err
}

// SoftDelete marks an active review deleted.
func (r *ReviewRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reviews SET lifecycle='DELETED' WHERE id=? AND lifecycle='ACTIVE'", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ListByEvent returns active reviews of an event with author summaries,
// newest first.
func (r *ReviewRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.ReviewDetail, error) {
	var rows []struct {
		model.Review
		FirstName string `db:"u_first_name"`
		LastName  string `db:"u_last_name"`
		Email     string `db:"u_email"`
	}
	err := r.DB.SelectContext(ctx, &rows,
		`SELECT rv.id, rv.user_id, rv.event_id, rv.rating, rv.review_text, rv.lifecycle,
		        rv.created_at, rv.updated_at,
		        u.first_name AS u_first_name, u.last_name AS u_last_name, u.email AS u_email
		 FROM reviews rv
		 JOIN users u ON u.id = rv.user_id
		 WHERE rv.event_id=? AND rv.lifecycle='ACTIVE'
		 ORDER BY rv.created_at DESC, rv.id DESC`, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]model.ReviewDetail, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.ReviewDetail{
			Review: row.Review,
			User: &model.UserSummary{
				ID:        row.UserID,
				FirstName: row.FirstName,
				LastName:  row.LastName,
				Email:     row.Email,
			},
		})
	}
	return out, nil
}
