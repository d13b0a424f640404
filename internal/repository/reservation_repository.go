package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/retry"
)

// AdmissionTx is the set of statements the reservation core runs inside one
// transaction. LockEvent and LockReservation take row locks that are held
// until the transaction ends.
type AdmissionTx interface {
	ActiveUserExists(ctx context.Context, userID uint64) (bool, error)
	LockEvent(ctx context.Context, eventID uint64) (model.Event, error)
	HasActiveReservation(ctx context.Context, userID, eventID uint64) (bool, error)
	CountHeldSeats(ctx context.Context, eventID uint64) (int, error)
	InsertReservation(ctx context.Context, res *model.Reservation) error
	LockReservation(ctx context.Context, id uint64) (model.Reservation, error)
	EventStart(ctx context.Context, eventID uint64) (time.Time, error)
	MarkCancelled(ctx context.Context, id uint64) error
}

// ReservationRepo stores reservations. Writes go through InTx; reads are
// plain queries that never take locks.
type ReservationRepo struct {
	db    *sqlx.DB
	retry retry.Config
}

// NewReservationRepo returns a repo whose transactions are retried up to
// maxAttempts times on deadlock or lock-wait timeout.
func NewReservationRepo(db *sqlx.DB, maxAttempts int) *ReservationRepo {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = maxAttempts
	cfg.ShouldRetry = IsRetryable
	return &ReservationRepo{db: db, retry: cfg}
}

// InTx runs fn in a READ COMMITTED transaction. Under the event row lock,
// READ COMMITTED makes the duplicate and capacity reads see every
// reservation committed by the previous lock holder. The transaction is
// committed when fn returns nil and rolled back otherwise; transient lock
// conflicts re-run fn from scratch.
func (r *ReservationRepo) InTx(ctx context.Context, fn func(AdmissionTx) error) error {
	return retry.Do(ctx, r.retry, func() error {
		tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		if err := fn(&admissionTx{tx: tx}); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true
		return nil
	})
}

type admissionTx struct{ tx *sqlx.Tx }

func (a *admissionTx) ActiveUserExists(ctx context.Context, userID uint64) (bool, error) {
	var n int
	err := a.tx.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM users WHERE id=? AND lifecycle='ACTIVE'", userID)
	return n > 0, err
}

func (a *admissionTx) LockEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	var e model.Event
	err := a.tx.GetContext(ctx, &e,
		`SELECT id, name, description, start_date, end_date, venue, country, city, status,
		        max_capacity, price_cents, lifecycle, created_at, updated_at
		 FROM events WHERE id=? AND lifecycle='ACTIVE' FOR UPDATE`, eventID)
	return e, notFound(err)
}

func (a *admissionTx) HasActiveReservation(ctx context.Context, userID, eventID uint64) (bool, error) {
	var n int
	err := a.tx.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM reservations WHERE user_id=? AND event_id=? AND lifecycle='ACTIVE'",
		userID, eventID)
	return n > 0, err
}

func (a *admissionTx) CountHeldSeats(ctx context.Context, eventID uint64) (int, error) {
	var n int
	err := a.tx.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM reservations WHERE event_id=? AND lifecycle='ACTIVE' AND is_cancelled=FALSE",
		eventID)
	return n, err
}

// InsertReservation inserts res and reloads it so timestamps and defaults
// are populated. A unique-key violation becomes ErrDuplicate.
func (a *admissionTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	result, err := a.tx.ExecContext(ctx,
		"INSERT INTO reservations (user_id, event_id, price_cents) VALUES (?,?,?)",
		res.UserID, res.EventID, res.PriceCents)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	return a.tx.GetContext(ctx, res,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=?", uint64(id))
}

func (a *admissionTx) LockReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	var res model.Reservation
	err := a.tx.GetContext(ctx, &res,
		"SELECT "+reservationColumns+" FROM reservations WHERE id=? AND lifecycle='ACTIVE' FOR UPDATE", id)
	return res, notFound(err)
}

func (a *admissionTx) EventStart(ctx context.Context, eventID uint64) (time.Time, error) {
	var start time.Time
	err := a.tx.GetContext(ctx, &start,
		"SELECT start_date FROM events WHERE id=? AND lifecycle='ACTIVE'", eventID)
	return start, notFound(err)
}

func (a *admissionTx) MarkCancelled(ctx context.Context, id uint64) error {
	res, err := a.tx.ExecContext(ctx,
		"UPDATE reservations SET is_cancelled=TRUE WHERE id=? AND lifecycle='ACTIVE' AND is_cancelled=FALSE", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const reservationColumns = "id, user_id, event_id, price_cents, is_cancelled, lifecycle, created_at, updated_at"

const reservationDetailSelect = `SELECT r.id, r.user_id, r.event_id, r.price_cents, r.is_cancelled, r.lifecycle,
       r.created_at, r.updated_at,
       u.first_name AS u_first_name, u.last_name AS u_last_name, u.email AS u_email,
       e.name AS e_name, e.start_date AS e_start_date, e.end_date AS e_end_date,
       e.venue AS e_venue, e.city AS e_city, e.country AS e_country, e.status AS e_status
FROM reservations r
JOIN users u ON u.id = r.user_id
JOIN events e ON e.id = r.event_id`

// reservationRow is one row of reservationDetailSelect.
type reservationRow struct {
	model.Reservation
	UserFirstName  string            `db:"u_first_name"`
	UserLastName   string            `db:"u_last_name"`
	UserEmail      string            `db:"u_email"`
	EventName      string            `db:"e_name"`
	EventStartDate time.Time         `db:"e_start_date"`
	EventEndDate   time.Time         `db:"e_end_date"`
	EventVenue     string            `db:"e_venue"`
	EventCity      string            `db:"e_city"`
	EventCountry   string            `db:"e_country"`
	EventStatus    model.EventStatus `db:"e_status"`
}

func (row reservationRow) detail() model.ReservationDetail {
	return model.ReservationDetail{
		Reservation: row.Reservation,
		User: &model.UserSummary{
			ID:        row.UserID,
			FirstName: row.UserFirstName,
			LastName:  row.UserLastName,
			Email:     row.UserEmail,
		},
		Event: &model.EventSummary{
			ID:        row.EventID,
			Name:      row.EventName,
			StartDate: row.EventStartDate,
			EndDate:   row.EventEndDate,
			Venue:     row.EventVenue,
			City:      row.EventCity,
			Country:   row.EventCountry,
			Status:    row.EventStatus,
		},
	}
}

// GetByID returns an active reservation with its summaries.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.ReservationDetail, error) {
	var row reservationRow
	err := r.db.GetContext(ctx, &row,
		reservationDetailSelect+" WHERE r.id=? AND r.lifecycle='ACTIVE'", id)
	if err != nil {
		return model.ReservationDetail{}, notFound(err)
	}
	return row.detail(), nil
}

// ListByUser returns a user's active reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, includeCancelled bool) ([]model.ReservationDetail, error) {
	return r.list(ctx, "r.user_id=?", userID, includeCancelled)
}

// ListByEvent returns an event's active reservations, newest first.
func (r *ReservationRepo) ListByEvent(ctx context.Context, eventID uint64, includeCancelled bool) ([]model.ReservationDetail, error) {
	return r.list(ctx, "r.event_id=?", eventID, includeCancelled)
}

func (r *ReservationRepo) list(ctx context.Context, cond string, id uint64, includeCancelled bool) ([]model.ReservationDetail, error) {
	q := reservationDetailSelect + " WHERE " + cond + " AND r.lifecycle='ACTIVE'"
	if !includeCancelled {
		q += " AND r.is_cancelled=FALSE"
	}
	q += " ORDER BY r.created_at DESC, r.id DESC"

	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, q, id); err != nil {
		return nil, err
	}
	out := make([]model.ReservationDetail, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.detail())
	}
	return out, nil
}
