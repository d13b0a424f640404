package repository

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-reservation/internal/model"
)

var eventColumns = []interface{}{
	"id", "name", "description", "start_date", "end_date", "venue", "country", "city",
	"status", "max_capacity", "price_cents", "lifecycle", "created_at", "updated_at",
}

// EventRepo provides persistence for events. Listing queries are built with
// goqu so optional filters compose without string concatenation.
type EventRepo struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

func NewEventRepo(db *sqlx.DB) *EventRepo {
	return &EventRepo{db: db, dialect: goqu.Dialect("mysql")}
}

// Create inserts e and fills in its ID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	query, args, err := r.dialect.Insert("events").Prepared(true).Rows(goqu.Record{
		"name":         e.Name,
		"description":  e.Description,
		"start_date":   e.StartDate,
		"end_date":     e.EndDate,
		"venue":        e.Venue,
		"country":      e.Country,
		"city":         e.City,
		"status":       e.Status,
		"max_capacity": e.MaxCapacity,
		"price_cents":  e.PriceCents,
	}).ToSQL()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	e.Lifecycle = model.LifecycleActive
	return nil
}

// GetByID returns an active event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	query, args, err := r.dialect.From("events").Prepared(true).
		Select(eventColumns...).
		Where(goqu.C("id").Eq(id), goqu.C("lifecycle").Eq(model.LifecycleActive)).
		Limit(1).
		ToSQL()
	if err != nil {
		return model.Event{}, err
	}
	var e model.Event
	err = r.db.GetContext(ctx, &e, query, args...)
	return e, notFound(err)
}

// List returns active events matching f, ordered by start date then id.
func (r *EventRepo) List(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	ds := r.dialect.From("events").Prepared(true).
		Select(eventColumns...).
		Where(goqu.C("lifecycle").Eq(model.LifecycleActive))
	if f.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(f.Status))
	}
	if f.Country != "" {
		ds = ds.Where(goqu.C("country").Eq(f.Country))
	}
	if f.City != "" {
		ds = ds.Where(goqu.C("city").Eq(f.City))
	}
	query, args, err := ds.Order(goqu.C("start_date").Asc(), goqu.C("id").Asc()).ToSQL()
	if err != nil {
		return nil, err
	}
	events := []model.Event{}
	err = r.db.SelectContext(ctx, &events, query, args...)
	return events, err
}

// Update writes every mutable column of an active event. The event row is
// locked first, the same lock admission takes, so the held-seat count
// cannot grow between the capacity check and the write.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	query, args, err := r.dialect.Update("events").Prepared(true).Set(goqu.Record{
		"name":         e.Name,
		"description":  e.Description,
		"start_date":   e.StartDate,
		"end_date":     e.EndDate,
		"venue":        e.Venue,
		"country":      e.Country,
		"city":         e.City,
		"status":       e.Status,
		"max_capacity": e.MaxCapacity,
		"price_cents":  e.PriceCents,
	}).Where(goqu.C("id").Eq(e.ID), goqu.C("lifecycle").Eq(model.LifecycleActive)).ToSQL()
	if err != nil {
		return err
	}

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

	var id uint64
	if err := tx.GetContext(ctx, &id,
		"SELECT id FROM events WHERE id=? AND lifecycle='ACTIVE' FOR UPDATE", e.ID); err != nil {
		return notFound(err)
	}
	var held int
	if err := tx.GetContext(ctx, &held,
		"SELECT COUNT(*) FROM reservations WHERE event_id=? AND lifecycle='ACTIVE' AND is_cancelled=FALSE",
		e.ID); err != nil {
		return err
	}
	if e.MaxCapacity < held {
		return ErrCapacityBelowHeld
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SoftDelete marks an active event deleted. Deleting twice is ErrNotFound.
func (r *EventRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE events SET lifecycle='DELETED' WHERE id=? AND lifecycle='ACTIVE'", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// CountHeldSeats returns, per event id, the number of active non-cancelled
// reservations. Events without reservations are absent from the map.
func (r *EventRepo) CountHeldSeats(ctx context.Context, eventIDs []uint64) (map[uint64]int, error) {
	counts := make(map[uint64]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	query, args, err := sqlx.In(
		`SELECT event_id, COUNT(*) AS held FROM reservations
		 WHERE event_id IN (?) AND lifecycle='ACTIVE' AND is_cancelled=FALSE
		 GROUP BY event_id`, eventIDs)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		EventID uint64 `db:"event_id"`
		Held    int    `db:"held"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.EventID] = row.Held
	}
	return counts, nil
}
