package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/queue"
	"github.com/iliyamo/event-reservation/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL schema. Row locks are
// emulated with one mutex per locked key, held until the transaction ends.
type memDB struct {
	mu           sync.Mutex
	nextID       uint64
	users        map[uint64]model.User
	tokens       map[string]model.RefreshToken
	events       map[uint64]model.Event
	reservations map[uint64]model.Reservation
	reviews      map[uint64]model.Review
	rowLocks     map[string]*sync.Mutex
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[uint64]model.User{},
		tokens:       map[string]model.RefreshToken{},
		events:       map[uint64]model.Event{},
		reservations: map[uint64]model.Reservation{},
		reviews:      map[uint64]model.Review{},
		rowLocks:     map[string]*sync.Mutex{},
	}
}

func (db *memDB) id() uint64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) addUser(u model.User) model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u.ID = db.id()
	u.Lifecycle = model.LifecycleActive
	db.users[u.ID] = u
	return u
}

func (db *memDB) addEvent(e model.Event) model.Event {
	db.mu.Lock()
	defer db.mu.Unlock()
	e.ID = db.id()
	e.Lifecycle = model.LifecycleActive
	db.events[e.ID] = e
	return e
}

func (db *memDB) held(eventID uint64) int {
	n := 0
	for _, r := range db.reservations {
		if r.EventID == eventID && r.HoldsSeat() {
			n++
		}
	}
	return n
}

func (db *memDB) rowLock(key string) *sync.Mutex {
	db.mu.Lock()
	defer db.mu.Unlock()
	l, ok := db.rowLocks[key]
	if !ok {
		l = &sync.Mutex{}
		db.rowLocks[key] = l
	}
	return l
}

// --- users ---

type memUsers struct{ db *memDB }

func (s memUsers) Create(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, o := range s.db.users {
		if o.Lifecycle == model.LifecycleActive && o.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = s.db.id()
	u.Lifecycle = model.LifecycleActive
	s.db.users[u.ID] = *u
	return nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Lifecycle == model.LifecycleActive && u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok || u.Lifecycle != model.LifecycleActive {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s memUsers) List(context.Context) ([]model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.User{}
	for _, u := range s.db.users {
		if u.Lifecycle == model.LifecycleActive {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memUsers) Update(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.users[u.ID]
	if !ok || cur.Lifecycle != model.LifecycleActive {
		return repository.ErrNotFound
	}
	for _, o := range s.db.users {
		if o.ID != u.ID && o.Lifecycle == model.LifecycleActive && o.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	s.db.users[u.ID] = *u
	return nil
}

func (s memUsers) SoftDelete(_ context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok || u.Lifecycle != model.LifecycleActive {
		return repository.ErrNotFound
	}
	u.Lifecycle = model.LifecycleDeleted
	s.db.users[id] = u
	return nil
}

// --- tokens ---

type memTokens struct{ db *memDB }

func (s memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.tokens[hash] = model.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (s memTokens) ValidateRefresh(_ context.Context, hash string, now time.Time) (uint64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tokens[hash]
	if !ok || now.After(t.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	return t.UserID, nil
}

func (s memTokens) Rotate(_ context.Context, oldHash, newHash string, exp, now time.Time) (uint64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tokens[oldHash]
	if !ok || now.After(t.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	delete(s.db.tokens, oldHash)
	s.db.tokens[newHash] = model.RefreshToken{UserID: t.UserID, TokenHash: newHash, ExpiresAt: exp}
	return t.UserID, nil
}

func (s memTokens) DeleteForUser(_ context.Context, hash string, userID uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tokens[hash]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(s.db.tokens, hash)
	return true, nil
}

func (s memTokens) DeleteAllForUser(_ context.Context, userID uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for h, t := range s.db.tokens {
		if t.UserID == userID {
			delete(s.db.tokens, h)
		}
	}
	return nil
}

func (s memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for h, t := range s.db.tokens {
		if t.ExpiresAt.Before(now) {
			delete(s.db.tokens, h)
			n++
		}
	}
	return n, nil
}

// --- events ---

type memEvents struct{ db *memDB }

func (s memEvents) Create(_ context.Context, e *model.Event) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e.ID = s.db.id()
	e.Lifecycle = model.LifecycleActive
	s.db.events[e.ID] = *e
	return nil
}

func (s memEvents) GetByID(_ context.Context, id uint64) (model.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.events[id]
	if !ok || e.Lifecycle != model.LifecycleActive {
		return model.Event{}, repository.ErrNotFound
	}
	return e, nil
}

func (s memEvents) List(_ context.Context, f model.EventFilter) ([]model.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Event{}
	for _, e := range s.db.events {
		if e.Lifecycle != model.LifecycleActive ||
			(f.Status != "" && e.Status != f.Status) ||
			(f.Country != "" && e.Country != f.Country) ||
			(f.City != "" && e.City != f.City) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s memEvents) Update(_ context.Context, e *model.Event) error {
	l := s.db.rowLock("event:" + itoa(e.ID))
	l.Lock()
	defer l.Unlock()
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.events[e.ID]
	if !ok || cur.Lifecycle != model.LifecycleActive {
		return repository.ErrNotFound
	}
	if e.MaxCapacity < s.db.held(e.ID) {
		return repository.ErrCapacityBelowHeld
	}
	s.db.events[e.ID] = *e
	return nil
}

func (s memEvents) SoftDelete(_ context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.events[id]
	if !ok || e.Lifecycle != model.LifecycleActive {
		return repository.ErrNotFound
	}
	e.Lifecycle = model.LifecycleDeleted
	s.db.events[id] = e
	return nil
}

func (s memEvents) CountHeldSeats(_ context.Context, ids []uint64) (map[uint64]int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := map[uint64]int{}
	for _, id := range ids {
		if n := s.db.held(id); n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

// --- reservations ---

type memReservations struct{ db *memDB }

// InTx applies writes at commit, before the row locks are released, the
// same ordering InnoDB gives a committing transaction.
func (s memReservations) InTx(_ context.Context, fn func(repository.AdmissionTx) error) error {
	tx := &memTx{db: s.db}
	err := fn(tx)
	if err == nil {
		tx.commit()
	}
	tx.release()
	return err
}

func (s memReservations) GetByID(_ context.Context, id uint64) (model.ReservationDetail, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.reservations[id]
	if !ok || r.Lifecycle != model.LifecycleActive {
		return model.ReservationDetail{}, repository.ErrNotFound
	}
	return model.ReservationDetail{Reservation: r}, nil
}

func (s memReservations) list(match func(model.Reservation) bool, includeCancelled bool) []model.ReservationDetail {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.ReservationDetail{}
	for _, r := range s.db.reservations {
		if r.Lifecycle == model.LifecycleActive && match(r) && (includeCancelled || !r.Cancelled) {
			out = append(out, model.ReservationDetail{Reservation: r})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s memReservations) ListByUser(_ context.Context, userID uint64, inc bool) ([]model.ReservationDetail, error) {
	return s.list(func(r model.Reservation) bool { return r.UserID == userID }, inc), nil
}

func (s memReservations) ListByEvent(_ context.Context, eventID uint64, inc bool) ([]model.ReservationDetail, error) {
	return s.list(func(r model.Reservation) bool { return r.EventID == eventID }, inc), nil
}

type memTx struct {
	db        *memDB
	held      []*sync.Mutex
	inserts   []model.Reservation
	cancelled []uint64
}

func (tx *memTx) lock(key string) {
	l := tx.db.rowLock(key)
	l.Lock()
	tx.held = append(tx.held, l)
}

func (tx *memTx) release() {
	for i := len(tx.held) - 1; i >= 0; i-- {
		tx.held[i].Unlock()
	}
	tx.held = nil
}

func (tx *memTx) commit() {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for _, r := range tx.inserts {
		tx.db.reservations[r.ID] = r
	}
	for _, id := range tx.cancelled {
		r := tx.db.reservations[id]
		r.Cancelled = true
		tx.db.reservations[id] = r
	}
}

func (tx *memTx) ActiveUserExists(_ context.Context, userID uint64) (bool, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	u, ok := tx.db.users[userID]
	return ok && u.Lifecycle == model.LifecycleActive, nil
}

func (tx *memTx) LockEvent(_ context.Context, eventID uint64) (model.Event, error) {
	tx.lock("event:" + itoa(eventID))
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	e, ok := tx.db.events[eventID]
	if !ok || e.Lifecycle != model.LifecycleActive {
		return model.Event{}, repository.ErrNotFound
	}
	return e, nil
}

func (tx *memTx) HasActiveReservation(_ context.Context, userID, eventID uint64) (bool, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for _, r := range tx.db.reservations {
		if r.UserID == userID && r.EventID == eventID && r.Lifecycle == model.LifecycleActive {
			return true, nil
		}
	}
	return false, nil
}

func (tx *memTx) CountHeldSeats(_ context.Context, eventID uint64) (int, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	return tx.db.held(eventID), nil
}

func (tx *memTx) InsertReservation(_ context.Context, res *model.Reservation) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for _, r := range tx.db.reservations {
		if r.UserID == res.UserID && r.EventID == res.EventID && r.Lifecycle == model.LifecycleActive {
			return repository.ErrDuplicate
		}
	}
	res.ID = tx.db.id()
	res.Lifecycle = model.LifecycleActive
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	tx.inserts = append(tx.inserts, *res)
	return nil
}

func (tx *memTx) LockReservation(_ context.Context, id uint64) (model.Reservation, error) {
	tx.lock("reservation:" + itoa(id))
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	r, ok := tx.db.reservations[id]
	if !ok || r.Lifecycle != model.LifecycleActive {
		return model.Reservation{}, repository.ErrNotFound
	}
	return r, nil
}

func (tx *memTx) EventStart(_ context.Context, eventID uint64) (time.Time, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	e, ok := tx.db.events[eventID]
	if !ok || e.Lifecycle != model.LifecycleActive {
		return time.Time{}, repository.ErrNotFound
	}
	return e.StartDate, nil
}

func (tx *memTx) MarkCancelled(_ context.Context, id uint64) error {
	tx.cancelled = append(tx.cancelled, id)
	return nil
}

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }

// --- reviews ---

type memReviews struct{ db *memDB }

func (s memReviews) Create(_ context.Context, rv *model.Review) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rv.ID = s.db.id()
	rv.Lifecycle = model.LifecycleActive
	s.db.reviews[rv.ID] = *rv
	return nil
}

func (s memReviews) GetByID(_ context.Context, id uint64) (model.Review, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rv, ok := s.db.reviews[id]
	if !ok || rv.Lifecycle != model.LifecycleActive {
		return model.Review{}, repository.ErrNotFound
	}
	return rv, nil
}

func (s memReviews) ExistsActive(_ context.Context, userID, eventID uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, rv := range s.db.reviews {
		if rv.UserID == userID && rv.EventID == eventID && rv.Lifecycle == model.LifecycleActive {
			return true, nil
		}
	}
	return false, nil
}

func (s memReviews) SoftDelete(_ context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rv, ok := s.db.reviews[id]
	if !ok || rv.Lifecycle != model.LifecycleActive {
		return repository.ErrNotFound
	}
	rv.Lifecycle = model.LifecycleDeleted
	s.db.reviews[id] = rv
	return nil
}

func (s memReviews) ListByEvent(_ context.Context, eventID uint64) ([]model.ReviewDetail, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.ReviewDetail{}
	for _, rv := range s.db.reviews {
		if rv.EventID == eventID && rv.Lifecycle == model.LifecycleActive {
			out = append(out, model.ReviewDetail{Review: rv})
		}
	}
	return out, nil
}

// --- publisher ---

type published struct {
	queue string
	ev    queue.ReservationEvent
}

type chanPublisher struct {
	ch  chan published
	err error
}

func newChanPublisher() *chanPublisher { return &chanPublisher{ch: make(chan published, 64)} }

func (p *chanPublisher) Publish(_ context.Context, q string, ev queue.ReservationEvent) error {
	p.ch <- published{queue: q, ev: ev}
	return p.err
}
