// Package memory is an in-process implementation of every repository. It
// backs tests and `villa serve --memory`.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository"
)

var (
	ErrDuplicateCode  = errors.New("memory: coupon code already exists")
	ErrDuplicateEmail = errors.New("memory: email already exists")
)

type DB struct {
	mu sync.RWMutex

	properties   map[string]domain.Property
	overrides    map[string]map[string]domain.CustomPriceOverride // property -> date -> override
	coupons      map[string]domain.Coupon                         // normalized code
	blocks       map[string]domain.BlockedPeriod
	reservations map[string]domain.Reservation
	users        map[string]domain.User
	holdTokens   map[string]holdToken // hashed token
	audit        []domain.AuditRecord

	now func() time.Time
}

type holdToken struct {
	reservationID string
	expiresAt     time.Time
}

func New() *DB {
	return &DB{
		properties:   make(map[string]domain.Property),
		overrides:    make(map[string]map[string]domain.CustomPriceOverride),
		coupons:      make(map[string]domain.Coupon),
		blocks:       make(map[string]domain.BlockedPeriod),
		reservations: make(map[string]domain.Reservation),
		users:        make(map[string]domain.User),
		holdTokens:   make(map[string]holdToken),
		now:          time.Now,
	}
}

// Store exposes the DB through the repository interfaces.
func (db *DB) Store() *repository.Store {
	return &repository.Store{
		Properties:   &properties{db},
		Pricing:      &pricing{db},
		Coupons:      &coupons{db},
		Blocks:       &blocks{db},
		Reservations: &reservations{db},
		Users:        &users{db},
		HoldTokens:   &holdTokens{db},
		Audit:        &audit{db},
	}
}

// AuditLog returns a copy of every audit record written so far.
func (db *DB) AuditLog() []domain.AuditRecord {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]domain.AuditRecord(nil), db.audit...)
}

func (db *DB) stamp() time.Time {
	return db.now().UTC()
}

// Properties

type properties struct{ db *DB }

func (r *properties) GetByID(_ context.Context, id string) (*domain.Property, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if p, ok := r.db.properties[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *properties) First(_ context.Context) (*domain.Property, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var first *domain.Property
	for _, p := range r.db.properties {
		if first == nil || p.CreatedAt.Before(first.CreatedAt) ||
			(p.CreatedAt.Equal(first.CreatedAt) && p.ID < first.ID) {
			first = &p
		}
	}
	return first, nil
}

func (r *properties) Upsert(_ context.Context, p *domain.Property) (*domain.Property, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.stamp()
	out := *p
	if existing, ok := r.db.properties[p.ID]; ok {
		out.CreatedAt = existing.CreatedAt
	} else if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	r.db.properties[p.ID] = out
	return &out, nil
}

// Custom pricing

type pricing struct{ db *DB }

func (r *pricing) ListRange(_ context.Context, propertyID string, from, to time.Time) ([]domain.CustomPriceOverride, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []domain.CustomPriceOverride
	for _, o := range r.db.overrides[propertyID] {
		if !o.Date.Before(from) && !o.Date.After(to) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *pricing) BulkUpsert(_ context.Context, overrides []domain.CustomPriceOverride) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.stamp()
	for _, o := range overrides {
		byDate, ok := r.db.overrides[o.PropertyID]
		if !ok {
			byDate = make(map[string]domain.CustomPriceOverride)
			r.db.overrides[o.PropertyID] = byDate
		}
		o.Date = domain.TruncateDate(o.Date)
		o.UpdatedAt = now
		byDate[domain.FormatDate(o.Date)] = o
	}
	return nil
}

func (r *pricing) DeleteDates(_ context.Context, propertyID string, dates []time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	byDate := r.db.overrides[propertyID]
	for _, d := range dates {
		key := domain.FormatDate(d)
		if _, ok := byDate[key]; ok {
			delete(byDate, key)
			n++
		}
	}
	return n, nil
}

// Coupons

type coupons struct{ db *DB }

func (r *coupons) FindByCode(_ context.Context, code string) (*domain.Coupon, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if c, ok := r.db.coupons[domain.NormalizeCouponCode(code)]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *coupons) Create(_ context.Context, c *domain.Coupon) (*domain.Coupon, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := *c
	out.Code = domain.NormalizeCouponCode(c.Code)
	if _, exists := r.db.coupons[out.Code]; exists {
		return nil, ErrDuplicateCode
	}
	out.CreatedAt = r.db.stamp()
	out.UpdatedAt = out.CreatedAt
	r.db.coupons[out.Code] = out
	return &out, nil
}

func (r *coupons) SetActive(_ context.Context, code string, active bool) (*domain.Coupon, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := domain.NormalizeCouponCode(code)
	c, ok := r.db.coupons[key]
	if !ok {
		return nil, nil
	}
	c.IsActive = active
	c.UpdatedAt = r.db.stamp()
	r.db.coupons[key] = c
	return &c, nil
}

func (r *coupons) ListPublic(_ context.Context) ([]domain.Coupon, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []domain.Coupon
	for _, c := range r.db.coupons {
		if c.IsPublic && c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Blocked periods

type blocks struct{ db *DB }

func (r *blocks) filter(propertyID string, keep func(b *domain.BlockedPeriod) bool) []domain.BlockedPeriod {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []domain.BlockedPeriod
	for _, b := range r.db.blocks {
		if b.PropertyID == propertyID && keep(&b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func (r *blocks) FindOverlapping(_ context.Context, propertyID string, checkIn, checkOut time.Time) ([]domain.BlockedPeriod, error) {
	return r.filter(propertyID, func(b *domain.BlockedPeriod) bool {
		return b.Overlaps(checkIn, checkOut)
	}), nil
}

func (r *blocks) ListRange(_ context.Context, propertyID string, from, to time.Time) ([]domain.BlockedPeriod, error) {
	return r.filter(propertyID, func(b *domain.BlockedPeriod) bool {
		return !b.StartDate.After(to) && !b.EndDate.Before(from)
	}), nil
}

func (r *blocks) Create(_ context.Context, b *domain.BlockedPeriod) (*domain.BlockedPeriod, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := *b
	out.CreatedAt = r.db.stamp()
	r.db.blocks[out.ID] = out
	return &out, nil
}

func (r *blocks) Delete(_ context.Context, id string) (*domain.BlockedPeriod, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b, ok := r.db.blocks[id]
	if !ok {
		return nil, nil
	}
	delete(r.db.blocks, id)
	return &b, nil
}

// Reservations

type reservations struct{ db *DB }

func (r *reservations) filter(propertyID string, keep func(res *domain.Reservation) bool) []domain.Reservation {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []domain.Reservation
	for _, res := range r.db.reservations {
		if res.PropertyID == propertyID && keep(&res) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out
}

func (r *reservations) FindConflicting(_ context.Context, propertyID string, checkIn, checkOut time.Time, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	return r.filter(propertyID, func(res *domain.Reservation) bool {
		if !res.Overlaps(checkIn, checkOut) {
			return false
		}
		for _, s := range statuses {
			if res.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *reservations) ListRange(_ context.Context, propertyID string, from, to time.Time) ([]domain.Reservation, error) {
	return r.filter(propertyID, func(res *domain.Reservation) bool {
		return !res.CheckIn.After(to) && res.CheckOut.After(from)
	}), nil
}

func (r *reservations) Insert(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := *res
	out.CreatedAt = r.db.stamp()
	out.UpdatedAt = out.CreatedAt
	r.db.reservations[out.ID] = out
	return &out, nil
}

func (r *reservations) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if res, ok := r.db.reservations[id]; ok {
		return &res, nil
	}
	return nil, nil
}

func (r *reservations) UpdateStatus(_ context.Context, id string, from, to domain.ReservationStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	res, ok := r.db.reservations[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	res.UpdatedAt = r.db.stamp()
	r.db.reservations[id] = res
	return true, nil
}

func (r *reservations) ExpireHolds(_ context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, res := range r.db.reservations {
		if res.HoldExpired(now) {
			res.Status = domain.StatusCancelled
			res.UpdatedAt = r.db.stamp()
			r.db.reservations[id] = res
			n++
		}
	}
	return n, nil
}

// Users

type users struct{ db *DB }

func (r *users) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *users) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if u, ok := r.db.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *users) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Email, u.Email) && existing.ID != u.ID {
			return nil, ErrDuplicateEmail
		}
	}
	out := *u
	out.CreatedAt = r.db.stamp()
	out.UpdatedAt = out.CreatedAt
	r.db.users[out.ID] = out
	return &out, nil
}

// Hold tokens

type holdTokens struct{ db *DB }

func (r *holdTokens) Find(_ context.Context, token string) (string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.db.holdTokens[repository.HashHoldToken(token)].reservationID, nil
}

func (r *holdTokens) Save(_ context.Context, token, reservationID string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := repository.HashHoldToken(token)
	if _, exists := r.db.holdTokens[key]; !exists {
		r.db.holdTokens[key] = holdToken{reservationID: reservationID, expiresAt: expiresAt}
	}
	return nil
}

func (r *holdTokens) CleanupExpired(_ context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for key, t := range r.db.holdTokens {
		if t.expiresAt.Before(before) {
			delete(r.db.holdTokens, key)
			n++
		}
	}
	return n, nil
}

// Audit

type audit struct{ db *DB }

func (r *audit) Insert(_ context.Context, rec *domain.AuditRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := *rec
	out.CreatedAt = r.db.stamp()
	r.db.audit = append(r.db.audit, out)
	return nil
}
