package domain

import "time"

type ReservationStatus string

const (
	StatusPending          ReservationStatus = "PENDING"
	StatusAwaitingApproval ReservationStatus = "AWAITING_APPROVAL"
	StatusApproved         ReservationStatus = "APPROVED"
	StatusPaid             ReservationStatus = "PAID"
	StatusCancelled        ReservationStatus = "CANCELLED"
	StatusRefunded         ReservationStatus = "REFUNDED"
)

// OccupyingStatuses are the statuses whose reservations can make dates
// unavailable. PENDING rows only count while their hold is live.
var OccupyingStatuses = []ReservationStatus{
	StatusPending,
	StatusAwaitingApproval,
	StatusApproved,
	StatusPaid,
}

func ParseReservationStatus(s string) (ReservationStatus, bool) {
	switch ReservationStatus(s) {
	case StatusPending, StatusAwaitingApproval, StatusApproved, StatusPaid, StatusCancelled, StatusRefunded:
		return ReservationStatus(s), true
	default:
		return "", false
	}
}

var allowedTransitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:          {StatusAwaitingApproval, StatusApproved, StatusPaid, StatusCancelled},
	StatusAwaitingApproval: {StatusApproved, StatusPaid, StatusCancelled},
	StatusApproved:         {StatusPaid, StatusCancelled},
	StatusPaid:             {StatusRefunded, StatusCancelled},
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reservation occupies the half-open range [CheckIn, CheckOut): the guest
// leaves on CheckOut, so that date is free for the next arrival.
type Reservation struct {
	ID            string            `json:"id"`
	PropertyID    string            `json:"property_id"`
	UserID        string            `json:"user_id"`
	CheckIn       time.Time         `json:"check_in"`
	CheckOut      time.Time         `json:"check_out"`
	Nights        int               `json:"nights"`
	Adults        int               `json:"adults"`
	Children      int               `json:"children"`
	Total         int64             `json:"total"`
	Status        ReservationStatus `json:"status"`
	HoldExpiresAt *time.Time        `json:"hold_expires_at,omitempty"`
	HoldTokenHash string            `json:"-"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Overlaps compares by calendar date only.
func (r *Reservation) Overlaps(checkIn, checkOut time.Time) bool {
	return r.CheckIn.Before(checkOut) && r.CheckOut.After(checkIn)
}

func (r *Reservation) Occupies(day time.Time) bool {
	return !day.Before(r.CheckIn) && day.Before(r.CheckOut)
}

// HoldExpired reports whether a PENDING reservation's hold has lapsed. A
// PENDING row without an expiry never lapses.
func (r *Reservation) HoldExpired(now time.Time) bool {
	return r.Status == StatusPending && r.HoldExpiresAt != nil && !r.HoldExpiresAt.After(now)
}

// BlocksDates reports whether the reservation currently makes its dates
// unavailable. Expired holds are ignored without being deleted.
func (r *Reservation) BlocksDates(now time.Time) bool {
	switch r.Status {
	case StatusPending:
		return !r.HoldExpired(now)
	case StatusAwaitingApproval, StatusApproved, StatusPaid:
		return true
	default:
		return false
	}
}

// HoldInput is the Hold Creator request. Like the quote it follows, it is
// part of the guest API and uses camelCase.
type HoldInput struct {
	PropertyID string `json:"propertyId"`
	CheckIn    string `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"checkOut" validate:"required,datetime=2006-01-02"`
	Total      int64  `json:"total" validate:"gte=0"`
	HoldToken  string `json:"holdToken" validate:"omitempty,hexadecimal,len=64"`
	UserID     string `json:"userId,omitempty"`
}

type HoldResult struct {
	Success       bool       `json:"success"`
	ReservationID string     `json:"reservationId,omitempty"`
	HoldExpiresAt *time.Time `json:"holdExpiresAt,omitempty"`
	Replayed      bool       `json:"replayed,omitempty"`
	Error         string     `json:"error,omitempty"`
	Code          string     `json:"code,omitempty"`
	Details       string     `json:"details,omitempty"`
}

// QuickReserveInput lets an administrator book dates directly.
type QuickReserveInput struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Adults     int    `json:"adults" validate:"gte=1"`
	Children   int    `json:"children" validate:"gte=0"`
	UserID     string `json:"user_id,omitempty"`
	Notes      string `json:"notes,omitempty" validate:"max=500"`
}
