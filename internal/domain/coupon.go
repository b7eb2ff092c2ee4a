package domain

import (
	"strings"
	"time"
)

type Coupon struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	PercentOff  *int       `json:"percent_off,omitempty"`
	AmountOff   *int64     `json:"amount_off,omitempty"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidTo     *time.Time `json:"valid_to,omitempty"`
	MinNights   *int       `json:"min_nights,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsPublic    bool       `json:"is_public"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CouponInput struct {
	Code        string     `json:"code" validate:"required,min=3,max=32,alphanum"`
	Description string     `json:"description,omitempty" validate:"max=200"`
	PercentOff  *int       `json:"percent_off,omitempty" validate:"omitempty,min=1,max=100"`
	AmountOff   *int64     `json:"amount_off,omitempty" validate:"omitempty,gt=0"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidTo     *time.Time `json:"valid_to,omitempty"`
	MinNights   *int       `json:"min_nights,omitempty" validate:"omitempty,min=1"`
	IsActive    bool       `json:"is_active"`
	IsPublic    bool       `json:"is_public"`
}

// NormalizeCouponCode gives the storage form of a code: trimmed, uppercased.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ActiveAt reports whether the coupon is switched on and inside its validity
// window at now. Both window ends are inclusive.
func (c *Coupon) ActiveAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ValidFrom != nil && c.ValidFrom.After(now) {
		return false
	}
	if c.ValidTo != nil && c.ValidTo.Before(now) {
		return false
	}
	return true
}

// AppliesTo reports whether the coupon may be redeemed now for a stay of the
// given length.
func (c *Coupon) AppliesTo(now time.Time, nights int) bool {
	if !c.ActiveAt(now) {
		return false
	}
	return c.MinNights == nil || *c.MinNights <= nights
}

// Discount computes the reduction on the nightly subtotal. It never exceeds
// the subtotal.
func (c *Coupon) Discount(nightlyTotal int64) int64 {
	var d int64
	switch {
	case c.PercentOff != nil:
		d = PercentOf(nightlyTotal, float64(*c.PercentOff))
	case c.AmountOff != nil:
		d = *c.AmountOff
	}
	if d > nightlyTotal {
		d = nightlyTotal
	}
	if d < 0 {
		d = 0
	}
	return d
}
