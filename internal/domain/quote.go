package domain

import "time"

type QuoteInput struct {
	CheckIn    string `json:"checkIn" validate:"required"`
	CheckOut   string `json:"checkOut" validate:"required"`
	Coupon     string `json:"coupon,omitempty" validate:"max=32"`
	PropertyID string `json:"propertyId,omitempty"`
}

type LineItemKind string

const (
	LineWeekday LineItemKind = "weekday"
	LineWeekend LineItemKind = "weekend"
	LineCoupon  LineItemKind = "coupon"
	LineFee     LineItemKind = "fee"
	LineTax     LineItemKind = "tax"
)

type LineItem struct {
	Kind   LineItemKind `json:"kind"`
	Label  string       `json:"label"`
	Amount int64        `json:"amount"`
	Nights int          `json:"nights,omitempty"`
}

// NightlyRate is the rate attributed to one night of the stay.
type NightlyRate struct {
	Date    string `json:"date"`
	Rate    int64  `json:"rate"`
	Weekend bool   `json:"weekend"`
	Custom  bool   `json:"custom"`
}

type QuoteBreakdown struct {
	BasePrice              int64             `json:"basePrice"`
	WeekdayNights          int               `json:"weekdayNights"`
	WeekendNights          int               `json:"weekendNights"`
	Discount               int64             `json:"discount"`
	CouponCode             string            `json:"couponCode,omitempty"`
	CustomPriceAdjustments []PriceAdjustment `json:"customPriceAdjustments"`
}

type Quote struct {
	PropertyID    string         `json:"propertyId"`
	CheckIn       string         `json:"checkIn"`
	CheckOut      string         `json:"checkOut"`
	Nights        int            `json:"nights"`
	DailyRates    []NightlyRate  `json:"dailyRates"`
	LineItems     []LineItem     `json:"lineItems"`
	Subtotal      int64          `json:"subtotal"`
	Fees          int64          `json:"fees"`
	Taxes         int64          `json:"taxes"`
	Total         int64          `json:"total"`
	Currency      string         `json:"currency"`
	HoldToken     string         `json:"holdToken"`
	HoldExpiresAt time.Time      `json:"holdExpiresAt"`
	Breakdown     QuoteBreakdown `json:"breakdown"`
}

// QuoteResult is the tagged outcome of quoting. On success the quote fields
// are inlined next to Success; on failure only Error, Code and Details are set.
type QuoteResult struct {
	Success bool `json:"success"`
	*Quote
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
