package domain

import "time"

// CustomPriceOverride replaces the weekday/weekend rate for one date.
// At most one exists per (property, date).
type CustomPriceOverride struct {
	PropertyID    string    `json:"property_id"`
	Date          time.Time `json:"date"`
	PricePerNight int64     `json:"price_per_night"`
	// Per-guest supplements are stored but not applied by quoting.
	PricePerAdult *int64    `json:"price_per_adult,omitempty"`
	PricePerChild *int64    `json:"price_per_child,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OverrideInput is the admin write shape for a single override.
type OverrideInput struct {
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	PricePerNight int64  `json:"price_per_night" validate:"gte=0"`
	PricePerAdult *int64 `json:"price_per_adult,omitempty" validate:"omitempty,gte=0"`
	PricePerChild *int64 `json:"price_per_child,omitempty" validate:"omitempty,gte=0"`
	Notes         string `json:"notes,omitempty" validate:"max=500"`
}

// PriceAdjustment records a night whose rate came from an override, alongside
// the rate the property defaults would have produced.
type PriceAdjustment struct {
	Date         string `json:"date"`
	CustomPrice  int64  `json:"custom_price"`
	DefaultPrice int64  `json:"default_price"`
	Notes        string `json:"notes,omitempty"`
}

// OverridesByDate indexes overrides by ISO date for per-night lookup.
func OverridesByDate(overrides []CustomPriceOverride) map[string]CustomPriceOverride {
	m := make(map[string]CustomPriceOverride, len(overrides))
	for _, o := range overrides {
		m[FormatDate(o.Date)] = o
	}
	return m
}
