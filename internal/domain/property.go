package domain

import "time"

type Property struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Currency          string    `json:"currency"`
	WeekdayPriceNight int64     `json:"weekday_price_night"`
	WeekendPriceNight *int64    `json:"weekend_price_night,omitempty"`
	CleaningFee       int64     `json:"cleaning_fee"`
	VATPercent        float64   `json:"vat_percent"`
	MinNights         int       `json:"min_nights"`
	MaxNights         int       `json:"max_nights"`
	MaxAdults         int       `json:"max_adults"`
	MaxChildren       int       `json:"max_children"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// WeekendMarkup derives a weekend rate when the property has none configured.
const WeekendMarkup = 1.2

func (p *Property) WeekendRate() int64 {
	if p.WeekendPriceNight != nil {
		return *p.WeekendPriceNight
	}
	return RoundHalfUp(float64(p.WeekdayPriceNight) * WeekendMarkup)
}

// DefaultRate is the nightly rate for a date absent any custom override.
func (p *Property) DefaultRate(night time.Time) int64 {
	if IsWeekendNight(night) {
		return p.WeekendRate()
	}
	return p.WeekdayPriceNight
}
