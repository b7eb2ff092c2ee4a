package domain

import "time"

// BlockedPeriod is an administrative unavailability window. Unlike a
// reservation, both StartDate and EndDate are occupied.
type BlockedPeriod struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const DefaultBlockReason = "Administrative block"

// Overlaps reports whether the closed range [StartDate, EndDate] touches any
// night of the stay [checkIn, checkOut).
func (b *BlockedPeriod) Overlaps(checkIn, checkOut time.Time) bool {
	return b.StartDate.Before(checkOut) && !b.EndDate.Before(checkIn)
}

func (b *BlockedPeriod) Covers(day time.Time) bool {
	return !day.Before(b.StartDate) && !day.After(b.EndDate)
}

func (b *BlockedPeriod) DisplayReason() string {
	if b.Reason == "" {
		return DefaultBlockReason
	}
	return b.Reason
}

type BlockInput struct {
	PropertyID string `json:"property_id"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason,omitempty" validate:"max=200"`
}

type AvailabilityResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Code      string `json:"code,omitempty"`
}

type DayStatus string

const (
	DayAvailable DayStatus = "available"
	DayBlocked   DayStatus = "blocked"
	DayReserved  DayStatus = "reserved"
	DayHeld      DayStatus = "held"
)

// CalendarDay is one row of the admin calendar.
type CalendarDay struct {
	Date              string            `json:"date"`
	Status            DayStatus         `json:"status"`
	Price             int64             `json:"price"`
	Weekend           bool              `json:"weekend"`
	CustomPrice       bool              `json:"custom_price"`
	BlockID           string            `json:"block_id,omitempty"`
	BlockReason       string            `json:"block_reason,omitempty"`
	ReservationID     string            `json:"reservation_id,omitempty"`
	ReservationStatus ReservationStatus `json:"reservation_status,omitempty"`
}
