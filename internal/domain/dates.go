package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into UTC midnight of that date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf returns the calendar date of t as observed in loc, expressed as UTC
// midnight so that dates compare and subtract without DST drift.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TruncateDate drops the clock part of t, keeping its own calendar date.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights counts the calendar nights in [checkIn, checkOut).
func Nights(checkIn, checkOut time.Time) int {
	return int(TruncateDate(checkOut).Sub(TruncateDate(checkIn)).Hours() / 24)
}

// EachNight lists the dates of every night in [checkIn, checkOut).
func EachNight(checkIn, checkOut time.Time) []time.Time {
	start, end := TruncateDate(checkIn), TruncateDate(checkOut)
	var nights []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// IsWeekendNight reports whether a night is billed at the weekend rate.
// The property's locale treats Thursday, Friday and Saturday nights as the
// weekend.
func IsWeekendNight(d time.Time) bool {
	switch d.Weekday() {
	case time.Thursday, time.Friday, time.Saturday:
		return true
	default:
		return false
	}
}
