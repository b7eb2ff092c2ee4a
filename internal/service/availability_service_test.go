package service

import (
	"context"
	"testing"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAvailability_ReservationIsHalfOpen(t *testing.T) {
	f := newFixture(t)
	f.addReservation(t, "r1", "2030-01-07", "2030-01-09", domain.StatusApproved, nil)
	ctx := context.Background()

	res := f.availability.CheckAvailability(ctx, testPropertyID, date(t, "2030-01-09"), date(t, "2030-01-11"))
	assert.True(t, res.Available, "arrival on the departure day must be bookable")

	res = f.availability.CheckAvailability(ctx, testPropertyID, date(t, "2030-01-05"), date(t, "2030-01-07"))
	assert.True(t, res.Available, "departure on the arrival day must be bookable")

	res = f.availability.CheckAvailability(ctx, testPropertyID, date(t, "2030-01-08"), date(t, "2030-01-10"))
	assert.False(t, res.Available)
	assert.Equal(t, "Selected dates are already booked", res.Reason)
	assert.Equal(t, domain.CodeBooked, res.Code)
}

func TestAvailability_BlockIncludesEndDate(t *testing.T) {
	f := newFixture(t)
	f.addBlock(t, "2030-01-05", "2030-01-07", "")
	ctx := context.Background()

	res := f.availability.CheckAvailability(ctx, testPropertyID, date(t, "2030-01-07"), date(t, "2030-01-09"))
	assert.False(t, res.Available)
	assert.Equal(t, "Dates are blocked: Administrative block", res.Reason)
	assert.Equal(t, domain.CodeBlocked, res.Code)

	res = f.availability.CheckAvailability(ctx, testPropertyID, date(t, "2030-01-08"), date(t, "2030-01-10"))
	assert.True(t, res.Available)

	res = f.availability.CheckAvailability(ctx, testPropertyID, date(t, "2030-01-03"), date(t, "2030-01-05"))
	assert.True(t, res.Available, "a stay leaving on the block's first day uses no blocked night")
}

func TestAvailability_Holds(t *testing.T) {
	tests := []struct {
		name      string
		status    domain.ReservationStatus
		expiresIn *time.Duration
		available bool
	}{
		{"expired hold is ignored", domain.StatusPending, durationPtr(-time.Minute), true},
		{"live hold conflicts", domain.StatusPending, durationPtr(time.Minute), false},
		{"pending without expiry conflicts", domain.StatusPending, nil, false},
		{"awaiting approval conflicts", domain.StatusAwaitingApproval, nil, false},
		{"paid conflicts", domain.StatusPaid, nil, false},
		{"cancelled is ignored", domain.StatusCancelled, nil, true},
		{"refunded is ignored", domain.StatusRefunded, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var expiry *time.Time
			if tt.expiresIn != nil {
				expiry = f.at(*tt.expiresIn)
			}
			f.addReservation(t, "r1", "2030-01-07", "2030-01-09", tt.status, expiry)

			res := f.availability.CheckAvailability(context.Background(), testPropertyID, date(t, "2030-01-07"), date(t, "2030-01-09"))
			assert.Equal(t, tt.available, res.Available)
		})
	}
}

func TestAvailability_OtherPropertyIgnored(t *testing.T) {
	f := newFixture(t)
	f.addReservation(t, "r1", "2030-01-07", "2030-01-09", domain.StatusApproved, nil)

	res := f.availability.CheckAvailability(context.Background(), "villa-2", date(t, "2030-01-07"), date(t, "2030-01-09"))
	assert.True(t, res.Available)
}

func TestAvailability_StorageFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewAvailabilityService(f.store.Properties, f.store.Blocks, failingConflicts{f.store.Reservations}, f.opts)

	res := svc.CheckAvailability(context.Background(), testPropertyID, date(t, "2030-01-07"), date(t, "2030-01-09"))
	assert.False(t, res.Available)
	assert.Equal(t, domain.CodeInternal, res.Code)

	_, err := svc.Check(context.Background(), testPropertyID, date(t, "2030-01-07"), date(t, "2030-01-09"))
	assert.ErrorIs(t, err, errStorageDown)
}

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestAvailability_CheckStay(t *testing.T) {
	f := newFixture(t)
	f.addReservation(t, "r1", "2030-01-07", "2030-01-09", domain.StatusApproved, nil)
	ctx := context.Background()

	res := f.availability.CheckStay(ctx, "default", "2030-01-08", "2030-01-10")
	assert.False(t, res.Available)
	assert.Equal(t, domain.CodeBooked, res.Code)

	res = f.availability.CheckStay(ctx, "", "2030-01-09", "2030-01-11")
	assert.True(t, res.Available)

	res = f.availability.CheckStay(ctx, testPropertyID, "2030-01-09", "2030-01-09")
	assert.False(t, res.Available)
	assert.Equal(t, domain.CodeInvalidRange, res.Code)

	res = f.availability.CheckStay(ctx, testPropertyID, "not-a-date", "2030-01-09")
	assert.Equal(t, domain.CodeInvalidInput, res.Code)
}
