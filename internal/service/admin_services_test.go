package service

import (
	"context"
	"testing"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricing_UpsertListDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saved, err := f.pricing.UpsertOverrides(ctx, "admin-1", "default", []domain.OverrideInput{
		{Date: "2030-01-08", PricePerNight: 700},
		{Date: "2030-01-07", PricePerNight: 650, PricePerAdult: int64Ptr(50)},
		{Date: "2030-01-08", PricePerNight: 900, Notes: "Holiday"},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "2030-01-07", domain.FormatDate(saved[0].Date))
	assert.Equal(t, int64(900), saved[1].PricePerNight, "last entry for a date wins")

	list, err := f.pricing.ListOverrides(ctx, "", "2030-01-01", "2030-01-31")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Holiday", list[1].Notes)

	quote := f.quotes.Quote(ctx, domain.QuoteInput{CheckIn: "2030-01-07", CheckOut: "2030-01-09"})
	require.True(t, quote.Success)
	assert.Equal(t, int64(1550), quote.Breakdown.BasePrice, "per-guest supplements are not applied")

	n, err := f.pricing.DeleteOverrides(ctx, "admin-1", "", []string{"2030-01-07", "2030-01-08", "2030-01-20"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	quote = f.quotes.Quote(ctx, domain.QuoteInput{CheckIn: "2030-01-07", CheckOut: "2030-01-09"})
	require.True(t, quote.Success)
	assert.Equal(t, int64(1000), quote.Breakdown.BasePrice)

	assert.Equal(t, []string{events.CustomPricingUpdated, events.CustomPricingDeleted}, f.bus.published())
}

func TestPricing_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pricing.UpsertOverrides(ctx, "admin-1", "", nil)
	assertCode(t, err, domain.CodeInvalidInput)

	_, err = f.pricing.UpsertOverrides(ctx, "admin-1", "", []domain.OverrideInput{{Date: "2030-01-07", PricePerNight: -5}})
	assertCode(t, err, domain.CodeInvalidInput)

	_, err = f.pricing.UpsertOverrides(ctx, "admin-1", "", []domain.OverrideInput{{Date: "2030-13-01", PricePerNight: 5}})
	assertCode(t, err, domain.CodeInvalidInput)

	_, err = f.pricing.DeleteOverrides(ctx, "admin-1", "", []string{"soon"})
	assertCode(t, err, domain.CodeInvalidInput)
}

func TestCoupons_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.coupons.CreateCoupon(ctx, "admin-1", domain.CouponInput{Code: " summer25 ", PercentOff: intPtr(25), IsActive: true, IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER25", c.Code)

	_, err = f.coupons.CreateCoupon(ctx, "admin-1", domain.CouponInput{Code: "SUMMER25", AmountOff: int64Ptr(100)})
	assertCode(t, err, domain.CodeDuplicate)

	_, err = f.coupons.CreateCoupon(ctx, "admin-1", domain.CouponInput{Code: "BOTH", PercentOff: intPtr(5), AmountOff: int64Ptr(100)})
	assertCode(t, err, domain.CodeInvalidInput)

	_, err = f.coupons.CreateCoupon(ctx, "admin-1", domain.CouponInput{Code: "NONE"})
	assertCode(t, err, domain.CodeInvalidInput)

	_, err = f.coupons.CreateCoupon(ctx, "admin-1", domain.CouponInput{Code: "HUGE", PercentOff: intPtr(150)})
	assertCode(t, err, domain.CodeInvalidInput)

	from := f.now
	to := f.now.Add(-time.Hour)
	_, err = f.coupons.CreateCoupon(ctx, "admin-1", domain.CouponInput{Code: "BACKWARDS", PercentOff: intPtr(5), ValidFrom: &from, ValidTo: &to})
	assertCode(t, err, domain.CodeInvalidRange)
}

func TestCoupons_ToggleAndListPublic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := f.now.Add(-time.Hour)
	f.addCoupon(t, domain.Coupon{Code: "PUBLIC", PercentOff: intPtr(5), IsActive: true, IsPublic: true})
	f.addCoupon(t, domain.Coupon{Code: "PRIVATE", PercentOff: intPtr(5), IsActive: true})
	f.addCoupon(t, domain.Coupon{Code: "EXPIRED", PercentOff: intPtr(5), IsActive: true, IsPublic: true, ValidTo: &past})

	list, err := f.coupons.ListPublicCoupons(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "PUBLIC", list[0].Code)

	c, err := f.coupons.SetCouponActive(ctx, "admin-1", "public", false)
	require.NoError(t, err)
	assert.False(t, c.IsActive)

	quote := f.quotes.Quote(ctx, domain.QuoteInput{CheckIn: "2030-01-07", CheckOut: "2030-01-09", Coupon: "PUBLIC"})
	assert.False(t, quote.Success)
	assert.Equal(t, domain.CodeInvalidCoupon, quote.Code)

	list, err = f.coupons.ListPublicCoupons(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.coupons.SetCouponActive(ctx, "admin-1", "NOPE", true)
	assertCode(t, err, domain.CodeNotFound)
}

func TestReservations_Transitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addReservation(t, "hold", "2030-01-07", "2030-01-09", domain.StatusPending, f.at(10*time.Minute))

	res, err := f.reservations.Approve(ctx, "admin-1", "hold")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, res.Status)

	res, err = f.reservations.MarkPaid(ctx, "hold", "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, res.Status)

	res, err = f.reservations.MarkPaid(ctx, "hold", "pi_123")
	require.NoError(t, err, "paying twice is a no-op")
	assert.Equal(t, domain.StatusPaid, res.Status)

	_, err = f.reservations.Approve(ctx, "admin-1", "hold")
	assertCode(t, err, domain.CodeInvalidTransition)

	res, err = f.reservations.Cancel(ctx, "admin-1", "hold", "guest request")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, res.Status)

	_, err = f.reservations.Cancel(ctx, "admin-1", "hold", "")
	assertCode(t, err, domain.CodeInvalidTransition)

	_, err = f.reservations.Approve(ctx, "admin-1", "missing")
	assertCode(t, err, domain.CodeNotFound)

	assert.Equal(t, []string{
		events.ReservationStatusChanged,
		events.ReservationStatusChanged,
		events.ReservationStatusChanged,
	}, f.bus.published())
}

func TestReservations_ExpiredHoldCanOnlyBeCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addReservation(t, "lapsed", "2030-01-07", "2030-01-09", domain.StatusPending, f.at(-time.Minute))

	_, err := f.reservations.Approve(ctx, "admin-1", "lapsed")
	assertCode(t, err, domain.CodeHoldExpired)
	_, err = f.reservations.MarkPaid(ctx, "lapsed", "pi_1")
	assertCode(t, err, domain.CodeHoldExpired)

	res, err := f.reservations.Cancel(ctx, "admin-1", "lapsed", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, res.Status)
}

func TestReaper_Sweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addReservation(t, "lapsed", "2030-01-07", "2030-01-09", domain.StatusPending, f.at(-time.Minute))
	f.addReservation(t, "live", "2030-01-10", "2030-01-12", domain.StatusPending, f.at(time.Minute))
	f.addReservation(t, "approved", "2030-01-13", "2030-01-15", domain.StatusApproved, nil)

	n, err := f.reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	lapsed, err := f.store.Reservations.GetByID(ctx, "lapsed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, lapsed.Status)

	live, err := f.store.Reservations.GetByID(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, live.Status)

	assert.Equal(t, []string{events.HoldsExpired}, f.bus.published())

	n, err = f.reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.bus.published(), 1)
}

func TestReaper_RunStopsWithContext(t *testing.T) {
	f := newFixture(t)
	f.addReservation(t, "lapsed", "2030-01-07", "2030-01-09", domain.StatusPending, f.at(-time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.reaper.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		r, _ := f.store.Reservations.GetByID(context.Background(), "lapsed")
		return r.Status == domain.StatusCancelled
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	be, ok := domain.AsBookingError(err)
	require.True(t, ok, "expected booking error %s, got %v", code, err)
	assert.Equal(t, code, be.Code)
}
