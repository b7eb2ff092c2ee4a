package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository/memory"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestPricingRangeIsInclusive(t *testing.T) {
	ctx := context.Background()
	store := memory.New().Store()

	require.NoError(t, store.Pricing.BulkUpsert(ctx, []domain.CustomPriceOverride{
		{PropertyID: "p1", Date: day(t, "2030-01-01"), PricePerNight: 100},
		{PropertyID: "p1", Date: day(t, "2030-01-03"), PricePerNight: 300},
		{PropertyID: "p1", Date: day(t, "2030-01-05"), PricePerNight: 500},
		{PropertyID: "p2", Date: day(t, "2030-01-03"), PricePerNight: 999},
	}))

	got, err := store.Pricing.ListRange(ctx, "p1", day(t, "2030-01-01"), day(t, "2030-01-03"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(100), got[0].PricePerNight)
	assert.Equal(t, int64(300), got[1].PricePerNight)

	// Upserting the same date replaces the price.
	require.NoError(t, store.Pricing.BulkUpsert(ctx, []domain.CustomPriceOverride{
		{PropertyID: "p1", Date: day(t, "2030-01-03"), PricePerNight: 350},
	}))
	n, err := store.Pricing.DeleteDates(ctx, "p1", []time.Time{day(t, "2030-01-01"), day(t, "2030-01-02")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = store.Pricing.ListRange(ctx, "p1", day(t, "2030-01-01"), day(t, "2030-01-31"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(350), got[0].PricePerNight)
}

func TestCouponCodesAreNormalized(t *testing.T) {
	ctx := context.Background()
	store := memory.New().Store()

	_, err := store.Coupons.Create(ctx, &domain.Coupon{ID: "c1", Code: "summer10", IsActive: true, IsPublic: true})
	require.NoError(t, err)

	_, err = store.Coupons.Create(ctx, &domain.Coupon{ID: "c2", Code: "SUMMER10"})
	assert.ErrorIs(t, err, memory.ErrDuplicateCode)

	c, err := store.Coupons.FindByCode(ctx, " Summer10 ")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "c1", c.ID)

	_, err = store.Coupons.SetActive(ctx, "summer10", false)
	require.NoError(t, err)
	public, err := store.Coupons.ListPublic(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)

	missing, err := store.Coupons.SetActive(ctx, "nope", true)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReservationStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := memory.New().Store()

	_, err := store.Reservations.Insert(ctx, &domain.Reservation{
		ID:         "r1",
		PropertyID: "p1",
		CheckIn:    day(t, "2030-01-01"),
		CheckOut:   day(t, "2030-01-03"),
		Status:     domain.StatusAwaitingApproval,
	})
	require.NoError(t, err)

	ok, err := store.Reservations.UpdateStatus(ctx, "r1", domain.StatusPending, domain.StatusApproved)
	require.NoError(t, err)
	assert.False(t, ok, "stale from-status must not apply")

	ok, err = store.Reservations.UpdateStatus(ctx, "r1", domain.StatusAwaitingApproval, domain.StatusApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	res, err := store.Reservations.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, res.Status)
}

func TestExpireHoldsOnlyTouchesLapsedHolds(t *testing.T) {
	ctx := context.Background()
	store := memory.New().Store()
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	for _, res := range []domain.Reservation{
		{ID: "lapsed", PropertyID: "p1", Status: domain.StatusPending, HoldExpiresAt: &past},
		{ID: "live", PropertyID: "p1", Status: domain.StatusPending, HoldExpiresAt: &future},
		{ID: "open", PropertyID: "p1", Status: domain.StatusPending},
		{ID: "paid", PropertyID: "p1", Status: domain.StatusPaid, HoldExpiresAt: &past},
	} {
		_, err := store.Reservations.Insert(ctx, &res)
		require.NoError(t, err)
	}

	n, err := store.Reservations.ExpireHolds(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	want := map[string]domain.ReservationStatus{
		"lapsed": domain.StatusCancelled,
		"live":   domain.StatusPending,
		"open":   domain.StatusPending,
		"paid":   domain.StatusPaid,
	}
	for id, status := range want {
		res, err := store.Reservations.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, res.Status, id)
	}
}

func TestHoldTokensKeepFirstReservation(t *testing.T) {
	ctx := context.Background()
	store := memory.New().Store()
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.HoldTokens.Save(ctx, "tok", "r1", now.Add(time.Hour)))
	require.NoError(t, store.HoldTokens.Save(ctx, "tok", "r2", now.Add(time.Hour)))
	require.NoError(t, store.HoldTokens.Save(ctx, "old", "r3", now.Add(-time.Hour)))

	id, err := store.HoldTokens.Find(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "r1", id)

	n, err := store.HoldTokens.CleanupExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	id, err = store.HoldTokens.Find(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, id)
}
