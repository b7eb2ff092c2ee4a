package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

const (
	testPropertyID = "villa-1"
	guestEmail     = "guest@villa.local"
)

var errStorageDown = errors.New("connection refused")

// recordingBus keeps published subjects for assertions.
type recordingBus struct {
	mu       sync.Mutex
	subjects []string
}

func (b *recordingBus) Publish(_ context.Context, subject string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	return nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.subjects...)
}

type fixture struct {
	db    *memory.DB
	store *repository.Store
	bus   *recordingBus
	now   time.Time
	opts  Options
	guest *domain.User

	availability AvailabilityService
	quotes       QuoteService
	holds        HoldService
	calendar     CalendarService
	pricing      PricingService
	coupons      CouponService
	reservations ReservationService
	reaper       *Reaper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		db:  memory.New(),
		bus: &recordingBus{},
		// A Tuesday.
		now: time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	f.store = f.db.Store()
	f.opts = Options{
		DefaultPropertyID: "default",
		GuestUserEmail:    guestEmail,
		HoldTTL:           30 * time.Minute,
		Location:          time.UTC,
		Now:               func() time.Time { return f.now },
	}

	weekend := int64(600)
	_, err := f.store.Properties.Upsert(ctx, &domain.Property{
		ID:                testPropertyID,
		Name:              "Villa",
		Currency:          "ILS",
		WeekdayPriceNight: 500,
		WeekendPriceNight: &weekend,
		CleaningFee:       150,
		VATPercent:        17,
		MinNights:         2,
		MaxNights:         14,
		MaxAdults:         6,
		MaxChildren:       4,
	})
	require.NoError(t, err)

	f.guest, err = f.store.Users.Create(ctx, &domain.User{ID: "guest-user", Role: "guest", Email: guestEmail})
	require.NoError(t, err)

	f.wire()
	return f
}

func (f *fixture) wire() {
	f.availability = NewAvailabilityService(f.store.Properties, f.store.Blocks, f.store.Reservations, f.opts)
	f.quotes = NewQuoteService(f.store.Properties, f.store.Pricing, f.store.Coupons, f.availability, f.opts)
	f.holds = NewHoldService(f.store.Properties, f.store.Users, f.store.Reservations, f.store.HoldTokens, f.availability, f.bus, f.opts)
	f.calendar = NewCalendarService(f.store, f.quotes, f.bus, f.opts)
	f.pricing = NewPricingService(f.store.Properties, f.store.Pricing, f.store.Audit, f.bus, f.opts)
	f.coupons = NewCouponService(f.store.Coupons, f.store.Audit, f.opts)
	f.reservations = NewReservationService(f.store.Reservations, f.store.Audit, f.bus, f.opts)
	f.reaper = NewReaper(f.store.Reservations, f.store.HoldTokens, f.bus, f.opts)
}

func (f *fixture) addCoupon(t *testing.T, c domain.Coupon) {
	t.Helper()
	if c.ID == "" {
		c.ID = "coupon-" + c.Code
	}
	_, err := f.store.Coupons.Create(context.Background(), &c)
	require.NoError(t, err)
}

func (f *fixture) addBlock(t *testing.T, start, end, reason string) *domain.BlockedPeriod {
	t.Helper()
	b, err := f.store.Blocks.Create(context.Background(), &domain.BlockedPeriod{
		ID:         "block-" + start,
		PropertyID: testPropertyID,
		StartDate:  date(t, start),
		EndDate:    date(t, end),
		Reason:     reason,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) addReservation(t *testing.T, id, checkIn, checkOut string, status domain.ReservationStatus, holdExpiresAt *time.Time) *domain.Reservation {
	t.Helper()
	in, out := date(t, checkIn), date(t, checkOut)
	r, err := f.store.Reservations.Insert(context.Background(), &domain.Reservation{
		ID:            id,
		PropertyID:    testPropertyID,
		UserID:        f.guest.ID,
		CheckIn:       in,
		CheckOut:      out,
		Nights:        domain.Nights(in, out),
		Status:        status,
		HoldExpiresAt: holdExpiresAt,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) at(d time.Duration) *time.Time {
	t := f.now.Add(d)
	return &t
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

type failingPricing struct {
	repository.PricingRepository
}

func (failingPricing) ListRange(context.Context, string, time.Time, time.Time) ([]domain.CustomPriceOverride, error) {
	return nil, errStorageDown
}

type failingConflicts struct {
	repository.ReservationRepository
}

func (failingConflicts) FindConflicting(context.Context, string, time.Time, time.Time, []domain.ReservationStatus) ([]domain.Reservation, error) {
	return nil, errStorageDown
}

type failingInsert struct {
	repository.ReservationRepository
}

func (failingInsert) Insert(context.Context, *domain.Reservation) (*domain.Reservation, error) {
	return nil, errStorageDown
}
