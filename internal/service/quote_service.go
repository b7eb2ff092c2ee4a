package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/pkg/logger"
)

const quoteFailure = "Unable to calculate quote"

type QuoteService interface {
	// Quote prices a stay. Every failure is reported in the result.
	Quote(ctx context.Context, in domain.QuoteInput) domain.QuoteResult
	// PriceStay runs the same checks and pricing as Quote but returns
	// failures as errors; rejections are *domain.BookingError.
	PriceStay(ctx context.Context, in domain.QuoteInput) (*domain.Quote, error)
}

type quoteService struct {
	properties   repository.PropertyRepository
	pricing      repository.PricingRepository
	coupons      repository.CouponRepository
	availability AvailabilityService
	opts         Options
}

func NewQuoteService(
	properties repository.PropertyRepository,
	pricing repository.PricingRepository,
	coupons repository.CouponRepository,
	availability AvailabilityService,
	opts Options,
) QuoteService {
	return &quoteService{
		properties:   properties,
		pricing:      pricing,
		coupons:      coupons,
		availability: availability,
		opts:         opts,
	}
}

func (s *quoteService) Quote(ctx context.Context, in domain.QuoteInput) domain.QuoteResult {
	q, err := s.PriceStay(ctx, in)
	if err != nil {
		if be, ok := domain.AsBookingError(err); ok {
			return domain.QuoteResult{Success: false, Error: be.Message, Code: be.Code, Details: be.Details}
		}
		logger.ErrorContext(ctx, "Quote calculation failed", "error", err,
			"check_in", in.CheckIn, "check_out", in.CheckOut, "property_id", in.PropertyID)
		return domain.QuoteResult{Success: false, Error: quoteFailure, Code: domain.CodeInternal, Details: supportDetails}
	}
	return domain.QuoteResult{Success: true, Quote: q}
}

func (s *quoteService) PriceStay(ctx context.Context, in domain.QuoteInput) (*domain.Quote, error) {
	if strings.TrimSpace(in.CheckIn) == "" || strings.TrimSpace(in.CheckOut) == "" {
		return nil, domain.NewValidationError(domain.CodeInvalidInput, "Check-in and check-out dates are required", "")
	}
	checkIn, err := domain.ParseDate(in.CheckIn)
	if err != nil {
		return nil, domain.NewValidationError(domain.CodeInvalidInput, "Invalid check-in date", err.Error())
	}
	if checkIn.Before(s.opts.today()) {
		return nil, domain.NewValidationError(domain.CodePastDate, "Check-in date cannot be in the past", "")
	}
	_, checkOut, err := parseStay(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}

	property, err := resolveProperty(ctx, s.properties, s.opts, in.PropertyID)
	if err != nil {
		return nil, err
	}

	nights := domain.Nights(checkIn, checkOut)
	if nights < property.MinNights {
		return nil, domain.NewValidationError(domain.CodeMinNights,
			fmt.Sprintf("Minimum stay is %s", pluralNights(property.MinNights)),
			fmt.Sprintf("Requested %s", pluralNights(nights)))
	}
	if property.MaxNights > 0 && nights > property.MaxNights {
		return nil, domain.NewValidationError(domain.CodeMaxNights,
			fmt.Sprintf("Maximum stay is %s", pluralNights(property.MaxNights)),
			fmt.Sprintf("Requested %s", pluralNights(nights)))
	}

	avail, err := s.availability.Check(ctx, property.ID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, domain.NewAvailabilityError(domain.CodeNotAvailable, "Selected dates are not available", avail.Reason)
	}

	overrides, err := s.pricing.ListRange(ctx, property.ID, checkIn, checkOut.AddDate(0, 0, -1))
	if err != nil {
		return nil, fmt.Errorf("failed to load custom pricing: %w", err)
	}
	byDate := domain.OverridesByDate(overrides)

	q := &domain.Quote{
		PropertyID: property.ID,
		CheckIn:    domain.FormatDate(checkIn),
		CheckOut:   domain.FormatDate(checkOut),
		Nights:     nights,
		Currency:   property.Currency,
		Breakdown: domain.QuoteBreakdown{
			CustomPriceAdjustments: []domain.PriceAdjustment{},
		},
	}

	var nightlyTotal, weekdayAmount, weekendAmount int64
	for _, night := range domain.EachNight(checkIn, checkOut) {
		date := domain.FormatDate(night)
		weekend := domain.IsWeekendNight(night)
		rate := property.DefaultRate(night)

		o, custom := byDate[date]
		if custom {
			q.Breakdown.CustomPriceAdjustments = append(q.Breakdown.CustomPriceAdjustments, domain.PriceAdjustment{
				Date:         date,
				CustomPrice:  o.PricePerNight,
				DefaultPrice: rate,
				Notes:        o.Notes,
			})
			rate = o.PricePerNight
		}

		q.DailyRates = append(q.DailyRates, domain.NightlyRate{Date: date, Rate: rate, Weekend: weekend, Custom: custom})
		nightlyTotal += rate
		if weekend {
			q.Breakdown.WeekendNights++
			weekendAmount += rate
		} else {
			q.Breakdown.WeekdayNights++
			weekdayAmount += rate
		}
	}

	var coupon *domain.Coupon
	if code := domain.NormalizeCouponCode(in.Coupon); code != "" {
		coupon, err = s.coupons.FindByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to load coupon: %w", err)
		}
		if coupon == nil || !coupon.AppliesTo(s.opts.now(), nights) {
			return nil, domain.ErrInvalidCoupon
		}
	}

	var discount int64
	if coupon != nil {
		discount = coupon.Discount(nightlyTotal)
	}
	fees := property.CleaningFee
	subtotal := nightlyTotal - discount + fees
	taxes := domain.PercentOf(subtotal, property.VATPercent)

	q.Subtotal = subtotal
	q.Fees = fees
	q.Taxes = taxes
	q.Total = subtotal + taxes
	q.Breakdown.BasePrice = nightlyTotal
	q.Breakdown.Discount = discount
	if coupon != nil {
		q.Breakdown.CouponCode = coupon.Code
	}
	q.LineItems = lineItems(q.Breakdown, weekdayAmount, weekendAmount, coupon, fees, taxes, property.VATPercent)

	token, err := newHoldToken()
	if err != nil {
		return nil, err
	}
	q.HoldToken = token
	q.HoldExpiresAt = s.opts.now().Add(s.opts.holdTTL()).UTC()

	return q, nil
}

// lineItems builds the display lines in fixed order: weekday, weekend,
// coupon, cleaning fee, VAT.
func lineItems(b domain.QuoteBreakdown, weekdayAmount, weekendAmount int64, coupon *domain.Coupon, fees, taxes int64, vat float64) []domain.LineItem {
	var items []domain.LineItem
	if b.WeekdayNights > 0 {
		items = append(items, domain.LineItem{
			Kind:   domain.LineWeekday,
			Label:  fmt.Sprintf("Weekday rate (%s)", pluralNights(b.WeekdayNights)),
			Amount: weekdayAmount,
			Nights: b.WeekdayNights,
		})
	}
	if b.WeekendNights > 0 {
		items = append(items, domain.LineItem{
			Kind:   domain.LineWeekend,
			Label:  fmt.Sprintf("Weekend rate (%s)", pluralNights(b.WeekendNights)),
			Amount: weekendAmount,
			Nights: b.WeekendNights,
		})
	}
	if b.Discount > 0 && coupon != nil {
		label := "Coupon " + coupon.Code
		if coupon.PercentOff != nil {
			label = fmt.Sprintf("Coupon %s (%d%% off)", coupon.Code, *coupon.PercentOff)
		}
		items = append(items, domain.LineItem{Kind: domain.LineCoupon, Label: label, Amount: -b.Discount})
	}
	if fees != 0 {
		items = append(items, domain.LineItem{Kind: domain.LineFee, Label: "Cleaning fee", Amount: fees})
	}
	if taxes != 0 {
		items = append(items, domain.LineItem{
			Kind:   domain.LineTax,
			Label:  fmt.Sprintf("VAT (%s%%)", strconv.FormatFloat(vat, 'f', -1, 64)),
			Amount: taxes,
		})
	}
	return items
}

// newHoldToken returns 32 random bytes, hex encoded.
func newHoldToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate hold token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
