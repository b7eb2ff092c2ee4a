package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/pkg/logger"
)

const bookedReason = "Selected dates are already booked"

type AvailabilityService interface {
	// CheckAvailability never fails: storage errors are logged and reported
	// as unavailable.
	CheckAvailability(ctx context.Context, propertyID string, checkIn, checkOut time.Time) domain.AvailabilityResult
	// Check is the error-returning form used by the other services.
	Check(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (domain.AvailabilityResult, error)
	// CheckStay parses the dates and resolves the property before checking.
	// Invalid input is reported with the validation code.
	CheckStay(ctx context.Context, propertyID, checkIn, checkOut string) domain.AvailabilityResult
}

type availabilityService struct {
	properties   repository.PropertyRepository
	blocks       repository.BlockedPeriodRepository
	reservations repository.ReservationRepository
	opts         Options
}

func NewAvailabilityService(
	properties repository.PropertyRepository,
	blocks repository.BlockedPeriodRepository,
	reservations repository.ReservationRepository,
	opts Options,
) AvailabilityService {
	return &availabilityService{
		properties:   properties,
		blocks:       blocks,
		reservations: reservations,
		opts:         opts,
	}
}

func (s *availabilityService) CheckAvailability(ctx context.Context, propertyID string, checkIn, checkOut time.Time) domain.AvailabilityResult {
	res, err := s.Check(ctx, propertyID, checkIn, checkOut)
	if err != nil {
		logger.ErrorContext(ctx, "Availability check failed", "error", err, "property_id", propertyID)
		return domain.AvailabilityResult{
			Available: false,
			Reason:    "Unable to check availability",
			Code:      domain.CodeInternal,
		}
	}
	return res
}

func (s *availabilityService) Check(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (domain.AvailabilityResult, error) {
	checkIn, checkOut = domain.TruncateDate(checkIn), domain.TruncateDate(checkOut)

	blocked, err := s.blocks.FindOverlapping(ctx, propertyID, checkIn, checkOut)
	if err != nil {
		return domain.AvailabilityResult{}, fmt.Errorf("failed to query blocked periods: %w", err)
	}
	for _, b := range blocked {
		if b.Overlaps(checkIn, checkOut) {
			return domain.AvailabilityResult{
				Available: false,
				Reason:    "Dates are blocked: " + b.DisplayReason(),
				Code:      domain.CodeBlocked,
			}, nil
		}
	}

	candidates, err := s.reservations.FindConflicting(ctx, propertyID, checkIn, checkOut, domain.OccupyingStatuses)
	if err != nil {
		return domain.AvailabilityResult{}, fmt.Errorf("failed to query reservations: %w", err)
	}
	now := s.opts.now()
	for _, r := range candidates {
		if r.Overlaps(checkIn, checkOut) && r.BlocksDates(now) {
			return domain.AvailabilityResult{
				Available: false,
				Reason:    bookedReason,
				Code:      domain.CodeBooked,
			}, nil
		}
	}

	return domain.AvailabilityResult{Available: true}, nil
}

func (s *availabilityService) CheckStay(ctx context.Context, propertyID, checkIn, checkOut string) domain.AvailabilityResult {
	in, out, err := parseStay(checkIn, checkOut)
	if err == nil {
		var p *domain.Property
		if p, err = resolveProperty(ctx, s.properties, s.opts, propertyID); err == nil {
			return s.CheckAvailability(ctx, p.ID, in, out)
		}
	}
	if be, ok := domain.AsBookingError(err); ok {
		return domain.AvailabilityResult{Available: false, Reason: be.Message, Code: be.Code}
	}
	logger.ErrorContext(ctx, "Availability check failed", "error", err, "property_id", propertyID)
	return domain.AvailabilityResult{
		Available: false,
		Reason:    "Unable to check availability",
		Code:      domain.CodeInternal,
	}
}
