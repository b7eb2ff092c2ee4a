package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/pkg/events"
	"github.com/diagnosis/villa-bookings/pkg/logger"
	"github.com/google/uuid"
)

const holdFailure = "Unable to create hold"

type HoldService interface {
	// CreateHold inserts a PENDING reservation for the stay. Every failure is
	// reported in the result.
	CreateHold(ctx context.Context, in domain.HoldInput) domain.HoldResult
}

type holdService struct {
	properties   repository.PropertyRepository
	users        repository.UserRepository
	reservations repository.ReservationRepository
	holdTokens   repository.HoldTokenRepository
	availability AvailabilityService
	eventBus     events.Publisher
	opts         Options
}

func NewHoldService(
	properties repository.PropertyRepository,
	users repository.UserRepository,
	reservations repository.ReservationRepository,
	holdTokens repository.HoldTokenRepository,
	availability AvailabilityService,
	eventBus events.Publisher,
	opts Options,
) HoldService {
	return &holdService{
		properties:   properties,
		users:        users,
		reservations: reservations,
		holdTokens:   holdTokens,
		availability: availability,
		eventBus:     eventBus,
		opts:         opts,
	}
}

func (s *holdService) CreateHold(ctx context.Context, in domain.HoldInput) domain.HoldResult {
	res, replayed, err := s.createHold(ctx, in)
	if err != nil {
		if be, ok := domain.AsBookingError(err); ok {
			return domain.HoldResult{Success: false, Error: be.Message, Code: be.Code, Details: be.Details}
		}
		logger.ErrorContext(ctx, "Hold creation failed", "error", err,
			"check_in", in.CheckIn, "check_out", in.CheckOut, "property_id", in.PropertyID)
		return domain.HoldResult{Success: false, Error: holdFailure, Code: domain.CodeInternal, Details: supportDetails}
	}
	return domain.HoldResult{
		Success:       true,
		ReservationID: res.ID,
		HoldExpiresAt: res.HoldExpiresAt,
		Replayed:      replayed,
	}
}

func (s *holdService) createHold(ctx context.Context, in domain.HoldInput) (*domain.Reservation, bool, error) {
	in.HoldToken = strings.ToLower(strings.TrimSpace(in.HoldToken))
	if err := validateInput(in); err != nil {
		return nil, false, err
	}
	checkIn, checkOut, err := parseStay(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, false, err
	}

	property, err := resolveProperty(ctx, s.properties, s.opts, in.PropertyID)
	if err != nil {
		return nil, false, err
	}

	want := domain.Reservation{PropertyID: property.ID, CheckIn: checkIn, CheckOut: checkOut, Total: in.Total}
	if in.HoldToken != "" {
		existing, err := s.replay(ctx, in.HoldToken, want)
		if err != nil || existing != nil {
			return existing, existing != nil, err
		}
	}

	userID, err := resolveUser(ctx, s.users, s.opts, in.UserID)
	if err != nil {
		return nil, false, err
	}

	avail, err := s.availability.Check(ctx, property.ID, checkIn, checkOut)
	if err != nil {
		return nil, false, err
	}
	if !avail.Available {
		return nil, false, domain.NewAvailabilityError(avail.Code, avail.Reason, "")
	}

	expiresAt := s.opts.now().Add(s.opts.holdTTL()).UTC()
	row := &domain.Reservation{
		ID:            uuid.NewString(),
		PropertyID:    property.ID,
		UserID:        userID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Nights:        domain.Nights(checkIn, checkOut),
		Total:         in.Total,
		Status:        domain.StatusPending,
		HoldExpiresAt: &expiresAt,
	}
	if in.HoldToken != "" {
		row.HoldTokenHash = repository.HashHoldToken(in.HoldToken)
	}

	res, err := s.reservations.Insert(ctx, row)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert hold: %w", err)
	}

	if in.HoldToken != "" {
		if err := s.holdTokens.Save(ctx, in.HoldToken, res.ID, expiresAt); err != nil {
			logger.ErrorContext(ctx, "Failed to store hold token", "error", err, "reservation_id", res.ID)
		}
	}

	event := events.HoldCreatedEvent{
		ReservationID: res.ID,
		PropertyID:    res.PropertyID,
		UserID:        res.UserID,
		CheckIn:       domain.FormatDate(res.CheckIn),
		CheckOut:      domain.FormatDate(res.CheckOut),
		Total:         res.Total,
		HoldExpiresAt: expiresAt,
	}
	if err := s.eventBus.Publish(ctx, events.HoldCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish hold created event", "error", err, "reservation_id", res.ID)
	}

	logger.InfoContext(ctx, "Hold created", "reservation_id", res.ID, "property_id", res.PropertyID,
		"check_in", event.CheckIn, "check_out", event.CheckOut)
	return res, false, nil
}

// replay returns the reservation a hold token already created while that
// reservation still holds its dates. A token whose hold lapsed cannot be
// reused, and a live token only replays the exact stay it was issued for.
func (s *holdService) replay(ctx context.Context, token string, want domain.Reservation) (*domain.Reservation, error) {
	id, err := s.holdTokens.Find(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("hold token lookup failed: %w", err)
	}
	if id == "" {
		return nil, nil
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation %s: %w", id, err)
	}
	if res == nil || !res.BlocksDates(s.opts.now()) {
		return nil, domain.NewValidationError(domain.CodeHoldExpired, "Hold token has expired", "Please request a new quote")
	}
	if !sameStay(res, &want) {
		logger.WarnContext(ctx, "Hold token reused for a different stay", "reservation_id", res.ID,
			"check_in", domain.FormatDate(want.CheckIn), "check_out", domain.FormatDate(want.CheckOut))
		return nil, domain.NewValidationError(domain.CodeHoldTokenMismatch,
			"Hold token was issued for a different stay", "Use a new hold token for these dates")
	}
	logger.InfoContext(ctx, "Replaying hold for known token", "reservation_id", res.ID)
	return res, nil
}

func sameStay(a, b *domain.Reservation) bool {
	return a.PropertyID == b.PropertyID &&
		a.CheckIn.Equal(b.CheckIn) &&
		a.CheckOut.Equal(b.CheckOut) &&
		a.Total == b.Total
}
