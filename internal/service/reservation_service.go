package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/pkg/events"
	"github.com/diagnosis/villa-bookings/pkg/logger"
)

// ReservationService moves reservations through their status lifecycle.
type ReservationService interface {
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	Approve(ctx context.Context, actorID, id string) (*domain.Reservation, error)
	Cancel(ctx context.Context, actorID, id, reason string) (*domain.Reservation, error)
	// MarkPaid is idempotent: a reservation that is already PAID is returned
	// unchanged.
	MarkPaid(ctx context.Context, id, paymentRef string) (*domain.Reservation, error)
}

type reservationService struct {
	reservations repository.ReservationRepository
	audit        repository.AuditRepository
	eventBus     events.Publisher
	opts         Options
}

func NewReservationService(
	reservations repository.ReservationRepository,
	audit repository.AuditRepository,
	eventBus events.Publisher,
	opts Options,
) ReservationService {
	return &reservationService{
		reservations: reservations,
		audit:        audit,
		eventBus:     eventBus,
		opts:         opts,
	}
}

func (s *reservationService) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	if res == nil {
		return nil, domain.NewReferenceError(domain.CodeNotFound, "Reservation not found", "")
	}
	return res, nil
}

func (s *reservationService) Approve(ctx context.Context, actorID, id string) (*domain.Reservation, error) {
	return s.transition(ctx, actorID, id, domain.StatusApproved, "")
}

func (s *reservationService) Cancel(ctx context.Context, actorID, id, reason string) (*domain.Reservation, error) {
	return s.transition(ctx, actorID, id, domain.StatusCancelled, reason)
}

func (s *reservationService) MarkPaid(ctx context.Context, id, paymentRef string) (*domain.Reservation, error) {
	res, err := s.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status == domain.StatusPaid {
		logger.InfoContext(ctx, "Reservation already paid", "reservation_id", id, "payment_ref", paymentRef)
		return res, nil
	}
	return s.transition(ctx, "payments", id, domain.StatusPaid, paymentRef)
}

func (s *reservationService) transition(ctx context.Context, actorID, id string, to domain.ReservationStatus, reason string) (*domain.Reservation, error) {
	res, err := s.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	from := res.Status

	if !from.CanTransitionTo(to) {
		return nil, domain.NewValidationError(domain.CodeInvalidTransition,
			fmt.Sprintf("Cannot change reservation from %s to %s", from, to), "")
	}
	// A lapsed hold no longer protects its dates, so it may only be cancelled.
	if to != domain.StatusCancelled && res.HoldExpired(s.opts.now()) {
		return nil, domain.NewValidationError(domain.CodeHoldExpired, "Hold has expired",
			"The dates may have been booked by someone else")
	}

	ok, err := s.reservations.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update reservation status: %w", err)
	}
	if !ok {
		return nil, domain.NewValidationError(domain.CodeInvalidTransition,
			"Reservation was modified concurrently", "Reload and try again")
	}
	res.Status = to

	recordAudit(ctx, s.audit, actorID, "reservation.status", "reservation", id, fmt.Sprintf("%s -> %s %s", from, to, reason))

	event := events.ReservationStatusChangedEvent{
		ReservationID: id,
		From:          string(from),
		To:            string(to),
		Reason:        reason,
		ChangedAt:     s.opts.now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, events.ReservationStatusChanged, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish status change event", "error", err, "reservation_id", id)
	}

	logger.InfoContext(ctx, "Reservation status changed", "reservation_id", id, "from", from, "to", to)
	return res, nil
}
