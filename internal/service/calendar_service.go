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

// CalendarService backs the admin calendar: a per-day view of the
// availability ledger plus block, unblock and quick-reserve actions.
type CalendarService interface {
	Calendar(ctx context.Context, propertyID, from, to string) ([]domain.CalendarDay, error)
	BlockDates(ctx context.Context, actorID string, in domain.BlockInput) (*domain.BlockedPeriod, error)
	UnblockDates(ctx context.Context, actorID, blockID string) error
	QuickReserve(ctx context.Context, actorID string, in domain.QuickReserveInput) (*domain.Reservation, error)
}

type calendarService struct {
	properties   repository.PropertyRepository
	pricing      repository.PricingRepository
	blocks       repository.BlockedPeriodRepository
	reservations repository.ReservationRepository
	users        repository.UserRepository
	audit        repository.AuditRepository
	quotes       QuoteService
	eventBus     events.Publisher
	opts         Options
}

func NewCalendarService(store *repository.Store, quotes QuoteService, eventBus events.Publisher, opts Options) CalendarService {
	return &calendarService{
		properties:   store.Properties,
		pricing:      store.Pricing,
		blocks:       store.Blocks,
		reservations: store.Reservations,
		users:        store.Users,
		audit:        store.Audit,
		quotes:       quotes,
		eventBus:     eventBus,
		opts:         opts,
	}
}

func (s *calendarService) Calendar(ctx context.Context, propertyID, from, to string) ([]domain.CalendarDay, error) {
	start, end, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	property, err := resolveProperty(ctx, s.properties, s.opts, propertyID)
	if err != nil {
		return nil, err
	}

	overrides, err := s.pricing.ListRange(ctx, property.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom pricing: %w", err)
	}
	blocks, err := s.blocks.ListRange(ctx, property.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocked periods: %w", err)
	}
	reservations, err := s.reservations.ListRange(ctx, property.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}

	byDate := domain.OverridesByDate(overrides)
	now := s.opts.now()
	days := make([]domain.CalendarDay, 0, domain.Nights(start, end)+1)
	for _, day := range domain.EachNight(start, end.AddDate(0, 0, 1)) {
		date := domain.FormatDate(day)
		cd := domain.CalendarDay{
			Date:    date,
			Status:  domain.DayAvailable,
			Price:   property.DefaultRate(day),
			Weekend: domain.IsWeekendNight(day),
		}
		if o, ok := byDate[date]; ok {
			cd.Price = o.PricePerNight
			cd.CustomPrice = true
		}

		for i := range reservations {
			r := &reservations[i]
			if r.Occupies(day) && r.BlocksDates(now) {
				cd.Status = domain.DayReserved
				if r.Status == domain.StatusPending {
					cd.Status = domain.DayHeld
				}
				cd.ReservationID = r.ID
				cd.ReservationStatus = r.Status
				break
			}
		}
		for i := range blocks {
			if blocks[i].Covers(day) {
				cd.Status = domain.DayBlocked
				cd.BlockID = blocks[i].ID
				cd.BlockReason = blocks[i].DisplayReason()
				break
			}
		}
		days = append(days, cd)
	}
	return days, nil
}

func (s *calendarService) BlockDates(ctx context.Context, actorID string, in domain.BlockInput) (*domain.BlockedPeriod, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	start, end, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	property, err := resolveProperty(ctx, s.properties, s.opts, in.PropertyID)
	if err != nil {
		return nil, err
	}

	block, err := s.blocks.Create(ctx, &domain.BlockedPeriod{
		ID:         uuid.NewString(),
		PropertyID: property.ID,
		StartDate:  start,
		EndDate:    end,
		Reason:     strings.TrimSpace(in.Reason),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blocked period: %w", err)
	}

	recordAudit(ctx, s.audit, actorID, "block.create", "blocked_period", block.ID,
		fmt.Sprintf("%s..%s %s", in.StartDate, in.EndDate, block.Reason))
	s.publishBlock(ctx, events.BlockCreated, block)
	logger.InfoContext(ctx, "Dates blocked", "block_id", block.ID, "start", in.StartDate, "end", in.EndDate)
	return block, nil
}

func (s *calendarService) UnblockDates(ctx context.Context, actorID, blockID string) error {
	block, err := s.blocks.Delete(ctx, blockID)
	if err != nil {
		return fmt.Errorf("failed to delete blocked period: %w", err)
	}
	if block == nil {
		return domain.NewReferenceError(domain.CodeNotFound, "Blocked period not found", "")
	}

	recordAudit(ctx, s.audit, actorID, "block.delete", "blocked_period", block.ID,
		fmt.Sprintf("%s..%s", domain.FormatDate(block.StartDate), domain.FormatDate(block.EndDate)))
	s.publishBlock(ctx, events.BlockDeleted, block)
	return nil
}

func (s *calendarService) publishBlock(ctx context.Context, subject string, b *domain.BlockedPeriod) {
	event := events.BlockEvent{
		BlockID:    b.ID,
		PropertyID: b.PropertyID,
		StartDate:  domain.FormatDate(b.StartDate),
		EndDate:    domain.FormatDate(b.EndDate),
		Reason:     b.Reason,
	}
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish block event", "error", err, "subject", subject, "block_id", b.ID)
	}
}

// QuickReserve books dates directly as APPROVED, priced like a guest quote
// without a coupon.
func (s *calendarService) QuickReserve(ctx context.Context, actorID string, in domain.QuickReserveInput) (*domain.Reservation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	q, err := s.quotes.PriceStay(ctx, domain.QuoteInput{
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		PropertyID: in.PropertyID,
	})
	if err != nil {
		return nil, err
	}
	property, err := resolveProperty(ctx, s.properties, s.opts, q.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.MaxAdults > 0 && in.Adults > property.MaxAdults {
		return nil, domain.NewValidationError(domain.CodeInvalidInput, "Too many adults",
			fmt.Sprintf("At most %d adults can stay", property.MaxAdults))
	}
	if in.Children > property.MaxChildren {
		return nil, domain.NewValidationError(domain.CodeInvalidInput, "Too many children",
			fmt.Sprintf("At most %d children can stay", property.MaxChildren))
	}

	userID, err := resolveUser(ctx, s.users, s.opts, in.UserID)
	if err != nil {
		return nil, err
	}

	checkIn, checkOut, err := parseStay(q.CheckIn, q.CheckOut)
	if err != nil {
		return nil, err
	}
	res, err := s.reservations.Insert(ctx, &domain.Reservation{
		ID:         uuid.NewString(),
		PropertyID: property.ID,
		UserID:     userID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Nights:     q.Nights,
		Adults:     in.Adults,
		Children:   in.Children,
		Total:      q.Total,
		Status:     domain.StatusApproved,
		Notes:      strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert reservation: %w", err)
	}

	recordAudit(ctx, s.audit, actorID, "reservation.quick_reserve", "reservation", res.ID,
		fmt.Sprintf("%s..%s total=%d", q.CheckIn, q.CheckOut, q.Total))

	event := events.ReservationCreatedEvent{
		ReservationID: res.ID,
		PropertyID:    res.PropertyID,
		CheckIn:       q.CheckIn,
		CheckOut:      q.CheckOut,
		Status:        string(res.Status),
		Total:         res.Total,
		Source:        "admin",
	}
	if err := s.eventBus.Publish(ctx, events.ReservationCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish reservation created event", "error", err, "reservation_id", res.ID)
	}
	return res, nil
}
