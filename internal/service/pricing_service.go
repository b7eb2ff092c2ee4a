package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/pkg/events"
	"github.com/diagnosis/villa-bookings/pkg/logger"
)

// PricingService manages custom per-date price overrides.
type PricingService interface {
	ListOverrides(ctx context.Context, propertyID, from, to string) ([]domain.CustomPriceOverride, error)
	// UpsertOverrides writes a batch keyed by date. When a date repeats in the
	// batch the last entry wins.
	UpsertOverrides(ctx context.Context, actorID, propertyID string, in []domain.OverrideInput) ([]domain.CustomPriceOverride, error)
	DeleteOverrides(ctx context.Context, actorID, propertyID string, dates []string) (int64, error)
}

type pricingService struct {
	properties repository.PropertyRepository
	pricing    repository.PricingRepository
	audit      repository.AuditRepository
	eventBus   events.Publisher
	opts       Options
}

func NewPricingService(
	properties repository.PropertyRepository,
	pricing repository.PricingRepository,
	audit repository.AuditRepository,
	eventBus events.Publisher,
	opts Options,
) PricingService {
	return &pricingService{
		properties: properties,
		pricing:    pricing,
		audit:      audit,
		eventBus:   eventBus,
		opts:       opts,
	}
}

func (s *pricingService) ListOverrides(ctx context.Context, propertyID, from, to string) ([]domain.CustomPriceOverride, error) {
	start, end, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	property, err := resolveProperty(ctx, s.properties, s.opts, propertyID)
	if err != nil {
		return nil, err
	}
	out, err := s.pricing.ListRange(ctx, property.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom pricing: %w", err)
	}
	if out == nil {
		out = []domain.CustomPriceOverride{}
	}
	return out, nil
}

func (s *pricingService) UpsertOverrides(ctx context.Context, actorID, propertyID string, in []domain.OverrideInput) ([]domain.CustomPriceOverride, error) {
	if len(in) == 0 {
		return nil, domain.NewValidationError(domain.CodeInvalidInput, "At least one override is required", "")
	}
	if len(in) > maxCalendarDays {
		return nil, domain.NewValidationError(domain.CodeInvalidInput, "Too many overrides",
			fmt.Sprintf("At most %d dates can be priced at once", maxCalendarDays))
	}
	property, err := resolveProperty(ctx, s.properties, s.opts, propertyID)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]domain.CustomPriceOverride, len(in))
	for i, o := range in {
		if err := validateInput(o); err != nil {
			if be, ok := domain.AsBookingError(err); ok {
				be.Details = fmt.Sprintf("override %d: %s", i, be.Details)
			}
			return nil, err
		}
		date, err := domain.ParseDate(o.Date)
		if err != nil {
			return nil, domain.NewValidationError(domain.CodeInvalidInput, "Invalid override date", err.Error())
		}
		byDate[domain.FormatDate(date)] = domain.CustomPriceOverride{
			PropertyID:    property.ID,
			Date:          date,
			PricePerNight: o.PricePerNight,
			PricePerAdult: o.PricePerAdult,
			PricePerChild: o.PricePerChild,
			Notes:         strings.TrimSpace(o.Notes),
		}
	}

	batch := make([]domain.CustomPriceOverride, 0, len(byDate))
	dates := make([]string, 0, len(byDate))
	for date, o := range byDate {
		batch = append(batch, o)
		dates = append(dates, date)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Date.Before(batch[j].Date) })
	sort.Strings(dates)

	if err := s.pricing.BulkUpsert(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to upsert custom pricing: %w", err)
	}

	recordAudit(ctx, s.audit, actorID, "pricing.upsert", "property", property.ID, strings.Join(dates, ","))
	s.publish(ctx, events.CustomPricingUpdated, property.ID, dates)
	logger.InfoContext(ctx, "Custom pricing updated", "property_id", property.ID, "dates", len(dates))
	return batch, nil
}

func (s *pricingService) DeleteOverrides(ctx context.Context, actorID, propertyID string, dates []string) (int64, error) {
	if len(dates) == 0 {
		return 0, domain.NewValidationError(domain.CodeInvalidInput, "At least one date is required", "")
	}
	if len(dates) > maxCalendarDays {
		return 0, domain.NewValidationError(domain.CodeInvalidInput, "Too many dates",
			fmt.Sprintf("At most %d dates can be cleared at once", maxCalendarDays))
	}
	property, err := resolveProperty(ctx, s.properties, s.opts, propertyID)
	if err != nil {
		return 0, err
	}

	parsed := make([]time.Time, 0, len(dates))
	names := make([]string, 0, len(dates))
	for _, d := range dates {
		date, err := domain.ParseDate(d)
		if err != nil {
			return 0, domain.NewValidationError(domain.CodeInvalidInput, "Invalid date", err.Error())
		}
		parsed = append(parsed, date)
		names = append(names, domain.FormatDate(date))
	}

	n, err := s.pricing.DeleteDates(ctx, property.ID, parsed)
	if err != nil {
		return 0, fmt.Errorf("failed to delete custom pricing: %w", err)
	}

	recordAudit(ctx, s.audit, actorID, "pricing.delete", "property", property.ID, strings.Join(names, ","))
	s.publish(ctx, events.CustomPricingDeleted, property.ID, names)
	return n, nil
}

func (s *pricingService) publish(ctx context.Context, subject, propertyID string, dates []string) {
	event := events.CustomPricingEvent{PropertyID: propertyID, Dates: dates}
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish pricing event", "error", err, "subject", subject)
	}
}
