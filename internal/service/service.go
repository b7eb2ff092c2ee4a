package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/pkg/config"
	"github.com/diagnosis/villa-bookings/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	supportDetails = "Please try again or contact support"

	// maxCalendarDays bounds admin range reads and bulk writes.
	maxCalendarDays = 366
)

// Options carries the booking rules shared by every service.
type Options struct {
	// DefaultPropertyID is the sentinel id that resolves to the first property.
	DefaultPropertyID string
	GuestUserEmail    string
	HoldTTL           time.Duration
	// HoldTokenRetention keeps swept tokens answerable with HOLD_EXPIRED.
	HoldTokenRetention time.Duration
	// Location decides which calendar date "today" is.
	Location *time.Location
	Now      func() time.Time
}

func NewOptions(cfg config.BookingConfig) Options {
	return Options{
		DefaultPropertyID:  cfg.DefaultPropertyID,
		GuestUserEmail:     cfg.GuestUserEmail,
		HoldTTL:            cfg.HoldTTL,
		HoldTokenRetention: cfg.HoldTokenRetention,
		Location:           cfg.Location(),
		Now:                time.Now,
	}
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o Options) today() time.Time {
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	return domain.DateOf(o.now(), loc)
}

func (o Options) holdTokenRetention() time.Duration {
	if o.HoldTokenRetention <= 0 {
		return 24 * time.Hour
	}
	return o.HoldTokenRetention
}

func (o Options) holdTTL() time.Duration {
	if o.HoldTTL <= 0 {
		return 30 * time.Minute
	}
	return o.HoldTTL
}

// resolveProperty looks up id unless it is empty or the sentinel default, and
// falls back to the first property when the lookup misses.
func resolveProperty(ctx context.Context, repo repository.PropertyRepository, opts Options, id string) (*domain.Property, error) {
	id = strings.TrimSpace(id)
	if id != "" && id != opts.DefaultPropertyID {
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load property %s: %w", id, err)
		}
		if p != nil {
			return p, nil
		}
		logger.DebugContext(ctx, "Property not found, falling back to first property", "property_id", id)
	}

	p, err := repo.First(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load default property: %w", err)
	}
	if p == nil {
		return nil, domain.ErrPropertyNotFound
	}
	return p, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput runs struct validation and reports failures as a single
// validation error naming every offending field.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validation failed: %w", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return domain.NewValidationError(domain.CodeInvalidInput, "Invalid request", strings.Join(parts, "; "))
}

// parseStay parses a check-in/check-out pair and enforces check-out > check-in.
func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	if strings.TrimSpace(checkIn) == "" || strings.TrimSpace(checkOut) == "" {
		return time.Time{}, time.Time{}, domain.NewValidationError(domain.CodeInvalidInput,
			"Check-in and check-out dates are required", "")
	}
	in, err := domain.ParseDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError(domain.CodeInvalidInput, "Invalid check-in date", err.Error())
	}
	out, err := domain.ParseDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError(domain.CodeInvalidInput, "Invalid check-out date", err.Error())
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, domain.NewValidationError(domain.CodeInvalidRange,
			"Check-out date must be after check-in date", "")
	}
	return in, out, nil
}

// parseRange parses an inclusive admin date range.
func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := domain.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError(domain.CodeInvalidInput, "Invalid start date", err.Error())
	}
	end, err := domain.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError(domain.CodeInvalidInput, "Invalid end date", err.Error())
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.NewValidationError(domain.CodeInvalidRange,
			"End date must not be before start date", "")
	}
	if domain.Nights(start, end) >= maxCalendarDays {
		return time.Time{}, time.Time{}, domain.NewValidationError(domain.CodeInvalidRange,
			"Date range is too long", fmt.Sprintf("At most %d days can be requested at once", maxCalendarDays))
	}
	return start, end, nil
}

func pluralNights(n int) string {
	if n == 1 {
		return "1 night"
	}
	return fmt.Sprintf("%d nights", n)
}

// recordAudit writes an audit row. A failed write is logged and does not undo
// the change it describes.
func recordAudit(ctx context.Context, repo repository.AuditRepository, actorID, action, entityType, entityID, details string) {
	rec := &domain.AuditRecord{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if err := repo.Insert(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "Failed to write audit record", "error", err, "action", action, "entity_id", entityID)
	}
}

// resolveUser checks an explicit user id, or falls back to the shared guest
// user. The guest user is never created implicitly.
func resolveUser(ctx context.Context, users repository.UserRepository, opts Options, userID string) (string, error) {
	if userID = strings.TrimSpace(userID); userID != "" {
		u, err := users.FindByID(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("failed to load user %s: %w", userID, err)
		}
		if u == nil {
			return "", domain.NewReferenceError(domain.CodeUserNotFound, "User not found", "")
		}
		return u.ID, nil
	}

	u, err := users.FindByEmail(ctx, opts.GuestUserEmail)
	if err != nil {
		return "", fmt.Errorf("failed to load guest user: %w", err)
	}
	if u == nil {
		return "", domain.NewReferenceError(domain.CodeUserNotFound, "Guest user not found",
			"No user is registered as "+opts.GuestUserEmail)
	}
	return u.ID, nil
}
