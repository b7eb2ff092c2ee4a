package main

import (
	"context"
	"fmt"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/http/handlers"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/internal/repository/memory"
	"github.com/diagnosis/villa-bookings/internal/service"
	"github.com/diagnosis/villa-bookings/pkg/auth"
	"github.com/diagnosis/villa-bookings/pkg/config"
	"github.com/diagnosis/villa-bookings/pkg/database"
	"github.com/diagnosis/villa-bookings/pkg/events"
	"github.com/diagnosis/villa-bookings/pkg/logger"
	mw "github.com/diagnosis/villa-bookings/pkg/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	store  *repository.Store
	bus    events.Publisher
	opts   service.Options
	health map[string]mw.HealthCheck
}

// newApp connects to Postgres and NATS, or builds an in-process store when
// inMemory is set. The in-memory store is seeded so the API is usable at once.
func newApp(ctx context.Context, cfg *config.Config, inMemory bool) (*app, error) {
	a := &app{
		cfg:    cfg,
		opts:   service.NewOptions(cfg.Booking),
		health: map[string]mw.HealthCheck{},
	}

	if inMemory {
		a.store = memory.New().Store()
		if err := seed(ctx, a.store, cfg, seedOptions{AdminEmail: "admin@villa.local", AdminPassword: "admin"}); err != nil {
			return nil, err
		}
		logger.Warn("Using in-memory store; data is lost on exit", "admin_email", "admin@villa.local")
	} else {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.pool = pool
		a.store = repository.NewPostgresStore(pool)
		a.health["database"] = pool.Ping
	}

	if cfg.NATS.URL == "" {
		a.bus = events.NopBus{}
	} else {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.bus = bus
	}

	return a, nil
}

func (a *app) close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			logger.Error("Failed to close event bus", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) availability() service.AvailabilityService {
	return service.NewAvailabilityService(a.store.Properties, a.store.Blocks, a.store.Reservations, a.opts)
}

func (a *app) quotes(availability service.AvailabilityService) service.QuoteService {
	return service.NewQuoteService(a.store.Properties, a.store.Pricing, a.store.Coupons, availability, a.opts)
}

func (a *app) reaper() *service.Reaper {
	return service.NewReaper(a.store.Reservations, a.store.HoldTokens, a.bus, a.opts)
}

func (a *app) services() handlers.Services {
	availability := a.availability()
	quotes := a.quotes(availability)
	return handlers.Services{
		Quotes:       quotes,
		Availability: availability,
		Holds:        service.NewHoldService(a.store.Properties, a.store.Users, a.store.Reservations, a.store.HoldTokens, availability, a.bus, a.opts),
		Calendar:     service.NewCalendarService(a.store, quotes, a.bus, a.opts),
		Pricing:      service.NewPricingService(a.store.Properties, a.store.Pricing, a.store.Audit, a.bus, a.opts),
		Coupons:      service.NewCouponService(a.store.Coupons, a.store.Audit, a.opts),
		Reservations: service.NewReservationService(a.store.Reservations, a.store.Audit, a.bus, a.opts),
	}
}

type seedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// seed creates a property when the store has none, the shared guest user, and
// optionally an administrator. Running it twice is harmless.
func seed(ctx context.Context, store *repository.Store, cfg *config.Config, so seedOptions) error {
	existing, err := store.Properties.First(ctx)
	if err != nil {
		return fmt.Errorf("failed to check properties: %w", err)
	}
	if existing == nil {
		p, err := store.Properties.Upsert(ctx, &domain.Property{
			ID:                uuid.NewString(),
			Name:              "Villa",
			Currency:          "ILS",
			WeekdayPriceNight: 1200,
			CleaningFee:       250,
			VATPercent:        17,
			MinNights:         2,
			MaxNights:         30,
			MaxAdults:         8,
			MaxChildren:       4,
		})
		if err != nil {
			return fmt.Errorf("failed to seed property: %w", err)
		}
		logger.Info("Seeded property", "property_id", p.ID)
	}

	if err := ensureUser(ctx, store.Users, &domain.User{
		ID:    uuid.NewString(),
		Role:  auth.RoleGuest,
		Email: cfg.Booking.GuestUserEmail,
		Name:  "Guest",
	}); err != nil {
		return err
	}

	if so.AdminEmail == "" || so.AdminPassword == "" {
		return nil
	}
	hash, err := auth.HashPassword(so.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	return ensureUser(ctx, store.Users, &domain.User{
		ID:           uuid.NewString(),
		Role:         auth.RoleAdmin,
		Email:        so.AdminEmail,
		PasswordHash: hash,
		Name:         "Administrator",
	})
}

func ensureUser(ctx context.Context, users repository.UserRepository, u *domain.User) error {
	existing, err := users.FindByEmail(ctx, u.Email)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", u.Email, err)
	}
	if existing != nil {
		return nil
	}
	if _, err := users.Create(ctx, u); err != nil {
		return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
	}
	logger.Info("Seeded user", "email", u.Email, "role", u.Role)
	return nil
}
