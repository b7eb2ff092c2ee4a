package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Store groups every repository the services depend on.
type Store struct {
	Properties   PropertyRepository
	Pricing      PricingRepository
	Coupons      CouponRepository
	Blocks       BlockedPeriodRepository
	Reservations ReservationRepository
	Users        UserRepository
	HoldTokens   HoldTokenRepository
	Audit        AuditRepository
}

func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Properties:   NewPropertyRepository(pool),
		Pricing:      NewPricingRepository(pool),
		Coupons:      NewCouponRepository(pool),
		Blocks:       NewBlockedPeriodRepository(pool),
		Reservations: NewReservationRepository(pool),
		Users:        NewUserRepository(pool),
		HoldTokens:   NewHoldTokenRepository(pool),
		Audit:        NewAuditRepository(pool),
	}
}
