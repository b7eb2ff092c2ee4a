package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/google/uuid"
)

type CouponService interface {
	CreateCoupon(ctx context.Context, actorID string, in domain.CouponInput) (*domain.Coupon, error)
	SetCouponActive(ctx context.Context, actorID, code string, active bool) (*domain.Coupon, error)
	// ListPublicCoupons returns the coupons advertised to guests right now.
	ListPublicCoupons(ctx context.Context) ([]domain.Coupon, error)
}

type couponService struct {
	coupons repository.CouponRepository
	audit   repository.AuditRepository
	opts    Options
}

func NewCouponService(coupons repository.CouponRepository, audit repository.AuditRepository, opts Options) CouponService {
	return &couponService{coupons: coupons, audit: audit, opts: opts}
}

func (s *couponService) CreateCoupon(ctx context.Context, actorID string, in domain.CouponInput) (*domain.Coupon, error) {
	in.Code = domain.NormalizeCouponCode(in.Code)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if (in.PercentOff == nil) == (in.AmountOff == nil) {
		return nil, domain.NewValidationError(domain.CodeInvalidInput,
			"Exactly one of percent_off or amount_off must be set", "")
	}
	if in.ValidFrom != nil && in.ValidTo != nil && in.ValidTo.Before(*in.ValidFrom) {
		return nil, domain.NewValidationError(domain.CodeInvalidRange, "valid_to must not be before valid_from", "")
	}

	existing, err := s.coupons.FindByCode(ctx, in.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check coupon code: %w", err)
	}
	if existing != nil {
		return nil, domain.NewValidationError(domain.CodeDuplicate, "Coupon code already exists", in.Code)
	}

	c, err := s.coupons.Create(ctx, &domain.Coupon{
		ID:          uuid.NewString(),
		Code:        in.Code,
		Description: in.Description,
		PercentOff:  in.PercentOff,
		AmountOff:   in.AmountOff,
		ValidFrom:   in.ValidFrom,
		ValidTo:     in.ValidTo,
		MinNights:   in.MinNights,
		IsActive:    in.IsActive,
		IsPublic:    in.IsPublic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	recordAudit(ctx, s.audit, actorID, "coupon.create", "coupon", c.ID, c.Code)
	return c, nil
}

func (s *couponService) SetCouponActive(ctx context.Context, actorID, code string, active bool) (*domain.Coupon, error) {
	c, err := s.coupons.SetActive(ctx, code, active)
	if err != nil {
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}
	if c == nil {
		return nil, domain.NewReferenceError(domain.CodeNotFound, "Coupon not found", domain.NormalizeCouponCode(code))
	}

	action := "coupon.deactivate"
	if active {
		action = "coupon.activate"
	}
	recordAudit(ctx, s.audit, actorID, action, "coupon", c.ID, c.Code)
	return c, nil
}

func (s *couponService) ListPublicCoupons(ctx context.Context) ([]domain.Coupon, error) {
	all, err := s.coupons.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	now := s.opts.now()
	out := make([]domain.Coupon, 0, len(all))
	for _, c := range all {
		if c.IsPublic && c.ActiveAt(now) {
			out = append(out, c)
		}
	}
	return out, nil
}
