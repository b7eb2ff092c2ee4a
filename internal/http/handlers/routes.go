package handlers

import (
	"net/http"
	"time"

	"github.com/diagnosis/villa-bookings/internal/http/middleware"
	"github.com/diagnosis/villa-bookings/pkg/auth"
	mw "github.com/diagnosis/villa-bookings/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

const idempotencyTTL = 24 * time.Hour

// Routes builds the API router. A nil store disables response replay and a
// nil limiter disables rate limiting.
func (h *Handlers) Routes(idem mw.IdempotencyStore, limiter *middleware.RateLimiter) chi.Router {
	passthrough := func(next http.Handler) http.Handler { return next }

	idempotent := passthrough
	if idem != nil {
		idempotent = mw.IdempotencyMiddleware(idem, idempotencyTTL)
	}
	limited := passthrough
	if limiter != nil {
		limited = limiter.Middleware()
	}

	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		// Public booking routes
		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/quote", h.Quote)
			r.Get("/availability", h.Availability)
			r.With(idempotent).Post("/holds", h.CreateHold)
			r.Get("/coupons/public", h.ListPublicCoupons)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(limited).Post("/login", h.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireJWT(h.config.Auth.JWTSecret, auth.RoleAdmin))

				r.Get("/calendar", h.GetCalendar)
				r.Post("/blocks", h.CreateBlock)
				r.Delete("/blocks/{id}", h.DeleteBlock)

				r.With(idempotent).Post("/reservations", h.QuickReserve)
				r.Get("/reservations/{id}", h.GetReservation)
				r.Post("/reservations/{id}/approve", h.ApproveReservation)
				r.Post("/reservations/{id}/cancel", h.CancelReservation)

				r.Get("/pricing", h.ListPricing)
				r.Put("/pricing", h.UpsertPricing)
				r.Delete("/pricing", h.DeletePricing)

				r.Post("/coupons", h.CreateCoupon)
				r.Patch("/coupons/{code}", h.UpdateCoupon)
			})
		})
	})

	r.Post("/webhooks/stripe", h.StripeWebhook)

	return r
}
