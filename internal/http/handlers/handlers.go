package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/diagnosis/villa-bookings/internal/http/middleware"
	"github.com/diagnosis/villa-bookings/internal/http/response"
	"github.com/diagnosis/villa-bookings/internal/repository"
	"github.com/diagnosis/villa-bookings/internal/service"
	"github.com/diagnosis/villa-bookings/pkg/config"
)

// maxBodyBytes caps request bodies; the largest legitimate one is a pricing
// batch covering a year.
const maxBodyBytes = 1 << 20

// Services groups everything the HTTP layer calls into.
type Services struct {
	Quotes       service.QuoteService
	Availability service.AvailabilityService
	Holds        service.HoldService
	Calendar     service.CalendarService
	Pricing      service.PricingService
	Coupons      service.CouponService
	Reservations service.ReservationService
}

type Handlers struct {
	quotes       service.QuoteService
	availability service.AvailabilityService
	holds        service.HoldService
	calendar     service.CalendarService
	pricing      service.PricingService
	coupons      service.CouponService
	reservations service.ReservationService
	users        repository.UserRepository
	config       *config.Config
}

func New(svc Services, users repository.UserRepository, cfg *config.Config) *Handlers {
	return &Handlers{
		quotes:       svc.Quotes,
		availability: svc.Availability,
		holds:        svc.Holds,
		calendar:     svc.Calendar,
		pricing:      svc.Pricing,
		coupons:      svc.Coupons,
		reservations: svc.Reservations,
		users:        users,
		config:       cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	response.WriteJSON(w, status, data)
}

// decodeJSON reads a single JSON object from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		msg := "Invalid JSON format"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		response.BadRequest(w, msg)
		return false
	}
	return true
}

// actorID is the authenticated administrator, or "" on public routes.
func actorID(r *http.Request) string {
	if claims := middleware.Claims(r); claims != nil {
		return claims.Sub
	}
	return ""
}
