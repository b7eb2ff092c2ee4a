package handlers

import (
	"net/http"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/http/response"
	"github.com/diagnosis/villa-bookings/pkg/logger"
)

// Quote handles POST /v1/quote
func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	var in domain.QuoteInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res := h.quotes.Quote(r.Context(), in)
	status := http.StatusOK
	if !res.Success {
		status = response.StatusForCode(res.Code)
	}
	writeJSON(w, status, res)
}

// Availability handles GET /v1/availability?checkIn=&checkOut=&propertyId=.
// Unavailable dates are a normal answer; only bad input and failures get an
// error status.
func (h *Handlers) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := h.availability.CheckStay(r.Context(), q.Get("propertyId"), q.Get("checkIn"), q.Get("checkOut"))

	status := http.StatusOK
	switch res.Code {
	case "", domain.CodeBlocked, domain.CodeBooked:
	default:
		status = response.StatusForCode(res.Code)
	}
	writeJSON(w, status, res)
}

// CreateHold handles POST /v1/holds
func (h *Handlers) CreateHold(w http.ResponseWriter, r *http.Request) {
	var in domain.HoldInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res := h.holds.CreateHold(r.Context(), in)
	switch {
	case !res.Success:
		writeJSON(w, response.StatusForCode(res.Code), res)
	case res.Replayed:
		writeJSON(w, http.StatusOK, res)
	default:
		writeJSON(w, http.StatusCreated, res)
	}
}

// ListPublicCoupons handles GET /v1/coupons/public
func (h *Handlers) ListPublicCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.ListPublicCoupons(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list public coupons", "error", err)
		response.InternalError(w, "Failed to retrieve coupons")
		return
	}

	type publicCoupon struct {
		Code        string `json:"code"`
		Description string `json:"description,omitempty"`
		PercentOff  *int   `json:"percentOff,omitempty"`
		AmountOff   *int64 `json:"amountOff,omitempty"`
		MinNights   *int   `json:"minNights,omitempty"`
	}
	out := make([]publicCoupon, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, publicCoupon{
			Code:        c.Code,
			Description: c.Description,
			PercentOff:  c.PercentOff,
			AmountOff:   c.AmountOff,
			MinNights:   c.MinNights,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"coupons": out})
}
