package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/http/response"
	"github.com/diagnosis/villa-bookings/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// GetCalendar handles GET /v1/admin/calendar?property_id&from&to
func (h *Handlers) GetCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := h.calendar.Calendar(r.Context(), q.Get("property_id"), q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, r, err, "Failed to load calendar")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

// CreateBlock handles POST /v1/admin/blocks
func (h *Handlers) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var in domain.BlockInput
	if !decodeJSON(w, r, &in) {
		return
	}

	block, err := h.calendar.BlockDates(r.Context(), actorID(r), in)
	if err != nil {
		h.fail(w, r, err, "Failed to block dates")
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

// DeleteBlock handles DELETE /v1/admin/blocks/{id}
func (h *Handlers) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	if err := h.calendar.UnblockDates(r.Context(), actorID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "Failed to unblock dates")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QuickReserve handles POST /v1/admin/reservations
func (h *Handlers) QuickReserve(w http.ResponseWriter, r *http.Request) {
	var in domain.QuickReserveInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := h.calendar.QuickReserve(r.Context(), actorID(r), in)
	if err != nil {
		h.fail(w, r, err, "Failed to create reservation")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GetReservation handles GET /v1/admin/reservations/{id}
func (h *Handlers) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservations.GetReservation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Failed to retrieve reservation")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ApproveReservation handles POST /v1/admin/reservations/{id}/approve
func (h *Handlers) ApproveReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservations.Approve(r.Context(), actorID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "Failed to approve reservation")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CancelReservation handles POST /v1/admin/reservations/{id}/cancel. The body
// is optional.
func (h *Handlers) CancelReservation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	res, err := h.reservations.Cancel(r.Context(), actorID(r), chi.URLParam(r, "id"), strings.TrimSpace(in.Reason))
	if err != nil {
		h.fail(w, r, err, "Failed to cancel reservation")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListPricing handles GET /v1/admin/pricing?property_id&from&to
func (h *Handlers) ListPricing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	overrides, err := h.pricing.ListOverrides(r.Context(), q.Get("property_id"), q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, r, err, "Failed to load custom pricing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"overrides": overrides})
}

type upsertPricingRequest struct {
	PropertyID string                 `json:"property_id"`
	Overrides  []domain.OverrideInput `json:"overrides"`
}

// UpsertPricing handles PUT /v1/admin/pricing
func (h *Handlers) UpsertPricing(w http.ResponseWriter, r *http.Request) {
	var in upsertPricingRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	overrides, err := h.pricing.UpsertOverrides(r.Context(), actorID(r), in.PropertyID, in.Overrides)
	if err != nil {
		h.fail(w, r, err, "Failed to save custom pricing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"overrides": overrides})
}

// DeletePricing handles DELETE /v1/admin/pricing?property_id&date=...&date=...
// Dates may also be given comma separated.
func (h *Handlers) DeletePricing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var dates []string
	for _, v := range q["date"] {
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dates = append(dates, d)
			}
		}
	}

	n, err := h.pricing.DeleteOverrides(r.Context(), actorID(r), q.Get("property_id"), dates)
	if err != nil {
		h.fail(w, r, err, "Failed to delete custom pricing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": n})
}

// CreateCoupon handles POST /v1/admin/coupons
func (h *Handlers) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var in domain.CouponInput
	if !decodeJSON(w, r, &in) {
		return
	}

	c, err := h.coupons.CreateCoupon(r.Context(), actorID(r), in)
	if err != nil {
		h.fail(w, r, err, "Failed to create coupon")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCoupon handles PATCH /v1/admin/coupons/{code}
func (h *Handlers) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IsActive *bool `json:"is_active"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.IsActive == nil {
		response.BadRequest(w, "is_active is required")
		return
	}

	c, err := h.coupons.SetCouponActive(r.Context(), actorID(r), chi.URLParam(r, "code"), *in.IsActive)
	if err != nil {
		h.fail(w, r, err, "Failed to update coupon")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// fail writes err, logging it first when it is not a booking error.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if _, ok := domain.AsBookingError(err); !ok {
		logger.ErrorContext(r.Context(), fallback, "error", err)
	}
	response.FromError(w, err, fallback)
}
