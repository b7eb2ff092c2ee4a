package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/internal/http/response"
	"github.com/diagnosis/villa-bookings/pkg/logger"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const maxWebhookBytes = 65536

// StripeWebhook handles POST /webhooks/stripe. A succeeded payment intent
// whose metadata names a reservation marks that reservation PAID. Events that
// cannot be acted on are acknowledged so Stripe stops retrying; storage
// failures are not, so it retries later.
func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	secret := h.config.Stripe.WebhookSecret
	if secret == "" {
		response.WriteError(w, http.StatusServiceUnavailable, "Stripe webhooks are not configured", response.CodeInternalError)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		response.BadRequest(w, "Failed to read request body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		logger.WarnContext(r.Context(), "Rejected Stripe webhook", "error", err)
		response.WriteError(w, http.StatusBadRequest, "Invalid webhook signature", response.CodeBadSignature)
		return
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			response.BadRequest(w, "Invalid payment intent payload")
			return
		}
		reservationID := pi.Metadata["reservation_id"]
		if reservationID == "" {
			logger.WarnContext(r.Context(), "Payment intent without reservation id", "payment_intent", pi.ID)
			break
		}

		if _, err := h.reservations.MarkPaid(r.Context(), reservationID, pi.ID); err != nil {
			if be, ok := domain.AsBookingError(err); ok {
				logger.WarnContext(r.Context(), "Payment could not be applied",
					"reservation_id", reservationID, "payment_intent", pi.ID, "code", be.Code)
				break
			}
			logger.ErrorContext(r.Context(), "Failed to mark reservation paid",
				"error", err, "reservation_id", reservationID)
			response.InternalError(w, "Failed to process payment")
			return
		}
		logger.InfoContext(r.Context(), "Reservation paid", "reservation_id", reservationID, "payment_intent", pi.ID)
	default:
		logger.DebugContext(r.Context(), "Ignoring Stripe event", "type", string(event.Type))
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
