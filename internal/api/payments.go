package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"paymate/internal/middleware"
	"paymate/internal/service"
)

type createPaymentRequest struct {
	ReceiverID  string          `json:"receiver_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Transfer    bool            `json:"transfer,omitempty"`
}

// handleCreatePayment starts a payment from the authenticated user and
// returns the client secret needed to confirm it.
func (h *Handlers) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.ReceiverID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "receiver_id is required"})
		return
	}

	result, err := h.payments.CreatePayment(r.Context(), userID, service.PaymentInput{
		ReceiverID:  req.ReceiverID,
		Amount:      req.Amount,
		Description: req.Description,
		Transfer:    req.Transfer,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type webhookEvent struct {
	Type            string `json:"type"`
	PaymentIntentID string `json:"payment_intent_id"`
	Reason          string `json:"reason,omitempty"`
}

// handlePaymentWebhook ingests gateway callbacks. Delivery is
// at-least-once, so both handlers treat repeated events as no-ops.
func (h *Handlers) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var event webhookEvent
	if err := decodeBody(r, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if event.PaymentIntentID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "payment_intent_id is required"})
		return
	}

	var err error
	switch event.Type {
	case "payment_intent.succeeded":
		err = h.payments.HandlePaymentSuccess(r.Context(), event.PaymentIntentID)
	case "payment_intent.payment_failed":
		err = h.payments.HandlePaymentFailure(r.Context(), event.PaymentIntentID, event.Reason)
	default:
		// Unrecognized event types are acknowledged so the gateway
		// does not retry them forever.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
