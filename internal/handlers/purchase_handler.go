package handlers

import (
	"io"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"lightning-pass/internal/services"
)

type PurchaseHandler struct {
	fulfillment *services.FulfillmentService
}

func NewPurchaseHandler(fulfillment *services.FulfillmentService) *PurchaseHandler {
	return &PurchaseHandler{fulfillment: fulfillment}
}

// InitiatePurchase starts phase 1: price quote + split payment intent.
// Open to anonymous buyers; the email/phone in the body identify them.
func (h *PurchaseHandler) InitiatePurchase(e *core.RequestEvent) error {
	var req services.InitiatePurchaseRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if req.VenueID == "" {
		return apis.NewBadRequestError("venue_id is required", nil)
	}

	result, err := h.fulfillment.InitiatePurchase(e.Request.Context(), req)
	if err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, result)
}

// ConfirmPurchase runs phase 2 for a paid intent. Calling it again for
// the same intent returns the already-minted pass.
func (h *PurchaseHandler) ConfirmPurchase(e *core.RequestEvent) error {
	var req struct {
		PaymentIntent string `json:"payment_intent"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if req.PaymentIntent == "" {
		return apis.NewBadRequestError("payment_intent is required", nil)
	}

	result, err := h.fulfillment.ConfirmPurchase(e.Request.Context(), req.PaymentIntent, req.Email, req.Phone)
	if err != nil {
		return respondError(err)
	}
	if result.Duplicate {
		return e.JSON(http.StatusOK, result)
	}
	return e.JSON(http.StatusCreated, result)
}

// GatewayWebhook receives processor events. The raw body is verified
// against the signature header before any parsing; bad signatures are
// rejected without detail.
func (h *PurchaseHandler) GatewayWebhook(e *core.RequestEvent) error {
	rawBody, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return apis.NewBadRequestError("Unreadable body", nil)
	}
	signature := e.Request.Header.Get("Gateway-Signature")

	if _, err := h.fulfillment.HandleWebhook(rawBody, signature); err != nil {
		return apis.NewUnauthorizedError("Invalid signature", nil)
	}
	return e.JSON(http.StatusOK, map[string]any{"received": true})
}
