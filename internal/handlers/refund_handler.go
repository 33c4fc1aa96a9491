package handlers

import (
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"lightning-pass/internal/services"
	"lightning-pass/models"
)

type RefundHandler struct {
	app     core.App
	refunds *services.RefundService
}

func NewRefundHandler(app core.App, refunds *services.RefundService) *RefundHandler {
	return &RefundHandler{app: app, refunds: refunds}
}

// RequestRefund opens a customer refund case for a pass the caller
// bought. Ownership is checked against the authenticated email.
func (h *RefundHandler) RequestRefund(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		PassID string `json:"pass_id"`
		Reason string `json:"reason"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	request, err := h.refunds.RequestRefund(
		e.Request.Context(),
		req.PassID,
		e.Auth.GetString("email"),
		e.Auth.Id,
		req.Reason,
	)
	if err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusCreated, request)
}

// ListRefundRequests returns the open cases for a venue the caller
// controls.
func (h *RefundHandler) ListRefundRequests(e *core.RequestEvent) error {
	venueRecord, err := h.app.FindRecordById(models.CollectionVenues, e.Request.PathValue("venueId"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	if err := requireVenueAccess(e, venueRecord); err != nil {
		return err
	}

	records, err := h.app.FindRecordsByFilter(
		models.CollectionRefundRequests,
		"venue = {:venueId} && status = 'pending'",
		"-created",
		0,
		0,
		map[string]any{"venueId": venueRecord.Id},
	)
	if err != nil {
		return respondError(err)
	}

	requests := make([]*models.RefundRequest, 0, len(records))
	for _, r := range records {
		requests = append(requests, models.RefundRequestFromRecord(r))
	}
	return e.JSON(http.StatusOK, map[string]any{"requests": requests})
}

// RespondToRefund approves or denies a pending case. Only the venue
// owner or an admin may resolve it; approval moves money.
func (h *RefundHandler) RespondToRefund(e *core.RequestEvent) error {
	var req struct {
		Approve      bool   `json:"approve"`
		DenialReason string `json:"denial_reason"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	requestID := e.Request.PathValue("requestId")
	requestRecord, err := h.app.FindFirstRecordByFilter(
		models.CollectionRefundRequests,
		"request_id = {:requestId}",
		dbx.Params{"requestId": requestID},
	)
	if err != nil {
		return apis.NewNotFoundError("Refund request not found", nil)
	}
	venueRecord, err := h.app.FindRecordById(models.CollectionVenues, requestRecord.GetString("venue"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	if err := requireVenueAccess(e, venueRecord); err != nil {
		return err
	}

	request, err := h.refunds.RespondToRefundRequest(
		e.Request.Context(),
		requestID,
		req.Approve,
		req.DenialReason,
		e.Auth.Id,
	)
	if err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, request)
}

// VenueRefund reverses a pass directly at the venue's discretion,
// including used passes.
func (h *RefundHandler) VenueRefund(e *core.RequestEvent) error {
	var req struct {
		PassID string `json:"pass_id"`
		Reason string `json:"reason"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	passRecord, err := h.app.FindFirstRecordByFilter(
		models.CollectionPasses,
		"pass_id = {:passId}",
		dbx.Params{"passId": req.PassID},
	)
	if err != nil {
		return apis.NewNotFoundError("Pass not found", nil)
	}
	venueRecord, err := h.app.FindRecordById(models.CollectionVenues, passRecord.GetString("venue"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	if err := requireVenueAccess(e, venueRecord); err != nil {
		return err
	}

	request, err := h.refunds.VenueInitiatedRefund(e.Request.Context(), req.PassID, req.Reason, e.Auth.Id)
	if err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, request)
}
