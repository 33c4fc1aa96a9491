package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"lightning-pass/internal/status"
	"lightning-pass/models"
)

type VenueHandler struct {
	app core.App
}

func NewVenueHandler(app core.App) *VenueHandler {
	return &VenueHandler{app: app}
}

// ListVenues is the public directory: active venues that are approved
// or predate the approval workflow.
func (h *VenueHandler) ListVenues(e *core.RequestEvent) error {
	records, err := h.app.FindRecordsByFilter(
		models.CollectionVenues,
		"is_active = true && (approval_status = '' || approval_status = 'approved')",
		"name",
		0,
		0,
	)
	if err != nil {
		return respondError(err)
	}

	venues := make([]*models.Venue, 0, len(records))
	for _, r := range records {
		venues = append(venues, models.VenueFromRecord(r))
	}
	return e.JSON(http.StatusOK, map[string]any{"venues": venues})
}

func (h *VenueHandler) GetVenue(e *core.RequestEvent) error {
	record, err := h.app.FindRecordById(models.CollectionVenues, e.Request.PathValue("venueId"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	venue := models.VenueFromRecord(record)
	if !venue.IsApproved() && (e.Auth == nil || (!isAdmin(e) && venue.OwnerID != e.Auth.Id)) {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	return e.JSON(http.StatusOK, venue)
}

// CreateVenue registers a venue in the pending state. Selling stays
// blocked until an admin approves it and a payout account is connected.
func (h *VenueHandler) CreateVenue(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Name          string  `json:"name"`
		Type          string  `json:"type"`
		Address       string  `json:"address"`
		Capacity      int     `json:"capacity"`
		BasePrice     float64 `json:"base_price"`
		Tagline       string  `json:"tagline"`
		OwnerPhone    string  `json:"owner_phone"`
		PayoutAccount string  `json:"payout_account"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if req.Name == "" {
		return apis.NewBadRequestError("name is required", nil)
	}
	if err := models.ValidatePrice(decimal.NewFromFloat(req.BasePrice)); err != nil {
		return respondError(err)
	}

	collection, err := h.app.FindCollectionByNameOrId(models.CollectionVenues)
	if err != nil {
		return respondError(err)
	}
	record := core.NewRecord(collection)
	record.Set("name", req.Name)
	record.Set("type", req.Type)
	record.Set("address", req.Address)
	record.Set("capacity", req.Capacity)
	record.Set("base_price", req.BasePrice)
	record.Set("current_price", req.BasePrice)
	record.Set("tagline", req.Tagline)
	record.Set("owner", e.Auth.Id)
	record.Set("owner_email", e.Auth.GetString("email"))
	record.Set("owner_phone", req.OwnerPhone)
	record.Set("payout_account", req.PayoutAccount)
	record.Set("approval_status", models.ApprovalPending)
	record.Set("is_active", false)
	record.Set("available_passes", 0)
	if err := h.app.Save(record); err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusCreated, models.VenueFromRecord(record))
}

// ApproveVenue is the admin gate to the public directory.
func (h *VenueHandler) ApproveVenue(e *core.RequestEvent) error {
	if err := requireRole(e, RoleAdmin); err != nil {
		return err
	}

	record, err := h.app.FindRecordById(models.CollectionVenues, e.Request.PathValue("venueId"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	record.Set("approval_status", models.ApprovalApproved)
	record.Set("approved_at", time.Now())
	record.Set("approved_by", e.Auth.Id)
	record.Set("rejection_reason", "")
	if err := h.app.Save(record); err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, models.VenueFromRecord(record))
}

func (h *VenueHandler) RejectVenue(e *core.RequestEvent) error {
	if err := requireRole(e, RoleAdmin); err != nil {
		return err
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if req.Reason == "" {
		return apis.NewBadRequestError("reason is required", nil)
	}

	record, err := h.app.FindRecordById(models.CollectionVenues, e.Request.PathValue("venueId"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	record.Set("approval_status", models.ApprovalRejected)
	record.Set("rejected_at", time.Now())
	record.Set("rejection_reason", req.Reason)
	record.Set("is_active", false)
	if err := h.app.Save(record); err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, models.VenueFromRecord(record))
}

// UpdatePricing changes the live pass price within the allowed band.
func (h *VenueHandler) UpdatePricing(e *core.RequestEvent) error {
	record, err := h.app.FindRecordById(models.CollectionVenues, e.Request.PathValue("venueId"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	if err := requireVenueAccess(e, record); err != nil {
		return err
	}

	var req struct {
		Price float64 `json:"price"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	price := decimal.NewFromFloat(req.Price)
	if err := models.ValidatePrice(price); err != nil {
		return respondError(err)
	}

	record.Set("current_price", req.Price)
	if err := h.app.Save(record); err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, models.VenueFromRecord(record))
}

// ActivateVenue opens sales with a fresh inventory count.
func (h *VenueHandler) ActivateVenue(e *core.RequestEvent) error {
	record, err := h.app.FindRecordById(models.CollectionVenues, e.Request.PathValue("venueId"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	if err := requireVenueAccess(e, record); err != nil {
		return err
	}
	venue := models.VenueFromRecord(record)
	if !venue.IsApproved() {
		return respondError(status.ErrVenueNotApproved)
	}

	var req struct {
		AvailablePasses int `json:"available_passes"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if req.AvailablePasses < 0 || req.AvailablePasses > 500 {
		return apis.NewBadRequestError("available_passes must be between 0 and 500", nil)
	}

	record.Set("is_active", true)
	record.Set("available_passes", req.AvailablePasses)
	if err := h.app.Save(record); err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, models.VenueFromRecord(record))
}

func (h *VenueHandler) DeactivateVenue(e *core.RequestEvent) error {
	record, err := h.app.FindRecordById(models.CollectionVenues, e.Request.PathValue("venueId"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	if err := requireVenueAccess(e, record); err != nil {
		return err
	}

	record.Set("is_active", false)
	record.Set("available_passes", 0)
	if err := h.app.Save(record); err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, models.VenueFromRecord(record))
}

// VenueStats reports today's sales from the transaction ledger.
func (h *VenueHandler) VenueStats(e *core.RequestEvent) error {
	record, err := h.app.FindRecordById(models.CollectionVenues, e.Request.PathValue("venueId"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	if err := requireVenueAccess(e, record); err != nil {
		return err
	}
	venue := models.VenueFromRecord(record)

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	transactions, err := h.app.FindRecordsByFilter(
		models.CollectionTransactions,
		"venue = {:venueId} && status = 'completed' && created >= {:start}",
		"-created",
		0,
		0,
		dbx.Params{"venueId": venue.ID, "start": startOfDay.Format(time.RFC3339)},
	)
	if err != nil {
		return respondError(err)
	}

	revenue := decimal.Zero
	passesSold := 0
	for _, t := range transactions {
		tx := models.TransactionFromRecord(t)
		revenue = revenue.Add(tx.VenueRevenue)
		passesSold++
	}

	return e.JSON(http.StatusOK, map[string]any{
		"venue_id":         venue.ID,
		"today_revenue":    revenue,
		"today_sales":      passesSold,
		"available_passes": venue.AvailablePasses,
		"in_line":          venue.InLine,
		"lifetime_revenue": venue.LifetimeRevenue,
		"pending_payout":   venue.PendingPayout,
	})
}
