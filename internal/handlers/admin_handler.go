package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"lightning-pass/internal/services"
	"lightning-pass/internal/status"
	"lightning-pass/models"
)

type AdminHandler struct {
	app     core.App
	payouts *services.PayoutService
}

func NewAdminHandler(app core.App, payouts *services.PayoutService) *AdminHandler {
	return &AdminHandler{app: app, payouts: payouts}
}

// GetDiscount returns the process-wide promotional discount.
func (h *AdminHandler) GetDiscount(e *core.RequestEvent) error {
	if err := requireRole(e, RoleAdmin); err != nil {
		return err
	}

	percent := 0
	if record, err := h.app.FindFirstRecordByFilter(models.CollectionSettings, "key = 'system'"); err == nil {
		percent = record.GetInt("promotional_discount_percent")
	}
	return e.JSON(http.StatusOK, map[string]any{"promotional_discount_percent": percent})
}

// SetDiscount updates the promotional discount applied to every new
// purchase quote. In-flight intents keep the discount they were priced
// with.
func (h *AdminHandler) SetDiscount(e *core.RequestEvent) error {
	if err := requireRole(e, RoleAdmin); err != nil {
		return err
	}

	var req struct {
		Percent int `json:"promotional_discount_percent"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if req.Percent < 0 || req.Percent > 100 {
		return respondError(status.ErrSettingOutOfRange)
	}

	record, err := h.app.FindFirstRecordByFilter(models.CollectionSettings, "key = 'system'")
	if err != nil {
		collection, err := h.app.FindCollectionByNameOrId(models.CollectionSettings)
		if err != nil {
			return respondError(err)
		}
		record = core.NewRecord(collection)
		record.Set("key", "system")
	}
	record.Set("promotional_discount_percent", req.Percent)
	record.Set("updated_by", e.Auth.Id)
	if err := h.app.Save(record); err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"promotional_discount_percent": req.Percent})
}

// SystemOverview aggregates platform-wide numbers from the ledger.
func (h *AdminHandler) SystemOverview(e *core.RequestEvent) error {
	if err := requireRole(e, RoleAdmin); err != nil {
		return err
	}

	transactions, err := h.app.FindRecordsByFilter(models.CollectionTransactions, "status = 'completed'", "", 0, 0)
	if err != nil {
		return respondError(err)
	}
	grossVolume := decimal.Zero
	platformFees := decimal.Zero
	for _, t := range transactions {
		tx := models.TransactionFromRecord(t)
		grossVolume = grossVolume.Add(tx.Amount)
		platformFees = platformFees.Add(tx.PlatformFee)
	}

	activeVenues, _ := h.app.FindRecordsByFilter(models.CollectionVenues, "is_active = true", "", 0, 0)
	pendingVenues, _ := h.app.FindRecordsByFilter(models.CollectionVenues, "approval_status = 'pending'", "", 0, 0)
	activePasses, _ := h.app.FindRecordsByFilter(models.CollectionPasses, "status = 'active'", "", 0, 0)
	pendingRefunds, _ := h.app.FindRecordsByFilter(models.CollectionRefundRequests, "status = 'pending'", "", 0, 0)

	return e.JSON(http.StatusOK, map[string]any{
		"gross_volume":    grossVolume,
		"platform_fees":   platformFees,
		"transactions":    len(transactions),
		"active_venues":   len(activeVenues),
		"pending_venues":  len(pendingVenues),
		"active_passes":   len(activePasses),
		"pending_refunds": len(pendingRefunds),
	})
}

// VenueRevenue reports a venue's completed sales over a trailing
// window (?days=N, default 30).
func (h *AdminHandler) VenueRevenue(e *core.RequestEvent) error {
	venueRecord, err := h.app.FindRecordById(models.CollectionVenues, e.Request.PathValue("venueId"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	if err := requireVenueAccess(e, venueRecord); err != nil {
		return err
	}

	days := 30
	if raw := e.Request.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 365 {
			days = parsed
		}
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	transactions, err := h.app.FindRecordsByFilter(
		models.CollectionTransactions,
		"venue = {:venueId} && status = 'completed' && created >= {:since}",
		"-created",
		0,
		0,
		dbx.Params{"venueId": venueRecord.Id, "since": since.Format(time.RFC3339)},
	)
	if err != nil {
		return respondError(err)
	}

	revenue := decimal.Zero
	for _, t := range transactions {
		revenue = revenue.Add(models.TransactionFromRecord(t).VenueRevenue)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"venue_id": venueRecord.Id,
		"days":     days,
		"revenue":  revenue,
		"sales":    len(transactions),
	})
}

// RunPayout sweeps every legacy pending balance. Partial failure is a
// normal outcome; the response enumerates both sides.
func (h *AdminHandler) RunPayout(e *core.RequestEvent) error {
	if err := requireRole(e, RoleAdmin); err != nil {
		return err
	}

	result, err := h.payouts.RunBulkPayout(e.Request.Context())
	if err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, result)
}
