package handlers

import (
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"lightning-pass/internal/status"
	"lightning-pass/models"
)

type TemplateHandler struct {
	app core.App
}

func NewTemplateHandler(app core.App) *TemplateHandler {
	return &TemplateHandler{app: app}
}

// ListTemplates returns a venue's active pass offerings. Public: buyers
// pick a template before initiating a purchase.
func (h *TemplateHandler) ListTemplates(e *core.RequestEvent) error {
	venueID := e.Request.PathValue("venueId")
	if _, err := h.app.FindRecordById(models.CollectionVenues, venueID); err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}

	records, err := h.app.FindRecordsByFilter(
		models.CollectionPassTemplates,
		"venue = {:venueId} && is_active = true",
		"price",
		0,
		0,
		dbx.Params{"venueId": venueID},
	)
	if err != nil {
		return respondError(err)
	}

	templates := make([]*models.PassTemplate, 0, len(records))
	for _, r := range records {
		templates = append(templates, models.PassTemplateFromRecord(r))
	}
	return e.JSON(http.StatusOK, map[string]any{"templates": templates})
}

// CreateTemplate adds a pass offering. The venue must already have a
// payout account: templates exist to be sold, and sales require split
// settlement.
func (h *TemplateHandler) CreateTemplate(e *core.RequestEvent) error {
	venueRecord, err := h.app.FindRecordById(models.CollectionVenues, e.Request.PathValue("venueId"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	if err := requireVenueAccess(e, venueRecord); err != nil {
		return err
	}
	if venueRecord.GetString("payout_account") == "" {
		return respondError(status.ErrPayoutAccountMissing)
	}

	var req struct {
		Name           string   `json:"name"`
		Description    string   `json:"description"`
		Price          float64  `json:"price"`
		Tagline        string   `json:"tagline"`
		Features       []string `json:"features"`
		MaxPerPurchase int      `json:"max_per_purchase"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if req.Name == "" {
		return apis.NewBadRequestError("name is required", nil)
	}
	if err := models.ValidatePrice(decimal.NewFromFloat(req.Price)); err != nil {
		return respondError(err)
	}
	if req.MaxPerPurchase < 1 || req.MaxPerPurchase > models.DefaultMaxPerPurchase {
		req.MaxPerPurchase = models.DefaultMaxPerPurchase
	}

	collection, err := h.app.FindCollectionByNameOrId(models.CollectionPassTemplates)
	if err != nil {
		return respondError(err)
	}
	record := core.NewRecord(collection)
	record.Set("venue", venueRecord.Id)
	record.Set("name", req.Name)
	record.Set("description", req.Description)
	record.Set("price", req.Price)
	record.Set("tagline", req.Tagline)
	record.Set("features", req.Features)
	record.Set("max_per_purchase", req.MaxPerPurchase)
	record.Set("is_active", true)
	if err := h.app.Save(record); err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusCreated, models.PassTemplateFromRecord(record))
}

// UpdateTemplate edits price, copy, or availability of an offering.
func (h *TemplateHandler) UpdateTemplate(e *core.RequestEvent) error {
	record, err := h.app.FindRecordById(models.CollectionPassTemplates, e.Request.PathValue("templateId"))
	if err != nil {
		return apis.NewNotFoundError("Template not found", nil)
	}
	venueRecord, err := h.app.FindRecordById(models.CollectionVenues, record.GetString("venue"))
	if err != nil {
		return apis.NewNotFoundError("Venue not found", nil)
	}
	if err := requireVenueAccess(e, venueRecord); err != nil {
		return err
	}

	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Tagline     *string  `json:"tagline"`
		IsActive    *bool    `json:"is_active"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	if req.Price != nil {
		if err := models.ValidatePrice(decimal.NewFromFloat(*req.Price)); err != nil {
			return respondError(err)
		}
		record.Set("price", *req.Price)
	}
	if req.Name != nil && *req.Name != "" {
		record.Set("name", *req.Name)
	}
	if req.Description != nil {
		record.Set("description", *req.Description)
	}
	if req.Tagline != nil {
		record.Set("tagline", *req.Tagline)
	}
	if req.IsActive != nil {
		record.Set("is_active", *req.IsActive)
	}
	if err := h.app.Save(record); err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, models.PassTemplateFromRecord(record))
}
