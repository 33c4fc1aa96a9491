package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"lightning-pass/internal/services"
)

type PassHandler struct {
	redemption *services.RedemptionService
}

func NewPassHandler(redemption *services.RedemptionService) *PassHandler {
	return &PassHandler{redemption: redemption}
}

// ValidatePass checks a pass at the door without consuming it.
func (h *PassHandler) ValidatePass(e *core.RequestEvent) error {
	if err := requireRole(e, RoleScanner, RoleVenue, RoleAdmin); err != nil {
		return err
	}

	pass, err := h.redemption.ValidatePass(e.Request.PathValue("passId"))
	if err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"valid": true, "pass": pass})
}

// RedeemPass consumes a pass for entry. Not idempotent: a second scan
// of the same pass is rejected.
func (h *PassHandler) RedeemPass(e *core.RequestEvent) error {
	if err := requireRole(e, RoleScanner, RoleVenue, RoleAdmin); err != nil {
		return err
	}

	scanner := e.Auth.GetString("email")
	if scanner == "" {
		scanner = e.Auth.Id
	}

	pass, err := h.redemption.RedeemPass(e.Request.PathValue("passId"), scanner)
	if err != nil {
		return respondError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"redeemed": true, "pass": pass})
}
