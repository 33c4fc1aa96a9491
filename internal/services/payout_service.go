package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"lightning-pass/internal/services/gateway"
	"lightning-pass/models"
	"lightning-pass/monitoring"
)

// PayoutService runs the legacy pull-model payout for venues whose
// balances accrued before split settlement. New revenue settles to the
// venue's account at charge time and never touches pending_payout.
type PayoutService struct {
	app     core.App
	gw      gateway.Gateway
	monitor *monitoring.Monitor
}

func NewPayoutService(app core.App, gw gateway.Gateway, monitor *monitoring.Monitor) *PayoutService {
	return &PayoutService{app: app, gw: gw, monitor: monitor}
}

// VenuePayout is the per-venue outcome of a bulk run.
type VenuePayout struct {
	VenueID     string          `json:"venue_id"`
	VenueName   string          `json:"venue_name"`
	Amount      decimal.Decimal `json:"amount"`
	TransferRef string          `json:"transfer_ref,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// PayoutResult enumerates every venue touched by a run.
type PayoutResult struct {
	Succeeded []VenuePayout   `json:"succeeded"`
	Failed    []VenuePayout   `json:"failed"`
	Total     decimal.Decimal `json:"total"`
}

// RunBulkPayout transfers each eligible venue's pending balance in one
// sweep. A failed transfer is recorded and the batch continues; venues
// without a payout account are skipped entirely.
func (s *PayoutService) RunBulkPayout(ctx context.Context) (*PayoutResult, error) {
	records, err := s.app.FindRecordsByFilter(
		models.CollectionVenues,
		"pending_payout > 0 && payout_account != ''",
		"-pending_payout",
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("payout: list venues: %w", err)
	}

	result := &PayoutResult{Total: decimal.Zero}
	for _, record := range records {
		venue := models.VenueFromRecord(record)
		payout := VenuePayout{
			VenueID:   venue.ID,
			VenueName: venue.Name,
			Amount:    venue.PendingPayout,
		}

		ref, err := s.gw.Transfer(
			ctx,
			venue.PayoutAccount,
			models.MinorUnits(venue.PendingPayout),
			fmt.Sprintf("Payout for %s", venue.Name),
		)
		if err != nil {
			payout.Error = err.Error()
			result.Failed = append(result.Failed, payout)
			s.monitor.TrackPayout("failed")
			slog.Error("venue payout failed", "venue", venue.ID, "amount", venue.PendingPayout, "error", err)
			continue
		}
		payout.TransferRef = ref

		if err := s.settle(venue); err != nil {
			// Money moved but the ledger did not. Surface loudly; the
			// transfer ref in the result is the recovery handle.
			payout.Error = fmt.Sprintf("transferred but not settled: %v", err)
			result.Failed = append(result.Failed, payout)
			s.monitor.TrackPayout("unsettled")
			slog.Error("venue payout settled upstream only", "venue", venue.ID, "transfer", ref, "error", err)
			continue
		}

		result.Succeeded = append(result.Succeeded, payout)
		result.Total = result.Total.Add(venue.PendingPayout)
		s.monitor.TrackPayout("succeeded")
		slog.Info("venue payout completed", "venue", venue.ID, "amount", venue.PendingPayout, "transfer", ref)
	}

	return result, nil
}

// settle deducts the paid amount from the pending balance. The amount
// guard keeps a balance that shrank between the read and the transfer
// from going negative; a guard miss is an error, not a silent no-op,
// because the transfer already happened.
func (s *PayoutService) settle(venue *models.Venue) error {
	res, err := s.app.DB().NewQuery(`
		UPDATE venues
		SET pending_payout = pending_payout - {:amount},
		    total_paid_out = total_paid_out + {:amount},
		    last_payout_at = {:at}
		WHERE id = {:id} AND pending_payout >= {:amount}
	`).Bind(dbx.Params{
		"amount": venue.PendingPayout.InexactFloat64(),
		"at":     types.NowDateTime().String(),
		"id":     venue.ID,
	}).Execute()
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("pending balance below %s for venue %s", venue.PendingPayout, venue.ID)
	}
	return nil
}
