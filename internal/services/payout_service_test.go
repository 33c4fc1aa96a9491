package services

import (
	"context"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightning-pass/internal/services/gateway"
	"lightning-pass/models"
)

func TestRunBulkPayoutPartialSuccess(t *testing.T) {
	app := newTestApp(t)
	gw := gateway.NewSandbox()

	paid := seedVenue(t, app, func(r *core.Record) {
		r.Set("name", "Paid Out")
		r.Set("payout_account", "acct_paid")
		r.Set("pending_payout", 100.0)
	})
	stuck := seedVenue(t, app, func(r *core.Record) {
		r.Set("name", "Stuck")
		r.Set("payout_account", "acct_stuck")
		r.Set("pending_payout", 50.0)
	})
	seedVenue(t, app, func(r *core.Record) {
		r.Set("name", "Settled Already")
		r.Set("payout_account", "acct_zero")
		r.Set("pending_payout", 0.0)
	})
	skipped := seedVenue(t, app, func(r *core.Record) {
		r.Set("name", "No Account")
		r.Set("payout_account", "")
		r.Set("pending_payout", 70.0)
	})

	gw.FailTransfersTo("acct_stuck")
	svc := NewPayoutService(app, gw, nil)

	result, err := svc.RunBulkPayout(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, paid.Id, result.Succeeded[0].VenueID)
	assert.True(t, strings.HasPrefix(result.Succeeded[0].TransferRef, "tr_"))
	assert.True(t, result.Succeeded[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.Total.Equal(decimal.NewFromInt(100)), "total %s", result.Total)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, stuck.Id, result.Failed[0].VenueID)
	assert.NotEmpty(t, result.Failed[0].Error)

	reloadedPaid, err := app.FindRecordById(models.CollectionVenues, paid.Id)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, reloadedPaid.GetFloat("pending_payout"), 0.001)
	assert.InDelta(t, 100.0, reloadedPaid.GetFloat("total_paid_out"), 0.001)
	assert.False(t, reloadedPaid.GetDateTime("last_payout_at").IsZero())

	// A failed transfer leaves the venue's balance untouched for the
	// next run.
	reloadedStuck, err := app.FindRecordById(models.CollectionVenues, stuck.Id)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, reloadedStuck.GetFloat("pending_payout"), 0.001)
	assert.InDelta(t, 0.0, reloadedStuck.GetFloat("total_paid_out"), 0.001)

	reloadedSkipped, err := app.FindRecordById(models.CollectionVenues, skipped.Id)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, reloadedSkipped.GetFloat("pending_payout"), 0.001)
}

func TestSettleRefusesStaleAmount(t *testing.T) {
	app := newTestApp(t)
	gw := gateway.NewSandbox()
	record := seedVenue(t, app, func(r *core.Record) {
		r.Set("payout_account", "acct_neon")
		r.Set("pending_payout", 50.0)
	})
	svc := NewPayoutService(app, gw, nil)

	// The balance shrank after the read; the guarded update must refuse
	// rather than drive the balance negative or silently no-op.
	err := svc.settle(&models.Venue{ID: record.Id, PendingPayout: decimal.NewFromInt(100)})
	require.Error(t, err)

	reloaded, err := app.FindRecordById(models.CollectionVenues, record.Id)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, reloaded.GetFloat("pending_payout"), 0.001)
	assert.InDelta(t, 0.0, reloaded.GetFloat("total_paid_out"), 0.001)

	require.NoError(t, svc.settle(&models.Venue{ID: record.Id, PendingPayout: decimal.NewFromInt(50)}))

	reloaded, err = app.FindRecordById(models.CollectionVenues, record.Id)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, reloaded.GetFloat("pending_payout"), 0.001)
	assert.InDelta(t, 50.0, reloaded.GetFloat("total_paid_out"), 0.001)
	assert.False(t, reloaded.GetDateTime("last_payout_at").IsZero())
}
