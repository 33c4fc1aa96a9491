package services

import (
	"context"
	"testing"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lightning-pass/internal/services/gateway"
	"lightning-pass/internal/services/notify"
	"lightning-pass/internal/status"
	"lightning-pass/models"
)

const refundReason = "the headliner cancelled before doors"

func newRefunds(app core.App, gw gateway.Gateway) *RefundService {
	return NewRefundService(app, gw, notify.LogNotifier{}, nil)
}

func TestApprovedRefundReversesLedger(t *testing.T) {
	app := newTestApp(t)
	gw := gateway.NewSandbox()
	venue := seedVenue(t, app, nil)
	pass := mintPass(t, app, gw, venue, 2)
	svc := newRefunds(app, gw)

	request, err := svc.RequestRefund(context.Background(), pass.PassID, "buyer@example.com", "", refundReason)
	require.NoError(t, err)
	assert.Equal(t, models.RefundPending, request.Status)

	flagged, err := app.FindRecordById(models.CollectionPasses, pass.ID)
	require.NoError(t, err)
	assert.True(t, flagged.GetBool("refund_requested"))

	resolved, err := svc.RespondToRefundRequest(context.Background(), request.RequestID, true, "", "admin@platform.example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RefundApproved, resolved.Status)
	assert.NotEmpty(t, resolved.RefundRef)
	assert.True(t, resolved.RefundAmount.Equal(decimal.NewFromInt(100)), "refund amount %s", resolved.RefundAmount)

	// Ledger flip and request resolution land together.
	reloadedPass, err := app.FindRecordById(models.CollectionPasses, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PassRefunded, reloadedPass.GetString("status"))
	assert.False(t, reloadedPass.GetBool("refund_requested"))

	txRecord, err := app.FindFirstRecordByFilter(
		models.CollectionTransactions,
		"pass_id = {:passId}",
		dbx.Params{"passId": pass.PassID},
	)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionRefunded, txRecord.GetString("status"))
	assert.Equal(t, resolved.RefundRef, txRecord.GetString("refund_ref"))

	reloadedVenue, err := app.FindRecordById(models.CollectionVenues, venue.Id)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, reloadedVenue.GetFloat("lifetime_revenue"), 0.001)

	requests, err := app.FindRecordsByFilter(
		models.CollectionRefundRequests,
		"pass_id = {:passId}", "", 0, 0,
		dbx.Params{"passId": pass.PassID},
	)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, models.RefundApproved, requests[0].GetString("status"))

	// A second reversal through either entry point is refused.
	_, err = svc.VenueInitiatedRefund(context.Background(), pass.PassID, "double tap", "owner")
	require.ErrorIs(t, err, status.ErrAlreadyRefunded)
}

func TestFailedGatewayRefundLeavesRequestPending(t *testing.T) {
	app := newTestApp(t)
	gw := gateway.NewSandbox()
	venue := seedVenue(t, app, nil)
	pass := mintPass(t, app, gw, venue, 1)
	svc := newRefunds(app, gw)

	request, err := svc.RequestRefund(context.Background(), pass.PassID, "buyer@example.com", "", refundReason)
	require.NoError(t, err)

	// Consume the single-shot gateway refund out of band so the
	// approval's upstream call fails.
	_, err = gw.RefundIntent(context.Background(), pass.PaymentIntent, true)
	require.NoError(t, err)

	_, err = svc.RespondToRefundRequest(context.Background(), request.RequestID, true, "", "admin")
	require.Error(t, err)

	// Nothing resolved, nothing flipped: the case can be retried or
	// reconciled by hand.
	reloadedRequest, err := app.FindFirstRecordByFilter(
		models.CollectionRefundRequests,
		"request_id = {:requestId}",
		dbx.Params{"requestId": request.RequestID},
	)
	require.NoError(t, err)
	assert.Equal(t, models.RefundPending, reloadedRequest.GetString("status"))

	reloadedPass, err := app.FindRecordById(models.CollectionPasses, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PassActive, reloadedPass.GetString("status"))
	assert.True(t, reloadedPass.GetBool("refund_requested"))

	txRecord, err := app.FindFirstRecordByFilter(
		models.CollectionTransactions,
		"pass_id = {:passId}",
		dbx.Params{"passId": pass.PassID},
	)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, txRecord.GetString("status"))
}

func TestRespondToResolvedRequest(t *testing.T) {
	app := newTestApp(t)
	gw := gateway.NewSandbox()
	venue := seedVenue(t, app, nil)
	pass := mintPass(t, app, gw, venue, 1)
	svc := newRefunds(app, gw)

	request, err := svc.RequestRefund(context.Background(), pass.PassID, "buyer@example.com", "", refundReason)
	require.NoError(t, err)

	_, err = svc.RespondToRefundRequest(context.Background(), request.RequestID, true, "", "admin")
	require.NoError(t, err)
	_, err = svc.RespondToRefundRequest(context.Background(), request.RequestID, true, "", "admin")
	require.ErrorIs(t, err, status.ErrRequestResolved)
}

func TestRequestRefundGuards(t *testing.T) {
	app := newTestApp(t)
	gw := gateway.NewSandbox()
	venue := seedVenue(t, app, nil)
	pass := mintPass(t, app, gw, venue, 1)
	svc := newRefunds(app, gw)
	ctx := context.Background()

	_, err := svc.RequestRefund(ctx, pass.PassID, "buyer@example.com", "", "too short")
	assert.ErrorIs(t, err, status.ErrReasonTooShort)

	_, err = svc.RequestRefund(ctx, pass.PassID, "someone@else.example.com", "", refundReason)
	assert.ErrorIs(t, err, status.ErrNotPassOwner)

	_, err = svc.RequestRefund(ctx, pass.PassID, "buyer@example.com", "", refundReason)
	require.NoError(t, err)
	_, err = svc.RequestRefund(ctx, pass.PassID, "buyer@example.com", "", refundReason)
	assert.ErrorIs(t, err, status.ErrRefundPending)

	used := mintPass(t, app, gw, venue, 1)
	_, err = NewRedemptionService(app).RedeemPass(used.PassID, "scanner")
	require.NoError(t, err)
	_, err = svc.RequestRefund(ctx, used.PassID, "buyer@example.com", "", refundReason)
	assert.ErrorIs(t, err, status.ErrPassUsed)
}

func TestRequestRefundRaceHitsStoreConstraint(t *testing.T) {
	app := newTestApp(t)
	gw := gateway.NewSandbox()
	venue := seedVenue(t, app, nil)
	pass := mintPass(t, app, gw, venue, 1)
	svc := newRefunds(app, gw)

	_, err := svc.RequestRefund(context.Background(), pass.PassID, "buyer@example.com", "", refundReason)
	require.NoError(t, err)

	// Simulate a racer that read the pass before the flag was set: the
	// unique index on open requests still refuses the second case.
	record, err := app.FindRecordById(models.CollectionPasses, pass.ID)
	require.NoError(t, err)
	record.Set("refund_requested", false)
	require.NoError(t, app.Save(record))

	_, err = svc.RequestRefund(context.Background(), pass.PassID, "buyer@example.com", "", refundReason)
	require.ErrorIs(t, err, status.ErrRefundPending)

	requests, err := app.FindRecordsByFilter(
		models.CollectionRefundRequests,
		"pass_id = {:passId} && status = 'pending'", "", 0, 0,
		dbx.Params{"passId": pass.PassID},
	)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestDenyRefundMovesNoMoney(t *testing.T) {
	app := newTestApp(t)
	gw := gateway.NewSandbox()
	venue := seedVenue(t, app, nil)
	pass := mintPass(t, app, gw, venue, 1)
	svc := newRefunds(app, gw)

	request, err := svc.RequestRefund(context.Background(), pass.PassID, "buyer@example.com", "", refundReason)
	require.NoError(t, err)

	_, err = svc.RespondToRefundRequest(context.Background(), request.RequestID, false, "", "owner")
	require.ErrorIs(t, err, status.ErrDenialReasonRequired)

	denied, err := svc.RespondToRefundRequest(context.Background(), request.RequestID, false, "no-show policy applies", "owner")
	require.NoError(t, err)
	assert.Equal(t, models.RefundDenied, denied.Status)
	assert.Equal(t, "no-show policy applies", denied.DenialReason)

	reloadedPass, err := app.FindRecordById(models.CollectionPasses, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PassActive, reloadedPass.GetString("status"))
	assert.False(t, reloadedPass.GetBool("refund_requested"))

	txRecord, err := app.FindFirstRecordByFilter(
		models.CollectionTransactions,
		"pass_id = {:passId}",
		dbx.Params{"passId": pass.PassID},
	)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, txRecord.GetString("status"))

	reloadedVenue, err := app.FindRecordById(models.CollectionVenues, venue.Id)
	require.NoError(t, err)
	assert.InDelta(t, 42.5, reloadedVenue.GetFloat("lifetime_revenue"), 0.001)

	_, err = svc.RespondToRefundRequest(context.Background(), request.RequestID, false, "again", "owner")
	require.ErrorIs(t, err, status.ErrRequestResolved)
}

func TestVenueRefundCoversUsedPass(t *testing.T) {
	app := newTestApp(t)
	gw := gateway.NewSandbox()
	venue := seedVenue(t, app, nil)
	pass := mintPass(t, app, gw, venue, 1)

	_, err := NewRedemptionService(app).RedeemPass(pass.PassID, "scanner")
	require.NoError(t, err)

	svc := newRefunds(app, gw)
	audit, err := svc.VenueInitiatedRefund(context.Background(), pass.PassID, "equipment failure, show stopped", "owner@venue.example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RefundApproved, audit.Status)
	assert.NotEmpty(t, audit.RefundRef)
	assert.True(t, audit.RefundAmount.Equal(decimal.NewFromInt(50)), "refund amount %s", audit.RefundAmount)

	reloadedPass, err := app.FindRecordById(models.CollectionPasses, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PassRefunded, reloadedPass.GetString("status"))

	requests, err := app.FindRecordsByFilter(
		models.CollectionRefundRequests,
		"pass_id = {:passId}", "", 0, 0,
		dbx.Params{"passId": pass.PassID},
	)
	require.NoError(t, err)
	assert.Len(t, requests, 1)

	_, err = svc.VenueInitiatedRefund(context.Background(), pass.PassID, "", "owner")
	require.ErrorIs(t, err, status.ErrDenialReasonRequired)
}
