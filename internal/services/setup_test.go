package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/stretchr/testify/require"

	"lightning-pass/internal/services/gateway"
	"lightning-pass/internal/services/notify"
	"lightning-pass/models"
)

// newTestApp boots an isolated store with the ledger collections,
// mirroring the production migrations. Relations to the auth collection
// are flattened to text fields; nothing in the services resolves them.
func newTestApp(t *testing.T) *tests.TestApp {
	t.Helper()

	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	venues := core.NewBaseCollection(models.CollectionVenues)
	venues.Fields.Add(
		&core.TextField{Name: "name", Required: true},
		&core.TextField{Name: "type"},
		&core.TextField{Name: "address"},
		&core.NumberField{Name: "capacity", OnlyInt: true, Min: types.Pointer(0.0)},
		&core.NumberField{Name: "current_price", Min: types.Pointer(0.0)},
		&core.NumberField{Name: "base_price", Min: types.Pointer(0.0)},
		&core.NumberField{Name: "available_passes", OnlyInt: true, Min: types.Pointer(0.0)},
		&core.NumberField{Name: "in_line", OnlyInt: true, Min: types.Pointer(0.0)},
		&core.NumberField{Name: "wait_time", OnlyInt: true, Min: types.Pointer(0.0)},
		&core.TextField{Name: "tagline"},
		&core.BoolField{Name: "is_active"},
		&core.SelectField{Name: "approval_status", Values: []string{"pending", "approved", "rejected"}, MaxSelect: 1},
		&core.TextField{Name: "owner"},
		&core.TextField{Name: "payout_account"},
		&core.NumberField{Name: "lifetime_revenue", Min: types.Pointer(0.0)},
		&core.NumberField{Name: "pending_payout", Min: types.Pointer(0.0)},
		&core.NumberField{Name: "total_paid_out", Min: types.Pointer(0.0)},
		&core.DateField{Name: "last_payout_at"},
	)
	require.NoError(t, app.Save(venues))

	passes := core.NewBaseCollection(models.CollectionPasses)
	passes.Fields.Add(
		&core.TextField{Name: "pass_id", Required: true},
		&core.RelationField{Name: "venue", CollectionId: venues.Id, MaxSelect: 1, Required: true},
		&core.TextField{Name: "venue_name"},
		&core.EmailField{Name: "email"},
		&core.TextField{Name: "phone"},
		&core.TextField{Name: "pass_name"},
		&core.NumberField{Name: "purchase_price", Min: types.Pointer(0.0)},
		&core.NumberField{Name: "quantity", OnlyInt: true, Min: types.Pointer(1.0)},
		&core.NumberField{Name: "amount", Min: types.Pointer(0.0)},
		&core.NumberField{Name: "subtotal", Min: types.Pointer(0.0)},
		&core.NumberField{Name: "discount_percent", OnlyInt: true, Min: types.Pointer(0.0), Max: types.Pointer(100.0)},
		&core.TextField{Name: "code", Required: true},
		&core.SelectField{Name: "status", Values: []string{"active", "used", "expired", "refunded", "cancelled"}, MaxSelect: 1, Required: true},
		&core.DateField{Name: "valid_until"},
		&core.DateField{Name: "used_at"},
		&core.TextField{Name: "used_by"},
		&core.BoolField{Name: "refund_requested"},
		&core.TextField{Name: "payment_intent"},
	)
	passes.AddIndex("idx_passes_pass_id", true, "pass_id", "")
	passes.AddIndex("idx_passes_payment_intent", true, "payment_intent", "payment_intent != ''")
	require.NoError(t, app.Save(passes))

	transactions := core.NewBaseCollection(models.CollectionTransactions)
	transactions.Fields.Add(
		&core.TextField{Name: "pass_id", Required: true},
		&core.RelationField{Name: "venue", CollectionId: venues.Id, MaxSelect: 1, Required: true},
		&core.TextField{Name: "venue_name"},
		&core.EmailField{Name: "email"},
		&core.TextField{Name: "phone"},
		&core.NumberField{Name: "amount", Min: types.Pointer(0.0)},
		&core.NumberField{Name: "venue_revenue", Min: types.Pointer(0.0)},
		&core.NumberField{Name: "platform_fee", Min: types.Pointer(0.0)},
		&core.TextField{Name: "charge_ref"},
		&core.TextField{Name: "refund_ref"},
		&core.SelectField{Name: "status", Values: []string{"completed", "refunded"}, MaxSelect: 1, Required: true},
	)
	require.NoError(t, app.Save(transactions))

	refundRequests := core.NewBaseCollection(models.CollectionRefundRequests)
	refundRequests.Fields.Add(
		&core.TextField{Name: "request_id", Required: true},
		&core.TextField{Name: "pass_id", Required: true},
		&core.RelationField{Name: "venue", CollectionId: venues.Id, MaxSelect: 1, Required: true},
		&core.TextField{Name: "customer"},
		&core.EmailField{Name: "email"},
		&core.TextField{Name: "phone"},
		&core.TextField{Name: "reason", Required: true},
		&core.SelectField{Name: "status", Values: []string{"pending", "approved", "denied"}, MaxSelect: 1, Required: true},
		&core.DateField{Name: "responded_at"},
		&core.TextField{Name: "responded_by"},
		&core.TextField{Name: "denial_reason"},
		&core.TextField{Name: "refund_ref"},
		&core.NumberField{Name: "refund_amount", Min: types.Pointer(0.0)},
	)
	refundRequests.AddIndex("idx_refund_requests_request_id", true, "request_id", "")
	refundRequests.AddIndex("idx_refund_requests_pending_pass", true, "pass_id", "status = 'pending'")
	require.NoError(t, app.Save(refundRequests))

	settings := core.NewBaseCollection(models.CollectionSettings)
	settings.Fields.Add(
		&core.TextField{Name: "key", Required: true},
		&core.NumberField{Name: "promotional_discount_percent", OnlyInt: true, Min: types.Pointer(0.0), Max: types.Pointer(100.0)},
		&core.TextField{Name: "updated_by"},
	)
	require.NoError(t, app.Save(settings))

	system := core.NewRecord(settings)
	system.Set("key", "system")
	system.Set("promotional_discount_percent", 0)
	require.NoError(t, app.Save(system))

	return app
}

// seedVenue saves an approved, active, sellable venue; mutate tweaks
// individual fields before the save.
func seedVenue(t *testing.T, app core.App, mutate func(r *core.Record)) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId(models.CollectionVenues)
	require.NoError(t, err)

	r := core.NewRecord(collection)
	r.Set("name", "Neon Owl")
	r.Set("tagline", "Skip every line")
	r.Set("current_price", 50.0)
	r.Set("base_price", 50.0)
	r.Set("available_passes", 10)
	r.Set("is_active", true)
	r.Set("approval_status", models.ApprovalApproved)
	r.Set("payout_account", "acct_neon")
	if mutate != nil {
		mutate(r)
	}
	require.NoError(t, app.Save(r))
	return r
}

var (
	seedMu  sync.Mutex
	seedSeq int
)

// seedPass saves a raw active pass directly, for flows that do not need
// a live payment intent behind it.
func seedPass(t *testing.T, app core.App, venue *core.Record, mutate func(r *core.Record)) *core.Record {
	t.Helper()

	seedMu.Lock()
	seedSeq++
	n := seedSeq
	seedMu.Unlock()

	collection, err := app.FindCollectionByNameOrId(models.CollectionPasses)
	require.NoError(t, err)

	r := core.NewRecord(collection)
	r.Set("pass_id", fmt.Sprintf("LP-SEED%06d", n))
	r.Set("venue", venue.Id)
	r.Set("venue_name", venue.GetString("name"))
	r.Set("email", "buyer@example.com")
	r.Set("phone", "+15550001111")
	r.Set("quantity", 1)
	r.Set("amount", 50.0)
	r.Set("code", fmt.Sprintf("CODE%06d", n))
	r.Set("status", models.PassActive)
	r.Set("valid_until", time.Now().Add(24*time.Hour))
	if mutate != nil {
		mutate(r)
	}
	require.NoError(t, app.Save(r))
	return r
}

func newFulfillment(app core.App, gw gateway.Gateway) *FulfillmentService {
	return NewFulfillmentService(app, gw, notify.LogNotifier{}, nil, nil, 15, 24*time.Hour, "whsec_test")
}

// mintPass drives the full two-phase purchase against the sandbox so
// downstream flows get a pass with a refundable intent behind it.
func mintPass(t *testing.T, app core.App, gw *gateway.Sandbox, venue *core.Record, quantity int) *models.Pass {
	t.Helper()

	svc := newFulfillment(app, gw)
	initiated, err := svc.InitiatePurchase(context.Background(), InitiatePurchaseRequest{
		VenueID:  venue.Id,
		Email:    "buyer@example.com",
		Phone:    "+15550001111",
		Quantity: quantity,
	})
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPurchase(context.Background(), initiated.IntentID, "", "")
	require.NoError(t, err)
	require.False(t, confirmed.Duplicate)
	return confirmed.Pass
}
