package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		venues, err := app.FindCollectionByNameOrId("venues")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("passes")
		collection.Fields.Add(
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
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_passes_pass_id", true, "pass_id", "")
		// At most one pass per payment intent: the store-level
		// idempotency guarantee behind double confirms.
		collection.AddIndex("idx_passes_payment_intent", true, "payment_intent", "payment_intent != ''")
		collection.AddIndex("idx_passes_venue_status", false, "venue, status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("passes")
		if err != nil {
			return nil
		}
		return app.Delete(collection)
	})
}
