package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("venues")
		collection.Fields.Add(
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
			&core.RelationField{Name: "owner", CollectionId: users.Id, MaxSelect: 1},
			&core.EmailField{Name: "owner_email"},
			&core.TextField{Name: "owner_phone"},
			&core.TextField{Name: "owner_name"},
			&core.DateField{Name: "approved_at"},
			&core.TextField{Name: "approved_by"},
			&core.DateField{Name: "rejected_at"},
			&core.TextField{Name: "rejection_reason"},
			&core.TextField{Name: "payout_account"},
			&core.NumberField{Name: "lifetime_revenue", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "pending_payout", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "total_paid_out", Min: types.Pointer(0.0)},
			&core.DateField{Name: "last_payout_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_venues_owner", false, "owner", "")
		collection.AddIndex("idx_venues_listing", false, "is_active, approval_status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("venues")
		if err != nil {
			return nil
		}
		return app.Delete(collection)
	})
}
