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

		collection := core.NewBaseCollection("transactions")
		collection.Fields.Add(
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
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		collection.AddIndex("idx_transactions_pass", false, "pass_id", "")
		collection.AddIndex("idx_transactions_venue_created", false, "venue, created", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("transactions")
		if err != nil {
			return nil
		}
		return app.Delete(collection)
	})
}
